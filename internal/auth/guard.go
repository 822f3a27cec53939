// ABOUTME: Pre-shared-key guard for the HTTP surface.
// ABOUTME: Normalizes keys for copy/paste artifacts and compares in constant time.

package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// HeaderName is the request header carrying the pre-shared key.
const HeaderName = "X-API-Key"

// Guard validates a configured pre-shared key against request credentials.
// An empty configured key authorizes every request; that permissive default
// exists for local demo use and is deliberate.
type Guard struct {
	key string
}

// NewGuard creates a guard for the given key. The key is normalized once at
// construction so env-file quoting does not break comparison.
func NewGuard(key string) *Guard {
	return &Guard{key: NormalizeKey(key)}
}

// Authorized reports whether the provided key matches the configured one.
// The comparison runs in constant time regardless of where the keys differ.
func (g *Guard) Authorized(provided string) bool {
	if g.key == "" {
		return true
	}
	provided = NormalizeKey(provided)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(g.key)) == 1
}

// Enabled reports whether a key is configured at all.
func (g *Guard) Enabled() bool {
	return g.key != ""
}

// NormalizeKey trims surrounding whitespace and one matching pair of quote
// characters, tolerating common .env formatting mistakes.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 2 {
		first, last := key[0], key[len(key)-1]
		if first == last && (first == '"' || first == '\'') {
			key = key[1 : len(key)-1]
		}
	}
	return key
}

// Middleware wraps a handler and rejects requests whose key does not pass the
// guard. Rejections carry a short JSON body, matching the rest of the API.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authorized(r.Header.Get(HeaderName)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
