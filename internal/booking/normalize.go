// ABOUTME: City-name-to-airport-code normalization for flight quoting.
// ABOUTME: Known cities map to real codes; anything else gets a deterministic pseudo-code.

package booking

import (
	"strings"
	"unicode"
)

// cityCodes maps lowercase city names to their primary airport code.
var cityCodes = map[string]string{
	"new york":      "JFK",
	"san francisco": "SFO",
	"los angeles":   "LAX",
	"chicago":       "ORD",
	"seattle":       "SEA",
	"boston":        "BOS",
	"miami":         "MIA",
	"denver":        "DEN",
	"austin":        "AUS",
	"las vegas":     "LAS",
	"washington":    "IAD",
	"london":        "LHR",
	"paris":         "CDG",
	"berlin":        "BER",
	"madrid":        "MAD",
	"rome":          "FCO",
	"amsterdam":     "AMS",
	"tokyo":         "HND",
	"sydney":        "SYD",
	"dubai":         "DXB",
	"singapore":     "SIN",
}

// NormalizePlace turns user input into a 3-letter airport code. A 3-letter
// alphabetic input passes through uppercased; a known city name resolves via
// the table; anything else becomes a deterministic pseudo-code built from the
// input's letters, padded with 'X' to 3 characters.
func NormalizePlace(input string) string {
	trimmed := strings.TrimSpace(input)

	if len(trimmed) == 3 && isAlpha(trimmed) {
		return strings.ToUpper(trimmed)
	}

	if code, ok := cityCodes[strings.ToLower(trimmed)]; ok {
		return code
	}

	var letters []rune
	for _, r := range strings.ToUpper(trimmed) {
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
			if len(letters) == 3 {
				break
			}
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
