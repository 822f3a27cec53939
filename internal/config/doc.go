// Package config handles configuration loading for tripquote-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and demo-friendly defaults: with no config
// file at all, the server binds localhost with auth disabled.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TRIPQUOTE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/tripquote/gateway.yaml
//  3. ~/.config/tripquote/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  api_key: "${TRIPQUOTE_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	sse:
//	  heartbeat_interval: "25s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "127.0.0.1:8080"            # listen address
//	  public_url: "http://127.0.0.1:8080"    # base URL clients are told to POST to
//
// Authentication:
//
//	auth:
//	  api_key: "${TRIPQUOTE_API_KEY}"  # empty disables auth (local demo default)
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// # Usage
//
// Load configuration from a specific path:
//
//	cfg, err := config.Load("/etc/tripquote/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or start from the built-in defaults:
//
//	cfg := config.Default()
package config
