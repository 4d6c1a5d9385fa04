// Package env reads process environment variables with fallbacks. Structured
// configuration lives in pkg/config; this covers the handful of knobs read
// before config is loaded, such as the log format.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
