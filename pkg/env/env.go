package env

import "os"

// First returns the value of the first non-empty variable in keys, or
// fallback when none are set. Keys are checked in order so the HATCHERY_
// name wins over a legacy alias.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return fallback
}
