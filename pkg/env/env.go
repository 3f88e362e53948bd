package env

import "os"

// Get reads key from the process environment. Unset or empty values fall
// back to the provided default.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
