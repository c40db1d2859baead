package utils

import "os"

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvBool reads a boolean environment variable ("true"/"1" means true).
func GetenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	switch value {
	case "":
		return fallback
	case "true", "TRUE", "1":
		return true
	default:
		return false
	}
}
