package utils

import (
	"os"
	"strings"
	"time"
)

// SafeEnv returns the environment variable value for key, or fallback if empty.
func SafeEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// EnvDuration parses key as a time.Duration ("90m", "2h"). Invalid or
// non-positive values return fallback.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(SafeEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
