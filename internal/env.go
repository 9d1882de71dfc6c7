package internal

import (
	"log"
	"os"
	"strconv"
)

// EnvString returns the value of key, or def when it is unset or empty.
func EnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt returns the integer value of key, or def when it is unset or not a number.
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}

// EnvInt64 is EnvInt for 64-bit values.
func EnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}

// EnvBool returns the boolean value of key, or def when it is unset or not a boolean.
func EnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return def
	}
	return b
}
