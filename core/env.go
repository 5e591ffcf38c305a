package core

import (
	"strconv"
	"strings"
)

// EnvString returns the first non-empty value among keys, or def.
func EnvString(getenv func(string) string, def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
	}
	return def
}

// EnvFloat parses key as a float, returning def when unset or malformed.
func EnvFloat(getenv func(string) string, key string, def float64) float64 {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// EnvInt parses key as a positive int, returning def when unset or malformed.
func EnvInt(getenv func(string) string, key string, def int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
