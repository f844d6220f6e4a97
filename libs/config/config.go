package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func String(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func RequiredString(key string) (string, error) {
	v := String(key, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func Port(key, fallback string) (string, error) {
	v := String(key, fallback)
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return v, nil
}

// Int parses a positive integer, failing loudly on garbage instead of silently using the fallback.
func Int(key string, fallback int) (int, error) {
	v := String(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer (got %q)", key, v)
	}
	return n, nil
}

// Duration accepts Go duration syntax, e.g. 30s or 5m.
func Duration(key string, fallback time.Duration) (time.Duration, error) {
	v := String(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration (got %q)", key, v)
	}
	return d, nil
}

func Bool(key string, fallback bool) bool {
	v := strings.ToLower(String(key, ""))
	switch v {
	case "":
		return fallback
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// List splits a comma separated variable, dropping blanks.
func List(key string) []string {
	var out []string
	for _, part := range strings.Split(String(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Location loads the reference time zone used for calendar math.
func Location(key, fallback string) (*time.Location, error) {
	name := String(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: unknown time zone %q: %w", key, name, err)
	}
	return loc, nil
}
