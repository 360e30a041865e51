package env

import (
	"fmt"
	"os"
	"strconv"
)

// Bool reads a boolean environment variable, treating the literal "true" as
// true and anything else as false. The default is returned when the variable
// is unset or empty.
func Bool(env string, defaultValue bool) bool {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	return os.Getenv(env) == "true"
}

// Int reads an integer environment variable, falling back to the default on
// absence or parse failure.
func Int(env string, defaultValue int) int {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	num, err := strconv.Atoi(os.Getenv(env))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %s: %s, using default value: %d\n", env, err.Error(), defaultValue)
		return defaultValue
	}
	return num
}

// Int64 reads a 64-bit integer environment variable, falling back to the
// default on absence or parse failure.
func Int64(env string, defaultValue int64) int64 {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	num, err := strconv.ParseInt(os.Getenv(env), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %s: %s, using default value: %d\n", env, err.Error(), defaultValue)
		return defaultValue
	}
	return num
}

// Float64 reads a float environment variable, falling back to the default on
// absence or parse failure.
func Float64(env string, defaultValue float64) float64 {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	num, err := strconv.ParseFloat(os.Getenv(env), 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %s: %s, using default value: %f\n", env, err.Error(), defaultValue)
		return defaultValue
	}
	return num
}

// String reads a string environment variable, falling back to the default
// when unset or empty.
func String(env string, defaultValue string) string {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	return os.Getenv(env)
}
