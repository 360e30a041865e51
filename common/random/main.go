package random

import (
	"strings"

	"github.com/google/uuid"
)

// GetUUID generates a UUID and returns it as a string without hyphens.
// It uses github.com/google/uuid for UUID generation.
func GetUUID() string {
	code := uuid.New().String()
	code = strings.Replace(code, "-", "", -1)
	return code
}

// GetStreamID returns a short identifier used to correlate all log lines,
// metrics and diagnostics produced by one stream.
func GetStreamID() string {
	return GetUUID()[:12]
}
