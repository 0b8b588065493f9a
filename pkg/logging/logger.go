// Package logging builds the hclog loggers used across speexpkg.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// NewLogger creates an hclog logger with the project's standard settings.
// SPEEXPKG_JSON_LOG=1 switches to JSON output; otherwise each line gets
// the 📦 prefix so recipe output is easy to spot among build-tool noise.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv("SPEEXPKG_JSON_LOG") == "1"
	if !jsonFormat {
		output = NewPrefixWriter("📦 ", output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// GetLogLevel returns the log level configured in the environment,
// defaulting to info.
func GetLogLevel() string {
	level := os.Getenv("SPEEXPKG_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return level
}
