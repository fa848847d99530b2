// Package observability provides the structured logger the check
// pipeline reports progress and warnings through.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/bkyoung/covcheck/internal/adapter/artifact"
)

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseFormat maps a config string to a LogFormat, defaulting to human.
func ParseFormat(s string) LogFormat {
	if strings.EqualFold(s, "json") {
		return LogFormatJSON
	}
	return LogFormatHuman
}

// Logger writes leveled, structured log lines in human or JSON format.
// Artifact URLs in messages have credential parameters redacted before
// they reach a log aggregator.
type Logger struct {
	level        LogLevel
	format       LogFormat
	redactTokens bool
}

// NewLogger creates a logger with the specified config.
func NewLogger(level LogLevel, format LogFormat, redactTokens bool) *Logger {
	return &Logger{level: level, format: format, redactTokens: redactTokens}
}

// LogDebug logs a debug message with structured fields.
func (l *Logger) LogDebug(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelDebug {
		return
	}
	l.emit("debug", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *Logger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("info", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *Logger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("warning", message, fields)
}

// LogError logs an error message with structured fields.
func (l *Logger) LogError(ctx context.Context, message string, fields map[string]interface{}) {
	l.emit("error", message, fields)
}

func (l *Logger) emit(level, message string, fields map[string]interface{}) {
	if l.redactTokens {
		message = artifact.RedactURLSecrets(message)
	}

	if l.format == LogFormatJSON {
		payload := map[string]interface{}{"level": level, "message": message}
		for key, value := range fields {
			payload[key] = value
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			log.Printf(`{"level":"error","message":"marshal log payload: %v"}`, err)
			return
		}
		log.Printf("%s", encoded)
		return
	}

	log.Printf("[%s] %s%s", strings.ToUpper(level), message, formatFields(fields))
}

// formatFields renders fields deterministically for the human format.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(" (")
	for i, key := range keys {
		if i > 0 {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "%s=%v", key, fields[key])
	}
	builder.WriteString(")")
	return builder.String()
}
