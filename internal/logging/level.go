package logging

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Level is a severity threshold. Ordering follows zerolog:
// DEBUG < INFO < WARNING < ERROR < CRITICAL.
type Level = zerolog.Level

const (
	LevelDebug    = zerolog.DebugLevel
	LevelInfo     = zerolog.InfoLevel
	LevelWarning  = zerolog.WarnLevel
	LevelError    = zerolog.ErrorLevel
	LevelCritical = zerolog.FatalLevel
)

// ParseLevel maps a severity name to a Level.
// "WARN" is accepted as an alias for "WARNING".
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return LevelDebug, &ConfigError{Detail: fmt.Sprintf("unrecognized severity %q", s)}
	}
}

// LevelName renders a Level using the configuration vocabulary.
func LevelName(l Level) string {
	switch {
	case l <= LevelDebug:
		return "DEBUG"
	case l == LevelInfo:
		return "INFO"
	case l == LevelWarning:
		return "WARNING"
	case l == LevelError:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}
