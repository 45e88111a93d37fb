package logging

import (
	"fmt"
	"strings"
)

// ConfigError reports an internally inconsistent logging configuration
// (dangling reference, unknown severity/class/stream/placeholder).
// It is fatal at startup: the process must not run with an unvalidated
// logging state.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string { return "logging config: " + e.Detail }

func cfgErrf(format string, args ...any) *ConfigError {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}

// Config is the declarative logging document.
//
// Sections mirror the on-disk format:
//
//	version: 1
//	disable_existing_loggers: false
//	formatters:
//	  short:    {format: "{time} {level}: {message}"}
//	handlers:
//	  console:  {class: console, level: DEBUG, formatter: short, stream: stdout}
//	  file:     {class: file, level: DEBUG, formatter: standard,
//	             filename: logs/bot.log, max_bytes: 1048576, backup_count: 25,
//	             encoding: utf-8}
//	loggers:
//	  "":       {level: DEBUG, handlers: [console, file]}
//	  telegram: {level: WARNING}
type Config struct {
	Version                int                        `json:"version" yaml:"version"`
	DisableExistingLoggers bool                       `json:"disable_existing_loggers,omitempty" yaml:"disable_existing_loggers,omitempty"`
	Formatters             map[string]FormatterConfig `json:"formatters" yaml:"formatters"`
	Handlers               map[string]HandlerConfig   `json:"handlers" yaml:"handlers"`
	Loggers                map[string]LoggerConfig    `json:"loggers" yaml:"loggers"`
}

type FormatterConfig struct {
	Format string `json:"format" yaml:"format"`
}

// HandlerConfig describes one sink.
//
// Class "console" uses Stream ("stdout" or "stderr", default stdout).
// Class "file" uses Filename/MaxBytes/BackupCount/Encoding; MaxBytes 0
// disables rotation, BackupCount 0 truncates on rollover instead of
// keeping archives.
type HandlerConfig struct {
	Class     string `json:"class" yaml:"class"`
	Level     string `json:"level" yaml:"level"`
	Formatter string `json:"formatter" yaml:"formatter"`

	Stream string `json:"stream,omitempty" yaml:"stream,omitempty"`

	Filename    string `json:"filename,omitempty" yaml:"filename,omitempty"`
	MaxBytes    int64  `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty"`
	BackupCount int    `json:"backup_count,omitempty" yaml:"backup_count,omitempty"`
	Encoding    string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// LoggerConfig describes one channel. The empty name denotes the root.
// Propagate defaults to true when omitted.
type LoggerConfig struct {
	Level     string   `json:"level" yaml:"level"`
	Handlers  []string `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	Propagate *bool    `json:"propagate,omitempty" yaml:"propagate,omitempty"`
}

func (lc LoggerConfig) propagate() bool { return lc.Propagate == nil || *lc.Propagate }

// Default returns the stock configuration: everything DEBUG-and-above to
// console and a rotating logs/bot.log, with noisy subsystems raised to
// WARNING and the pairing engine kept at INFO.
func Default() Config {
	return Config{
		Version: 1,
		Formatters: map[string]FormatterConfig{
			"short":    {Format: "{time} {level}: {message}"},
			"standard": {Format: "{time} [{logger}] {caller} {level}: {message} {fields}"},
		},
		Handlers: map[string]HandlerConfig{
			"console": {Class: "console", Level: "DEBUG", Formatter: "short", Stream: "stdout"},
			"file": {
				Class:       "file",
				Level:       "DEBUG",
				Formatter:   "standard",
				Filename:    "logs/bot.log",
				MaxBytes:    1 << 20,
				BackupCount: 25,
				Encoding:    "utf-8",
			},
		},
		Loggers: map[string]LoggerConfig{
			"":          {Level: "DEBUG", Handlers: []string{"console", "file"}},
			"telegram":  {Level: "WARNING"},
			"scheduler": {Level: "WARNING"},
			"mwt":       {Level: "WARNING"},
			"draft":     {Level: "INFO"},
		},
	}
}

// Validate checks referential integrity and the value domains of every
// section. It returns a *ConfigError on the first inconsistency found.
func (c Config) Validate() error {
	if c.Version != 1 {
		return cfgErrf("unsupported version %d (want 1)", c.Version)
	}
	if len(c.Handlers) == 0 {
		return cfgErrf("no handlers declared")
	}

	for name, fc := range c.Formatters {
		if strings.TrimSpace(fc.Format) == "" {
			return cfgErrf("formatter %q: empty format", name)
		}
		if _, err := compileTemplate(fc.Format); err != nil {
			return cfgErrf("formatter %q: %v", name, err)
		}
	}

	for name, hc := range c.Handlers {
		if _, err := ParseLevel(hc.Level); err != nil {
			return cfgErrf("handler %q: %v", name, err)
		}
		if _, ok := c.Formatters[hc.Formatter]; !ok {
			return cfgErrf("handler %q references undeclared formatter %q", name, hc.Formatter)
		}
		switch strings.ToLower(strings.TrimSpace(hc.Class)) {
		case "console":
			switch strings.ToLower(strings.TrimSpace(hc.Stream)) {
			case "", "stdout", "stderr":
			default:
				return cfgErrf("handler %q: unknown stream %q", name, hc.Stream)
			}
		case "file":
			if strings.TrimSpace(hc.Filename) == "" {
				return cfgErrf("handler %q: filename is required", name)
			}
			if hc.MaxBytes < 0 {
				return cfgErrf("handler %q: max_bytes must be >= 0", name)
			}
			if hc.BackupCount < 0 {
				return cfgErrf("handler %q: backup_count must be >= 0", name)
			}
			switch strings.ToLower(strings.TrimSpace(hc.Encoding)) {
			case "", "utf8", "utf-8":
			default:
				return cfgErrf("handler %q: unsupported encoding %q", name, hc.Encoding)
			}
		default:
			return cfgErrf("handler %q: unknown class %q", name, hc.Class)
		}
	}

	root, hasRoot := c.Loggers[""]
	if !hasRoot {
		return cfgErrf("root logger (\"\") is not declared")
	}
	if len(root.Handlers) == 0 {
		return cfgErrf("root logger declares no handlers")
	}

	for name, lc := range c.Loggers {
		if _, err := ParseLevel(lc.Level); err != nil {
			return cfgErrf("logger %q: %v", name, err)
		}
		for _, h := range lc.Handlers {
			if _, ok := c.Handlers[h]; !ok {
				return cfgErrf("logger %q references undeclared handler %q", name, h)
			}
		}
	}
	return nil
}
