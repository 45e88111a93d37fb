package logging

import (
	"errors"
	"testing"
)

func TestValidateDefault(t *testing.T) {
	t.Parallel()
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"undeclared handler", func(c *Config) {
			c.Loggers["draft"] = LoggerConfig{Level: "INFO", Handlers: []string{"nope"}}
		}},
		{"undeclared formatter", func(c *Config) {
			h := c.Handlers["console"]
			h.Formatter = "nope"
			c.Handlers["console"] = h
		}},
		{"bad severity on logger", func(c *Config) {
			c.Loggers["telegram"] = LoggerConfig{Level: "LOUD"}
		}},
		{"bad severity on handler", func(c *Config) {
			h := c.Handlers["file"]
			h.Level = "NOISY"
			c.Handlers["file"] = h
		}},
		{"unknown handler class", func(c *Config) {
			h := c.Handlers["console"]
			h.Class = "syslog"
			c.Handlers["console"] = h
		}},
		{"unknown stream", func(c *Config) {
			h := c.Handlers["console"]
			h.Stream = "stdmid"
			c.Handlers["console"] = h
		}},
		{"file without filename", func(c *Config) {
			h := c.Handlers["file"]
			h.Filename = ""
			c.Handlers["file"] = h
		}},
		{"unsupported encoding", func(c *Config) {
			h := c.Handlers["file"]
			h.Encoding = "latin-1"
			c.Handlers["file"] = h
		}},
		{"missing root", func(c *Config) {
			delete(c.Loggers, "")
		}},
		{"unknown placeholder", func(c *Config) {
			c.Formatters["short"] = FormatterConfig{Format: "{whenever} {message}"}
		}},
		{"wrong version", func(c *Config) {
			c.Version = 2
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error is %T, want *ConfigError", err)
			}
		})
	}
}

func TestParseLevelOrdering(t *testing.T) {
	t.Parallel()
	names := []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}
	var prev Level
	for i, n := range names {
		lvl, err := ParseLevel(n)
		if err != nil {
			t.Fatalf("ParseLevel(%s): %v", n, err)
		}
		if i > 0 && lvl <= prev {
			t.Fatalf("severity order broken at %s", n)
		}
		if LevelName(lvl) != n {
			t.Fatalf("LevelName round-trip: got %s want %s", LevelName(lvl), n)
		}
		prev = lvl
	}

	if lvl, err := ParseLevel("warn"); err != nil || lvl != LevelWarning {
		t.Fatalf("WARN alias not accepted: %v", err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}
