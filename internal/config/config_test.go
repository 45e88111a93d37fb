package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
`

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "bot.yaml", minimalYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Santa.MinParticipants != DefaultMinParticipants {
		t.Errorf("MinParticipants = %d, want %d", cfg.Santa.MinParticipants, DefaultMinParticipants)
	}
	if cfg.Santa.TimeoutHours != DefaultTimeoutHours {
		t.Errorf("TimeoutHours = %d, want %d", cfg.Santa.TimeoutHours, DefaultTimeoutHours)
	}
	if cfg.Storage == nil || cfg.Storage.Path != DefaultStoragePath {
		t.Errorf("Storage = %+v, want default path %q", cfg.Storage, DefaultStoragePath)
	}
	if m.Get() != cfg {
		t.Error("Get did not return committed config")
	}
}

func TestParseRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "telegram:\n  token: x\n  chat_token: y\n", "unknown field"},
		{"missing token", "telegram:\n  admins: [1]\n", "token"},
		{"min participants too low", "telegram:\n  token: x\nsanta:\n  min_participants: 1\n", "min_participants"},
		{"bad poll timeout", "telegram:\n  token: x\n  poll_timeout: sideways\n", "poll_timeout"},
		{"bad busy timeout", "telegram:\n  token: x\nstorage:\n  busy_timeout: never\n", "busy_timeout"},
		{"negative rate", "telegram:\n  token: x\n  rate_per_sec: -1\n", "rate_per_sec"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := NewManager(writeConfig(t, "bot.yaml", tc.body))
			_, err := m.Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestParseAcceptsJSON(t *testing.T) {
	t.Parallel()
	body := `{"telegram": {"token": "123:abc", "admins": [7, 8]}, "santa": {"min_participants": 6}}`
	m := NewManager(writeConfig(t, "bot.json", body))
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Santa.MinParticipants != 6 {
		t.Errorf("MinParticipants = %d, want 6", cfg.Santa.MinParticipants)
	}
	if !cfg.IsAdmin(7) || !cfg.IsAdmin(8) || cfg.IsAdmin(9) {
		t.Error("IsAdmin does not match configured admins")
	}
}

func TestParseLoggingSection(t *testing.T) {
	t.Parallel()
	body := minimalYAML + `
logging:
  version: 1
  formatters:
    standard:
      format: "{time} {level} {message}"
  handlers:
    console:
      class: console
      level: DEBUG
      formatter: standard
      stream: stdout
  loggers:
    "":
      level: INFO
      handlers: [console]
`
	m := NewManager(writeConfig(t, "bot.yaml", body))
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Logging == nil {
		t.Fatal("logging section not decoded")
	}
	lc := cfg.LoggingConfig()
	if len(lc.Handlers) != 1 {
		t.Fatalf("handlers = %d, want 1", len(lc.Handlers))
	}
}

func TestParseRejectsInvalidLoggingSection(t *testing.T) {
	t.Parallel()
	body := minimalYAML + `
logging:
  version: 2
  loggers:
    "":
      level: INFO
`
	m := NewManager(writeConfig(t, "bot.yaml", body))
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected error for unsupported logging version")
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()

	oldCfg := &Config{
		Telegram: TelegramConfig{Token: "x", Admins: []int64{1}},
		Santa:    SantaConfig{MinParticipants: 4, TimeoutHours: 72},
	}
	newCfg := &Config{
		Telegram: TelegramConfig{Token: "x", Admins: []int64{1}},
		Santa:    SantaConfig{MinParticipants: 6, TimeoutHours: 72},
		Storage:  &StorageConfig{Driver: "file", Path: "p"},
	}

	changed, _ := SummarizeChange(oldCfg, newCfg)
	want := []string{"santa", "storage"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
	}

	if changed, _ := SummarizeChange(oldCfg, oldCfg); len(changed) != 0 {
		t.Fatalf("no-op change reported sections: %v", changed)
	}
}
