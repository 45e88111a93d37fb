package config

import (
	"errors"
	"fmt"
	"strings"

	"santabot/internal/logging"
	"santabot/internal/storage"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Santa    SantaConfig    `json:"santa"`
	Storage  *StorageConfig `json:"storage,omitempty"`

	// Logging is the declarative logging document. If omitted the stock
	// configuration (console + rotating file) is used.
	Logging *logging.Config `json:"logging,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// Admins may act on any session and are exempt from the
	// exit_unknown_groups policy when adding the bot to a chat.
	Admins []int64 `json:"admins,omitempty"`

	// LogChat mirrors handler errors to an operator chat. 0 disables it.
	LogChat int64 `json:"log_chat,omitempty"`

	// ExitUnknownGroups makes the bot leave any group it is added to by a
	// non-admin user.
	ExitUnknownGroups bool `json:"exit_unknown_groups,omitempty"`

	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`

	// RatePerSec caps outbound API calls. 0 means the built-in default.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type SantaConfig struct {
	// MinParticipants is the smallest group a draw may run with.
	MinParticipants int `json:"min_participants,omitempty"`

	// TimeoutHours closes sessions untouched for this long. 0 disables
	// expiry.
	TimeoutHours int `json:"timeout,omitempty"`
}

type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

const (
	DefaultMinParticipants = 4
	DefaultTimeoutHours    = 72
	DefaultStoragePath     = "data/santabot.db"
)

// ApplyDefaults fills in unset fields. Called after Parse and before
// Validate so validation sees the effective configuration.
func (c *Config) ApplyDefaults() {
	if c.Santa.MinParticipants == 0 {
		c.Santa.MinParticipants = DefaultMinParticipants
	}
	if c.Santa.TimeoutHours == 0 {
		c.Santa.TimeoutHours = DefaultTimeoutHours
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = DefaultStoragePath
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if c.Telegram.RatePerSec < 0 {
		return errors.New("telegram.rate_per_sec must be >= 0")
	}
	if c.Santa.MinParticipants < 2 {
		return fmt.Errorf("santa.min_participants must be >= 2, got %d", c.Santa.MinParticipants)
	}
	if c.Santa.TimeoutHours < 0 {
		return errors.New("santa.timeout must be >= 0")
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoggingConfig returns the effective logging document.
func (c *Config) LoggingConfig() logging.Config {
	if c.Logging != nil {
		return *c.Logging
	}
	return logging.Default()
}

// StorageConfig returns the effective storage settings.
func (c *Config) StorageConfig() (storage.Config, error) {
	sc := storage.Config{}
	if c.Storage == nil {
		sc.Path = DefaultStoragePath
		return sc, nil
	}
	sc.Driver = c.Storage.Driver
	sc.Path = c.Storage.Path
	d, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
	if err != nil {
		return sc, err
	}
	sc.BusyTimeout = d
	return sc, nil
}

// IsAdmin reports whether a user is in the configured admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
