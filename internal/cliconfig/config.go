package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/dropship/internal/codec"
	"github.com/bft-labs/dropship/internal/domain"
)

// Config holds CLI configuration for dropship.
type Config struct {
	// Sender side
	Host        string
	DialTimeout time.Duration
	WatchDir    string
	Debounce    time.Duration
	RetryMax    int

	// Receiver side
	SaveDir         string
	PollTimeout     time.Duration
	ConsumeInterval time.Duration
	Exec            string

	Port      int
	ChunkSize int
	Debug     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		DialTimeout:     10 * time.Second,
		Debounce:        250 * time.Millisecond,
		RetryMax:        5,
		SaveDir:         "received_files",
		PollTimeout:     100 * time.Millisecond,
		ConsumeInterval: 100 * time.Millisecond,
		Port:            domain.DefaultPort,
		ChunkSize:       codec.ChunkSize,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, c.Port)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidConfig)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("%w: poll timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.ConsumeInterval <= 0 {
		return fmt.Errorf("%w: consume interval must be positive", domain.ErrInvalidConfig)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("%w: debounce must be positive", domain.ErrInvalidConfig)
	}
	if c.RetryMax <= 0 {
		return fmt.Errorf("%w: retry max must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// ValidateSend additionally checks what the send command needs.
func (c *Config) ValidateSend() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", domain.ErrInvalidConfig)
	}
	if c.Port == 0 {
		return fmt.Errorf("%w: port is required", domain.ErrInvalidConfig)
	}
	return nil
}

// ValidateReceive additionally checks what the receive command needs.
func (c *Config) ValidateReceive() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SaveDir == "" {
		return fmt.Errorf("%w: save-dir is required", domain.ErrInvalidConfig)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
