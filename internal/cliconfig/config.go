package cliconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/cwship/pkg/cwship"
)

// Config holds CLI configuration for cwship.
type Config struct {
	LogGroup string

	// Stream receives lines read from stdin. Empty disables stdin.
	Stream string

	// Tail entries have the form "stream=path".
	Tail      []string
	FromStart bool

	FlushInterval time.Duration
	MaxBatchBytes int
	Format        string
	AddTimestamp  bool
	AddInstanceID bool
	FailurePolicy string
	StatusDir     string
	Debug         bool

	Region   string
	Profile  string
	Endpoint string
	DryRun   bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FlushInterval: cwship.DefaultFlushIntervalSeconds * time.Second,
		MaxBatchBytes: cwship.DefaultMaxBatchBytes,
		Format:        cwship.FormatString,
		FailurePolicy: cwship.PolicyIsolate,
	}
}

// Validate checks the configuration for errors.
// Out-of-range shipper settings are not errors; the library replaces them
// with defaults.
func (c *Config) Validate() error {
	if c.LogGroup == "" {
		return errors.New("log-group is required")
	}
	if c.Stream == "" && len(c.Tail) == 0 {
		return errors.New("stream or at least one tail is required")
	}
	if _, err := c.TailFiles(); err != nil {
		return err
	}
	return nil
}

// TailFiles parses the tail entries into a stream to path map.
func (c *Config) TailFiles() (map[string]string, error) {
	files := make(map[string]string, len(c.Tail))
	for _, entry := range c.Tail {
		stream, path, ok := strings.Cut(entry, "=")
		stream = strings.TrimSpace(stream)
		path = strings.TrimSpace(path)
		if !ok || stream == "" || path == "" {
			return nil, fmt.Errorf("invalid tail %q: want stream=path", entry)
		}
		if prev, dup := files[stream]; dup && prev != path {
			return nil, fmt.Errorf("stream %q tails both %s and %s", stream, prev, path)
		}
		files[stream] = path
	}
	return files, nil
}

// ShipperConfig converts the CLI configuration into the library's Config.
func (c *Config) ShipperConfig() cwship.Config {
	return cwship.Config{
		LogGroup:             c.LogGroup,
		FlushIntervalSeconds: int(c.FlushInterval / time.Second),
		MaxBatchBytes:        c.MaxBatchBytes,
		Format:               c.Format,
		AddTimestamp:         c.AddTimestamp,
		AddInstanceID:        c.AddInstanceID,
		Debug:                c.Debug,
		FailurePolicy:        c.FailurePolicy,
		StatusDir:            c.StatusDir,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
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

// setStrings sets a list value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
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

// setListFromString splits a comma-separated string and sets the destination.
func (s *configSetter) setListFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
