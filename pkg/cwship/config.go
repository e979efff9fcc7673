package cwship

import (
	"strings"
	"time"

	"github.com/bft-labs/cwship/internal/app"
	"github.com/bft-labs/cwship/internal/domain"
)

// Configuration bounds and defaults.
const (
	DefaultFlushIntervalSeconds = 120
	MinFlushIntervalSeconds     = 60
	MaxFlushIntervalSeconds     = 1800

	DefaultMaxBatchBytes = 200000

	// MaxBatchBytes must be strictly between these bounds.
	MinMaxBatchBytesExclusive = 5000
	MaxMaxBatchBytesExclusive = domain.MaxPutBytes

	FormatString = "string"
	FormatJSON   = "json"

	PolicyIsolate = "isolate"
	PolicyAbort   = "abort"
)

// Config holds the settings of a Shipper.
// Use DefaultConfig() for a Config with default values. Invalid values are
// never an error: Sanitize replaces each with its default.
type Config struct {
	// LogGroup is the remote group every stream is written to.
	LogGroup string `json:"log_group" toml:"log_group"`

	// FlushIntervalSeconds is the timer period between flush cycles.
	// Valid range: 60 to 1800. Default: 120
	FlushIntervalSeconds int `json:"flush_interval_seconds" toml:"flush_interval_seconds"`

	// MaxBatchBytes is the size limit the flush threshold derives from.
	// Valid range: 5001 to 1048575. Default: 200000
	MaxBatchBytes int `json:"max_batch_bytes" toml:"max_batch_bytes"`

	// Format is "string" or "json". Default: "string"
	Format string `json:"format" toml:"format"`

	// AddTimestamp prefixes (string) or annotates (json) each record with
	// the time it was logged.
	AddTimestamp bool `json:"add_timestamp" toml:"add_timestamp"`

	// AddInstanceID prefixes (string) or annotates (json) each record with
	// the host instance identifier.
	AddInstanceID bool `json:"add_instance_id" toml:"add_instance_id"`

	// Debug enables per-append and per-step debug events on the logger.
	Debug bool `json:"debug" toml:"debug"`

	// FailurePolicy is "isolate" or "abort". Default: "isolate"
	FailurePolicy string `json:"failure_policy" toml:"failure_policy"`

	// StatusDir, when set, is where status.json is written after each cycle.
	StatusDir string `json:"status_dir" toml:"status_dir"`
}

// DefaultConfig returns a Config with default values and no log group.
func DefaultConfig() Config {
	return Config{
		FlushIntervalSeconds: DefaultFlushIntervalSeconds,
		MaxBatchBytes:        DefaultMaxBatchBytes,
		Format:               FormatString,
		FailurePolicy:        PolicyIsolate,
	}
}

// Sanitize returns a copy of c with every out-of-range or unknown value
// replaced by its default.
func (c Config) Sanitize() Config {
	if c.FlushIntervalSeconds < MinFlushIntervalSeconds || c.FlushIntervalSeconds > MaxFlushIntervalSeconds {
		c.FlushIntervalSeconds = DefaultFlushIntervalSeconds
	}
	if c.MaxBatchBytes <= MinMaxBatchBytesExclusive || c.MaxBatchBytes >= MaxMaxBatchBytesExclusive {
		c.MaxBatchBytes = DefaultMaxBatchBytes
	}
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case FormatJSON:
		c.Format = FormatJSON
	default:
		c.Format = FormatString
	}
	switch strings.ToLower(strings.TrimSpace(c.FailurePolicy)) {
	case PolicyAbort:
		c.FailurePolicy = PolicyAbort
	default:
		c.FailurePolicy = PolicyIsolate
	}
	return c
}

// FlushInterval returns the flush interval as a duration.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalSeconds) * time.Second
}

func (c Config) engineConfig() app.ShipperConfig {
	return app.ShipperConfig{
		LogGroup:      c.LogGroup,
		FlushInterval: c.FlushInterval(),
		MaxBatchBytes: c.MaxBatchBytes,
		Formatter: app.FormatterConfig{
			Format:        app.ParseFormat(c.Format),
			AddTimestamp:  c.AddTimestamp,
			AddInstanceID: c.AddInstanceID,
		},
		Policy:            app.ParseFailurePolicy(c.FailurePolicy),
		MaxRestoreRecords: domain.MaxPutRecords,
		Debug:             c.Debug,
	}
}
