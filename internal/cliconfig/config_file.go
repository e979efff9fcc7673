package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	LogGroup      string   `toml:"log_group"`
	Stream        string   `toml:"stream"`
	Tail          []string `toml:"tail"`
	FromStart     *bool    `toml:"from_start"`
	FlushInterval string   `toml:"flush_interval"`
	MaxBatchBytes int      `toml:"max_batch_bytes"`
	Format        string   `toml:"format"`
	AddTimestamp  *bool    `toml:"add_timestamp"`
	AddInstanceID *bool    `toml:"add_instance_id"`
	FailurePolicy string   `toml:"failure_policy"`
	StatusDir     string   `toml:"status_dir"`
	Debug         *bool    `toml:"debug"`
	Region        string   `toml:"region"`
	Profile       string   `toml:"profile"`
	Endpoint      string   `toml:"endpoint"`
	DryRun        *bool    `toml:"dry_run"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.cwship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".cwship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-group", fc.LogGroup, &cfg.LogGroup)
	s.setString("stream", fc.Stream, &cfg.Stream)
	s.setStrings("tail", fc.Tail, &cfg.Tail)
	s.setString("format", fc.Format, &cfg.Format)
	s.setString("failure-policy", fc.FailurePolicy, &cfg.FailurePolicy)
	s.setString("status-dir", fc.StatusDir, &cfg.StatusDir)
	s.setString("region", fc.Region, &cfg.Region)
	s.setString("profile", fc.Profile, &cfg.Profile)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)

	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}

	s.setInt("max-batch-bytes", fc.MaxBatchBytes, &cfg.MaxBatchBytes)

	s.setBool("from-start", fc.FromStart, &cfg.FromStart)
	s.setBool("add-timestamp", fc.AddTimestamp, &cfg.AddTimestamp)
	s.setBool("add-instance-id", fc.AddInstanceID, &cfg.AddInstanceID)
	s.setBool("debug", fc.Debug, &cfg.Debug)
	s.setBool("dry-run", fc.DryRun, &cfg.DryRun)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
