package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CWSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("log-group", os.Getenv("CWSHIP_LOG_GROUP"), &cfg.LogGroup)
	s.setString("stream", os.Getenv("CWSHIP_STREAM"), &cfg.Stream)
	s.setListFromString("tail", os.Getenv("CWSHIP_TAIL"), &cfg.Tail)
	s.setString("format", os.Getenv("CWSHIP_FORMAT"), &cfg.Format)
	s.setString("failure-policy", os.Getenv("CWSHIP_FAILURE_POLICY"), &cfg.FailurePolicy)
	s.setString("status-dir", os.Getenv("CWSHIP_STATUS_DIR"), &cfg.StatusDir)
	s.setString("region", os.Getenv("CWSHIP_REGION"), &cfg.Region)
	s.setString("profile", os.Getenv("CWSHIP_PROFILE"), &cfg.Profile)
	s.setString("endpoint", os.Getenv("CWSHIP_ENDPOINT"), &cfg.Endpoint)

	if err := s.setDuration("flush-interval", os.Getenv("CWSHIP_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setIntFromString("max-batch-bytes", os.Getenv("CWSHIP_MAX_BATCH_BYTES"), &cfg.MaxBatchBytes); err != nil {
		return err
	}

	s.setBoolFromString("from-start", os.Getenv("CWSHIP_FROM_START"), &cfg.FromStart)
	s.setBoolFromString("add-timestamp", os.Getenv("CWSHIP_ADD_TIMESTAMP"), &cfg.AddTimestamp)
	s.setBoolFromString("add-instance-id", os.Getenv("CWSHIP_ADD_INSTANCE_ID"), &cfg.AddInstanceID)
	s.setBoolFromString("debug", os.Getenv("CWSHIP_DEBUG"), &cfg.Debug)
	s.setBoolFromString("dry-run", os.Getenv("CWSHIP_DRY_RUN"), &cfg.DryRun)

	return nil
}
