package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				LogGroup:      "app",
				Stream:        "web",
				FlushInterval: "5m",
				MaxBatchBytes: 100000,
				AddTimestamp:  &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				LogGroup:      "app",
				Stream:        "web",
				FlushInterval: 5 * time.Minute,
				MaxBatchBytes: 100000,
				AddTimestamp:  true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				LogGroup: "file-group",
				Stream:   "file-stream",
			},
			changed: map[string]bool{"log-group": true},
			initial: Config{
				LogGroup: "flag-group",
				Stream:   "flag-stream",
			},
			expected: Config{
				LogGroup: "flag-group", // unchanged because flag was set
				Stream:   "file-stream",
			},
			wantErr: false,
		},
		{
			name: "handles all field types correctly",
			fileConfig: FileConfig{
				LogGroup:      "app",
				Stream:        "web",
				Tail:          []string{"db=/var/log/db.log"},
				FromStart:     &trueVal,
				FlushInterval: "90s",
				MaxBatchBytes: 50000,
				Format:        "json",
				AddTimestamp:  &falseVal,
				AddInstanceID: &trueVal,
				FailurePolicy: "abort",
				StatusDir:     "/state",
				Debug:         &trueVal,
				Region:        "eu-west-1",
				Profile:       "prod",
				Endpoint:      "http://localhost:4566",
				DryRun:        &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{AddTimestamp: true},
			expected: Config{
				LogGroup:      "app",
				Stream:        "web",
				Tail:          []string{"db=/var/log/db.log"},
				FromStart:     true,
				FlushInterval: 90 * time.Second,
				MaxBatchBytes: 50000,
				Format:        "json",
				AddTimestamp:  false,
				AddInstanceID: true,
				FailurePolicy: "abort",
				StatusDir:     "/state",
				Debug:         true,
				Region:        "eu-west-1",
				Profile:       "prod",
				Endpoint:      "http://localhost:4566",
				DryRun:        true,
			},
			wantErr: false,
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{FlushInterval: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr {
				assertConfig(t, cfg, tt.expected)
			}
		})
	}
}

// assertConfig compares every field of Config.
func assertConfig(t *testing.T, got, want Config) {
	t.Helper()

	if got.LogGroup != want.LogGroup {
		t.Errorf("LogGroup = %v, want %v", got.LogGroup, want.LogGroup)
	}
	if got.Stream != want.Stream {
		t.Errorf("Stream = %v, want %v", got.Stream, want.Stream)
	}
	if strings.Join(got.Tail, ",") != strings.Join(want.Tail, ",") {
		t.Errorf("Tail = %v, want %v", got.Tail, want.Tail)
	}
	if got.FromStart != want.FromStart {
		t.Errorf("FromStart = %v, want %v", got.FromStart, want.FromStart)
	}
	if got.FlushInterval != want.FlushInterval {
		t.Errorf("FlushInterval = %v, want %v", got.FlushInterval, want.FlushInterval)
	}
	if got.MaxBatchBytes != want.MaxBatchBytes {
		t.Errorf("MaxBatchBytes = %v, want %v", got.MaxBatchBytes, want.MaxBatchBytes)
	}
	if got.Format != want.Format {
		t.Errorf("Format = %v, want %v", got.Format, want.Format)
	}
	if got.AddTimestamp != want.AddTimestamp {
		t.Errorf("AddTimestamp = %v, want %v", got.AddTimestamp, want.AddTimestamp)
	}
	if got.AddInstanceID != want.AddInstanceID {
		t.Errorf("AddInstanceID = %v, want %v", got.AddInstanceID, want.AddInstanceID)
	}
	if got.FailurePolicy != want.FailurePolicy {
		t.Errorf("FailurePolicy = %v, want %v", got.FailurePolicy, want.FailurePolicy)
	}
	if got.StatusDir != want.StatusDir {
		t.Errorf("StatusDir = %v, want %v", got.StatusDir, want.StatusDir)
	}
	if got.Debug != want.Debug {
		t.Errorf("Debug = %v, want %v", got.Debug, want.Debug)
	}
	if got.Region != want.Region {
		t.Errorf("Region = %v, want %v", got.Region, want.Region)
	}
	if got.Profile != want.Profile {
		t.Errorf("Profile = %v, want %v", got.Profile, want.Profile)
	}
	if got.Endpoint != want.Endpoint {
		t.Errorf("Endpoint = %v, want %v", got.Endpoint, want.Endpoint)
	}
	if got.DryRun != want.DryRun {
		t.Errorf("DryRun = %v, want %v", got.DryRun, want.DryRun)
	}
}

func TestLoadFileConfig(t *testing.T) {
	// Create a temporary TOML file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
log_group = "app"
flush_interval = "5m"
max_batch_bytes = 100000
tail = ["web=/var/log/web.log", "db=/var/log/db.log"]
add_instance_id = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.LogGroup != "app" {
		t.Errorf("LogGroup = %v, want app", fc.LogGroup)
	}
	if fc.FlushInterval != "5m" {
		t.Errorf("FlushInterval = %v, want 5m", fc.FlushInterval)
	}
	if fc.MaxBatchBytes != 100000 {
		t.Errorf("MaxBatchBytes = %v, want 100000", fc.MaxBatchBytes)
	}
	if len(fc.Tail) != 2 || fc.Tail[1] != "db=/var/log/db.log" {
		t.Errorf("Tail = %v, want two entries", fc.Tail)
	}
	if fc.AddInstanceID == nil || *fc.AddInstanceID != true {
		t.Errorf("AddInstanceID = %v, want true", fc.AddInstanceID)
	}
	if fc.Debug != nil {
		t.Errorf("Debug = %v, want nil", fc.Debug)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
log_group = "app"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".cwship") {
		t.Errorf("DefaultConfigPath() = %v, should contain .cwship", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
