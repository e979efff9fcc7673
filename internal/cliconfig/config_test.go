package cliconfig

import (
	"testing"
	"time"

	"github.com/bft-labs/cwship/pkg/cwship"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FlushInterval != 120*time.Second {
		t.Errorf("FlushInterval = %v, want 2m", cfg.FlushInterval)
	}
	if cfg.MaxBatchBytes != 200000 {
		t.Errorf("MaxBatchBytes = %v, want 200000", cfg.MaxBatchBytes)
	}
	if cfg.Format != cwship.FormatString {
		t.Errorf("Format = %v, want %v", cfg.Format, cwship.FormatString)
	}
	if cfg.FailurePolicy != cwship.PolicyIsolate {
		t.Errorf("FailurePolicy = %v, want %v", cfg.FailurePolicy, cwship.PolicyIsolate)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "stdin stream",
			config:  Config{LogGroup: "app", Stream: "web"},
			wantErr: false,
		},
		{
			name:    "tail only",
			config:  Config{LogGroup: "app", Tail: []string{"web=/var/log/web.log"}},
			wantErr: false,
		},
		{
			name:    "missing log group",
			config:  Config{Stream: "web"},
			wantErr: true,
		},
		{
			name:    "no source",
			config:  Config{LogGroup: "app"},
			wantErr: true,
		},
		{
			name:    "tail without separator",
			config:  Config{LogGroup: "app", Tail: []string{"/var/log/web.log"}},
			wantErr: true,
		},
		{
			name:    "tail with empty path",
			config:  Config{LogGroup: "app", Tail: []string{"web="}},
			wantErr: true,
		},
		{
			name: "same stream two files",
			config: Config{LogGroup: "app", Tail: []string{
				"web=/var/log/a.log",
				"web=/var/log/b.log",
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_TailFiles(t *testing.T) {
	c := Config{Tail: []string{" web = /var/log/web.log ", "db=/var/log/db.log", "db=/var/log/db.log"}}
	files, err := c.TailFiles()
	if err != nil {
		t.Fatalf("TailFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files["web"] != "/var/log/web.log" {
		t.Errorf("files[web] = %v, want /var/log/web.log", files["web"])
	}
	if files["db"] != "/var/log/db.log" {
		t.Errorf("files[db] = %v, want /var/log/db.log", files["db"])
	}
}

func TestConfig_ShipperConfig(t *testing.T) {
	c := DefaultConfig()
	c.LogGroup = "app"
	c.FlushInterval = 90 * time.Second
	c.Format = cwship.FormatJSON
	c.AddInstanceID = true
	c.StatusDir = "/state"

	sc := c.ShipperConfig()
	if sc.LogGroup != "app" {
		t.Errorf("LogGroup = %v, want app", sc.LogGroup)
	}
	if sc.FlushIntervalSeconds != 90 {
		t.Errorf("FlushIntervalSeconds = %v, want 90", sc.FlushIntervalSeconds)
	}
	if sc.Format != cwship.FormatJSON {
		t.Errorf("Format = %v, want json", sc.Format)
	}
	if !sc.AddInstanceID {
		t.Error("AddInstanceID = false, want true")
	}
	if sc.StatusDir != "/state" {
		t.Errorf("StatusDir = %v, want /state", sc.StatusDir)
	}
}
