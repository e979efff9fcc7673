// Package fs persists the delivery status snapshot as a JSON file.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/cwship/internal/domain"
)

// StatusFileName is the name of the file written inside the status directory.
const StatusFileName = "status.json"

// StatusFile implements ports.StatusRepository on a single JSON file.
type StatusFile struct {
	dir string
}

// NewStatusFile creates a repository that keeps StatusFileName in dir.
func NewStatusFile(dir string) *StatusFile {
	return &StatusFile{dir: dir}
}

// Path returns the full path to the status file.
func (r *StatusFile) Path() string {
	return filepath.Join(r.dir, StatusFileName)
}

// Load reads the last saved status. A missing file yields an empty status.
func (r *StatusFile) Load(ctx context.Context) (domain.Status, error) {
	data, err := os.ReadFile(r.Path())
	if errors.Is(err, os.ErrNotExist) {
		return domain.Status{}, nil
	}
	if err != nil {
		return domain.Status{}, fmt.Errorf("read status: %w", err)
	}

	var st domain.Status
	if err := json.Unmarshal(data, &st); err != nil {
		return domain.Status{}, fmt.Errorf("decode status %s: %w", r.Path(), err)
	}
	return st, nil
}

// Save writes st to a temp file in the same directory and renames it over
// the status file, so readers never observe a partial write.
func (r *StatusFile) Save(ctx context.Context, st domain.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, StatusFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp status: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp status: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp status: %w", err)
	}

	if err := os.Rename(tmpName, r.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename status: %w", err)
	}
	return nil
}
