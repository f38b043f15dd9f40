// Package storage reads and writes JSON documents with crash-safe
// semantics: writes go through a sibling temp file plus atomic rename, and
// corrupt files are backed up aside instead of failing the caller.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WayBetterSolutions/LEAF/internal/apperr"
)

// backupStamp is the suffix format for corruption backups and soft deletes.
const backupStamp = "20060102_150405"

// ReadJSON reads path into a value of type T. A missing or empty file
// yields def with a nil error. A file that fails to parse is renamed aside
// with a .corrupted_<timestamp> suffix and def is returned along with
// apperr.ErrCorrupted. The returned value is always usable; callers decide
// whether to surface the error as a warning.
func ReadJSON[T any](path string, def T) (T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return def, nil
		}
		return def, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return def, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		if _, mvErr := MoveAside(path, "corrupted"); mvErr != nil {
			return def, fmt.Errorf("storage: %s: %w (backup failed: %v)", path, apperr.ErrCorrupted, mvErr)
		}
		return def, fmt.Errorf("storage: %s: %w", path, apperr.ErrCorrupted)
	}
	return v, nil
}

// WriteJSON atomically writes v to path as indented JSON. Parent
// directories are created as needed. On any failure the destination is
// left untouched and the temp file is removed.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".leaf-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// MoveAside renames path to <path>.<label>_<timestamp> and returns the
// backup path. Used for corruption backups and collection soft deletes.
func MoveAside(path, label string) (string, error) {
	backup := fmt.Sprintf("%s.%s_%s", path, label, time.Now().Format(backupStamp))
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("storage: move aside %s: %w", path, err)
	}
	return backup, nil
}
