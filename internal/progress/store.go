// Package progress persists advisory cross-run statistics. The processed
// archive on disk, not this file, is the authority for what has been done:
// losing or corrupting the progress file must never break resumption.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Record is the durable cross-run state.
type Record struct {
	TotalImages    int            `json:"total_images"`
	ProcessedCount int            `json:"processed_count"`
	LastRun        string         `json:"last_run"`
	ModelsUsed     map[string]int `json:"models_used"`
}

// NewRecord returns a fresh zeroed record.
func NewRecord() *Record {
	return &Record{
		ModelsUsed: make(map[string]int),
	}
}

// CallsToday returns the per-model calls recorded for today. The counts
// only apply when the record's last run date matches today; otherwise the
// day windows have rolled over and every model starts from zero.
func (r *Record) CallsToday(today string) map[string]int {
	if r.LastRun != today {
		return nil
	}
	return r.ModelsUsed
}

// Store reads and writes the progress file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the progress record. A missing file yields a fresh zeroed
// record; a corrupt file is logged and also yields a fresh record.
func (s *Store) Load() *Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Could not read progress file, starting fresh", "path", s.path, "err", err)
		}
		return NewRecord()
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		slog.Warn("Could not parse progress file, starting fresh", "path", s.path, "err", err)
		return NewRecord()
	}
	if record.ModelsUsed == nil {
		record.ModelsUsed = make(map[string]int)
	}
	return &record
}

// Save writes the record atomically: to a temp file in the same directory,
// then renamed over the target, so a crash mid-write never truncates state.
func (s *Store) Save(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp progress file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp progress file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}
