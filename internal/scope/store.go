// Package scope persists and resolves per-process key-value state.
package scope

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Identity names one process instance. Pid alone is not enough: the kernel
// recycles pids, so equality requires the creation time as well.
type Identity struct {
	PID       int
	CreatedAt time.Time
}

// Record is the persisted state for one Identity.
type Record struct {
	PID       int            `json:"pid"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data"`
	Inherit   bool           `json:"inherit"`
}

// NewRecord creates an empty record for id with inheritance enabled.
func NewRecord(id Identity) *Record {
	return &Record{
		PID:       id.PID,
		CreatedAt: id.CreatedAt,
		Data:      make(map[string]any),
		Inherit:   true,
	}
}

// Store keeps one JSON record file per pid under dir.
//
// There is no locking: two concurrent writers to the same pid race with
// last-write-wins. Records for different pids never interact.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore creates a Store rooted at dir, creating it if needed.
// A nil logger falls back to slog.Default.
func NewStore(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scope.NewStore: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: dir, log: log}, nil
}

// path returns the record file for a pid.
func (s *Store) path(pid int) string {
	return filepath.Join(s.dir, strconv.Itoa(pid)+".json")
}

// Load reads the record for id. The second return is false — never an
// error — when the record is missing, unreadable, unparsable, or stale.
//
// A record whose recorded creation time is strictly earlier than the live
// process's creation time belongs to a previous occupant of the pid; it is
// treated as absent and its file is deleted best-effort.
func (s *Store) Load(id Identity) (*Record, bool) {
	path := s.path(id.PID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("scope: record unreadable, treating as absent", "pid", id.PID, "err", err)
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn("scope: record corrupt, treating as absent", "pid", id.PID, "err", err)
		return nil, false
	}
	if rec.CreatedAt.Before(id.CreatedAt) {
		// Pid reuse: the record predates the live process.
		s.log.Debug("scope: stale record for reused pid", "pid", id.PID)
		_ = os.Remove(path)
		return nil, false
	}
	if rec.Data == nil {
		rec.Data = make(map[string]any)
	}
	return &rec, true
}

// Save writes record as the full replacement for its pid's file.
// Merging with previous contents is the resolver's job, not the store's.
func (s *Store) Save(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("scope.Save pid %d: %w", rec.PID, err)
	}
	if err := os.WriteFile(s.path(rec.PID), data, 0o600); err != nil {
		return fmt.Errorf("scope.Save pid %d: %w", rec.PID, err)
	}
	return nil
}
