package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// snapshotEntry is the on-disk form of one cache entry. TTL is the remaining
// lifetime in milliseconds at SavedAt and is omitted for entries that never
// expire.
type snapshotEntry struct {
	Value   json.RawMessage `json:"value"`
	TTL     *int64          `json:"ttl,omitempty"`
	SavedAt int64           `json:"savedAt"`
}

// Save writes every live entry to the snapshot file. The file is replaced
// atomically so readers never see a partial snapshot.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	n, err := s.save()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrPersistence, err)
		s.log.Error("cache snapshot failed", "path", s.path, "error", err)
	} else {
		s.log.Debug("cache snapshot saved", "path", s.path, "keys", n)
	}
	if s.onSave != nil {
		s.onSave(n, err)
	}
	return err
}

func (s *Store) save() (int, error) {
	now := s.now()
	savedAt := now.UnixMilli()

	s.mu.RLock()
	snapshot := make(map[string]snapshotEntry, len(s.entries))
	for k, e := range s.entries {
		if !e.live(now) {
			continue
		}
		se := snapshotEntry{Value: e.value, SavedAt: savedAt}
		if !e.expiresAt.IsZero() {
			remaining := e.expiresAt.Sub(now).Milliseconds()
			if remaining <= 0 {
				continue
			}
			se.TTL = &remaining
		}
		snapshot[k] = se
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return 0, err
	}
	return len(snapshot), nil
}

// load reads the snapshot and admits entries whose remaining TTL is still
// positive after the downtime.
func (s *Store) load() (int, error) {
	if s.path == "" {
		return 0, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read snapshot: %v", ErrPersistence, err)
	}
	if len(data) == 0 {
		return 0, nil
	}

	var snapshot map[string]snapshotEntry
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return 0, fmt.Errorf("%w: corrupt snapshot: %v", ErrPersistence, err)
	}

	now := s.now()
	loaded := 0

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, se := range snapshot {
		if k == "" || len(se.Value) == 0 {
			continue
		}
		// the snapshot is indented; keep values compact so size stats match Set
		var value bytes.Buffer
		if err := json.Compact(&value, se.Value); err != nil {
			s.log.Debug("skipping undecodable snapshot entry", "key", k, "error", err)
			continue
		}
		e := entry{value: value.Bytes()}
		if se.TTL != nil {
			elapsed := now.UnixMilli() - se.SavedAt
			remaining := *se.TTL - elapsed
			if remaining <= 0 {
				continue
			}
			e.expiresAt = now.Add(time.Duration(remaining) * time.Millisecond)
		}
		s.entries[k] = e
		loaded++
	}
	return loaded, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
