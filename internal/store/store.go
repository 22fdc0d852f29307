package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/newslens/internal/news"
)

// ErrPersistence wraps snapshot read and write failures. They never stop the
// in-memory store.
var ErrPersistence = errors.New("persistence failure")

const (
	DefaultTTL           = time.Hour
	DefaultSaveInterval  = time.Minute
	DefaultSweepInterval = 10 * time.Minute

	// share of the oldest records dropped when the size budget is exceeded
	capacityEvictShare = 0.3
)

type entry struct {
	value     json.RawMessage
	expiresAt time.Time // zero means no expiry
}

func (e entry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// Stats describes the current cache usage.
type Stats struct {
	Keys         int     `json:"keys"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hitRate"`
	ApproxSizeKB int     `json:"approximateSizeKB"`
}

// Store is a process-local TTL cache keyed by string. Values are kept
// JSON-encoded, so a stored value can never change after Set.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits   atomic.Int64
	misses atomic.Int64

	path          string
	defaultTTL    time.Duration
	saveInterval  time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	log           *slog.Logger
	onSave        func(saved int, err error)

	lifecycle sync.Mutex
	scheduler *cron.Cron
}

type Option func(*Store)

func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

func WithSaveInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.saveInterval = d
		}
	}
}

func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSaveHook is called after every snapshot attempt.
func WithSaveHook(fn func(saved int, err error)) Option {
	return func(s *Store) {
		s.onSave = fn
	}
}

// Open creates a store backed by the snapshot file at path and loads it.
// An empty path gives a memory-only store. A missing, unreadable or corrupt
// snapshot is logged and the store starts empty.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		entries:       make(map[string]entry),
		path:          path,
		defaultTTL:    DefaultTTL,
		saveInterval:  DefaultSaveInterval,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if n, err := s.load(); err != nil {
		s.log.Warn("cache snapshot not loaded, starting empty", "path", path, "error", err)
	} else if path != "" {
		s.log.Info("cache snapshot loaded", "path", path, "keys", n)
	}
	return s
}

// Get returns a copy of the value under key if it has not expired, counting
// a hit or a miss.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !e.live(s.now()) {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return bytes.Clone(e.value), true
}

// Lookup decodes the value under key into T. It returns news.ErrNotFound on
// a miss.
func Lookup[T any](s *Store, key string) (T, error) {
	var out T
	raw, ok := s.Get(key)
	if !ok {
		return out, fmt.Errorf("key %q: %w", key, news.ErrNotFound)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return out, nil
}

// Set stores value under key with the default TTL, replacing any entry.
func (s *Store) Set(key string, value any) error {
	return s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores value with an explicit TTL. A ttl <= 0 never expires.
func (s *Store) SetWithTTL(key string, value any, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("empty cache key: %w", news.ErrInvalidInput)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %v: %w", key, err, news.ErrInvalidInput)
	}

	e := entry{value: raw}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete removes keys and returns how many existed.
func (s *Store) Delete(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, k := range keys {
		if _, ok := s.entries[k]; ok {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// FlushAll drops every entry and resets hit/miss counters.
func (s *Store) FlushAll() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()

	s.hits.Store(0)
	s.misses.Store(0)
}

// Keys returns a sorted snapshot of known keys. Expired keys that have not
// been swept yet are included.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// TTL returns the expiry time of a live key. The zero time means the key
// never expires.
func (s *Store) TTL(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !e.live(s.now()) {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// UpdateTTL re-arms a live key. It reports false when the key is absent or
// already expired.
func (s *Store) UpdateTTL(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !e.live(now) {
		return false
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	s.entries[key] = e
	return true
}

// Stats reports key count, hit rate and the encoded size of live values.
func (s *Store) Stats() Stats {
	now := s.now()
	size := 0

	s.mu.RLock()
	keys := len(s.entries)
	for _, e := range s.entries {
		if e.live(now) {
			size += len(e.value)
		}
	}
	s.mu.RUnlock()

	hits, misses := s.hits.Load(), s.misses.Load()
	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = math.Round(float64(hits)/float64(total)*100*100) / 100
	}

	return Stats{
		Keys:         keys,
		Hits:         hits,
		Misses:       misses,
		HitRate:      rate,
		ApproxSizeKB: int(math.Round(float64(size) / 1024)),
	}
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if !e.live(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Start schedules periodic snapshots and expiry sweeps. Calling Start twice
// is a no-op.
func (s *Store) Start() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.scheduler != nil {
		return nil
	}

	logger := cronLogger{log: s.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))

	if s.path != "" {
		if _, err := c.AddFunc("@every "+s.saveInterval.String(), func() { _ = s.Save() }); err != nil {
			return fmt.Errorf("failed to schedule snapshot: %w", err)
		}
	}
	if _, err := c.AddFunc("@every "+s.sweepInterval.String(), func() {
		if n := s.Sweep(); n > 0 {
			s.log.Debug("expired cache entries swept", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	c.Start()
	s.scheduler = c
	s.log.Info("cache scheduler started", "save_interval", s.saveInterval, "sweep_interval", s.sweepInterval)
	return nil
}

// Stop cancels the scheduled jobs, waits for a running one to finish and
// writes a final snapshot.
func (s *Store) Stop() error {
	s.lifecycle.Lock()
	c := s.scheduler
	s.scheduler = nil
	s.lifecycle.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	return s.Save()
}

// cronLogger routes scheduler messages to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

func isRecordKey(key string) bool {
	return strings.HasPrefix(key, news.RecordPrefix)
}
