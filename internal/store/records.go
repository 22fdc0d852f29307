package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/deusflow/newslens/internal/news"
)

// PutRecord stores a news record under its record key with the default TTL.
func (s *Store) PutRecord(r news.Record) error {
	if r.ID == "" {
		return fmt.Errorf("record without id: %w", news.ErrInvalidInput)
	}
	return s.Set(news.RecordKey(r.ID), r)
}

// Record fetches a cached news record by id.
func (s *Store) Record(id string) (news.Record, error) {
	if id == "" {
		return news.Record{}, fmt.Errorf("empty record id: %w", news.ErrInvalidInput)
	}
	return Lookup[news.Record](s, news.RecordKey(id))
}

// AllRecords returns every live news record, newest first. Hit and miss
// counters are not touched.
func (s *Store) AllRecords() []news.Record {
	now := s.now()

	s.mu.RLock()
	raws := make([]json.RawMessage, 0, len(s.entries))
	for k, e := range s.entries {
		if isRecordKey(k) && e.live(now) {
			raws = append(raws, e.value)
		}
	}
	s.mu.RUnlock()

	records := make([]news.Record, 0, len(raws))
	for _, raw := range raws {
		var r news.Record
		if err := json.Unmarshal(raw, &r); err != nil {
			s.log.Debug("skipping undecodable record", "error", err)
			continue
		}
		records = append(records, r)
	}

	news.SortByPublished(records)
	return records
}

// EvictOlderThan deletes records published more than days ago and returns
// how many were removed.
func (s *Store) EvictOlderThan(days int) int {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	var stale []string
	for _, r := range s.AllRecords() {
		if r.PublishedAt.Before(cutoff) {
			stale = append(stale, news.RecordKey(r.ID))
		}
	}

	removed := s.Delete(stale...)
	if removed > 0 {
		s.log.Info("old news evicted", "count", removed, "older_than_days", days)
	}
	return removed
}

// EnforceCapacity drops the oldest 30% of records when the encoded size of
// live values exceeds maxSizeKB. It returns how many records were removed.
func (s *Store) EnforceCapacity(maxSizeKB int) int {
	stats := s.Stats()
	if stats.ApproxSizeKB <= maxSizeKB {
		return 0
	}

	records := s.AllRecords()
	n := int(math.Floor(float64(len(records)) * capacityEvictShare))
	if n == 0 {
		return 0
	}

	keys := make([]string, 0, n)
	for _, r := range records[len(records)-n:] {
		keys = append(keys, news.RecordKey(r.ID))
	}
	removed := s.Delete(keys...)
	s.log.Info("cache over budget, oldest news evicted",
		"size_kb", stats.ApproxSizeKB, "max_kb", maxSizeKB, "count", removed)
	return removed
}
