package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	RecordsIngested    int64
	DuplicatesFiltered int64
	SummariesGenerated int64
	SentimentRuns      int64
	SnapshotsSaved     int64
	SnapshotFailures   int64
	FeedFailures       int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) AddRecordsIngested(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsIngested += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) IncrementSummaries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesGenerated++
}

func (m *Metrics) IncrementSentimentRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentimentRuns++
}

func (m *Metrics) AddFeedFailures(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedFailures += int64(n)
}

// RecordSnapshot matches the store save hook signature.
func (m *Metrics) RecordSnapshot(_ int, err error) {
	if err != nil {
		m.mu.Lock()
		m.SnapshotFailures++
		m.mu.Unlock()
		m.SetError(err.Error())
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SnapshotsSaved++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"records_ingested":           m.RecordsIngested,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"summaries_generated":        m.SummariesGenerated,
		"sentiment_runs":             m.SentimentRuns,
		"snapshots_saved":            m.SnapshotsSaved,
		"snapshot_failures":          m.SnapshotFailures,
		"feed_failures":              m.FeedFailures,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
