package app

import (
	"context"
	"fmt"
	"time"

	"github.com/deusflow/newslens/internal/config"
	"github.com/deusflow/newslens/internal/lexicon"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/metrics"
	"github.com/deusflow/newslens/internal/retry"
	"github.com/deusflow/newslens/internal/rss"
	"github.com/deusflow/newslens/internal/scraper"
	"github.com/deusflow/newslens/internal/store"
)

// CycleReport is the outcome of one ingest, maintenance and trends pass.
type CycleReport struct {
	Ingest      IngestReport      `json:"ingest"`
	IngestError string            `json:"ingestError,omitempty"`
	Maintenance MaintenanceReport `json:"maintenance"`
	Trends      Trends            `json:"trends"`
	Cache       store.Stats       `json:"cache"`
}

// Cycle ingests, maintains the cache and analyzes trends. A failed ingest
// is reported but the remaining steps still run over cached records.
func (s *Service) Cycle(ctx context.Context) (CycleReport, error) {
	var rep CycleReport

	ingest, err := s.Ingest(ctx)
	rep.Ingest = ingest
	if err != nil {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		s.log.Error("ingest failed, using cached news", "error", err)
		rep.IngestError = err.Error()
	}

	rep.Maintenance = s.Maintain()

	trends, err := s.AnalyzeTrends(ctx, TrendsRequest{})
	if err != nil {
		return rep, err
	}
	rep.Trends = trends
	rep.Cache = s.CacheStats()
	return rep, nil
}

// Run wires the store, producer and analytics from cfg, runs one cycle and
// returns the service with its store started. The caller must call the
// returned stop function to flush the snapshot.
func Run(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Service, CycleReport, func() error, error) {
	tables := lexicon.Default()
	if cfg.LexiconPath != "" {
		t, err := lexicon.LoadFile(cfg.LexiconPath)
		if err != nil {
			return nil, CycleReport{}, nil, err
		}
		tables = t
	}

	feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil || len(feeds) == 0 {
		logger.Warn("feed list not loaded, using defaults", "path", cfg.FeedsConfigPath, "error", err)
		feeds = rss.DefaultFeeds
	}

	st := store.Open(cfg.CacheFilePath,
		store.WithDefaultTTL(cfg.CacheTTL),
		store.WithSaveInterval(cfg.CacheSaveInterval),
		store.WithSweepInterval(cfg.CacheSweepInterval),
		store.WithLogger(logger.Logger),
		store.WithSaveHook(m.RecordSnapshot),
	)
	if err := st.Start(); err != nil {
		return nil, CycleReport{}, nil, fmt.Errorf("failed to start cache: %w", err)
	}

	retryCfg := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	fetcher := rss.NewFetcher(rss.Options{
		MaxItemsPerFeed: cfg.MaxNewsPerFeed,
		Concurrency:     cfg.FetchConcurrency,
		RatePerSec:      cfg.FetchRatePerSec,
		Timeout:         cfg.RequestTimeout,
		Retry:           retryCfg,
		Logger:          logger.Logger,
	})
	pages := scraper.New(scraper.WithRetry(retryCfg), scraper.WithLogger(logger.Logger))

	settings := Settings{
		Feeds:              feeds,
		DuplicateThreshold: cfg.DuplicateThreshold,
		SummarySentences:   cfg.SummarySentences,
		KeywordCount:       cfg.KeywordCount,
		RetentionDays:      cfg.NewsRetentionDays,
		MaxSizeKB:          cfg.CacheMaxSizeKB,
		ScrapeConcurrency:  cfg.FetchConcurrency,
		Metrics:            m,
		Logger:             logger.Logger,
	}
	if cfg.ScrapeFullContent {
		settings.ScrapeLimit = cfg.MaxNewsPerFeed
	}
	svc := New(st, fetcher, pages, tables, settings)

	start := time.Now()
	report, err := svc.Cycle(ctx)
	if err != nil {
		m.SetError(err.Error())
		return svc, report, st.Stop, err
	}
	logger.Info("cycle finished",
		"duration", time.Since(start).Round(time.Millisecond),
		"stored", report.Ingest.Stored,
		"duplicates", report.Ingest.Duplicates,
		"trend_news", report.Trends.NewsCount,
		"keywords", report.Trends.TopKeywords,
		"cache_keys", report.Cache.Keys,
		"hit_rate", report.Cache.HitRate)
	return svc, report, st.Stop, nil
}
