package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/newslens/internal/lexicon"
	"github.com/deusflow/newslens/internal/metrics"
	"github.com/deusflow/newslens/internal/news"
	"github.com/deusflow/newslens/internal/rss"
	"github.com/deusflow/newslens/internal/scraper"
	"github.com/deusflow/newslens/internal/sentiment"
	"github.com/deusflow/newslens/internal/similarity"
	"github.com/deusflow/newslens/internal/store"
	"github.com/deusflow/newslens/internal/summary"
)

const (
	DefaultQueryLimit  = 10
	DefaultTrendHours  = 24
	DefaultTrendLimit  = 20
	recentNewsInTrends = 5
)

// Producer supplies news records from syndicated feeds.
type Producer interface {
	FetchAll(ctx context.Context, urls []string) (rss.Report, error)
	FetchFeed(ctx context.Context, url string) ([]news.Record, error)
}

// ContentFetcher extracts full article text from a page.
type ContentFetcher interface {
	ExtractFullArticle(ctx context.Context, url string) (*scraper.ArticleContent, error)
}

// Enricher fills in missing record content.
type Enricher interface {
	EnrichRecords(ctx context.Context, records []news.Record, limit, concurrency int) []news.Record
}

type Settings struct {
	Feeds              []string
	DuplicateThreshold float64
	SummarySentences   int
	KeywordCount       int
	RetentionDays      int
	MaxSizeKB          int

	// ScrapeLimit is the number of records without content enriched per
	// ingest. Zero disables enrichment.
	ScrapeLimit       int
	ScrapeConcurrency int

	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// Service joins the record store with the analytic components. Analytics
// only read news records; they write derived entries under their own keys.
type Service struct {
	store    *store.Store
	producer Producer
	content  ContentFetcher

	sim       *similarity.Engine
	scorer    *sentiment.Scorer
	summaries *summary.Summarizer

	settings Settings
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// New builds a service. content may be nil, in which case FullContent and
// ingest enrichment are unavailable.
func New(st *store.Store, producer Producer, content ContentFetcher, tables lexicon.Tables, settings Settings) *Service {
	if settings.SummarySentences < 1 {
		settings.SummarySentences = summary.DefaultSentences
	}
	if settings.KeywordCount < 1 {
		settings.KeywordCount = summary.DefaultKeywordCount
	}
	if settings.ScrapeConcurrency < 1 {
		settings.ScrapeConcurrency = 1
	}

	s := &Service{
		store:     st,
		producer:  producer,
		content:   content,
		sim:       similarity.New(tables.DedupStopWords),
		scorer:    sentiment.New(tables.Sentiment),
		summaries: summary.New(tables.SummaryStopWords, summary.WithKeywordCount(settings.KeywordCount)),
		settings:  settings,
		metrics:   settings.Metrics,
		log:       settings.Logger,
		now:       settings.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.Global
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Query filters a news fetch. An empty Source means every configured feed.
type Query struct {
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type FetchResult struct {
	Records []news.Record `json:"records"`
	Cached  bool          `json:"cached"`
}

// FetchNews answers a query from the cache, or fetches, filters and caches
// the records. Each returned record is also cached under its own key.
func (s *Service) FetchNews(ctx context.Context, q Query) (FetchResult, error) {
	if q.Limit < 0 {
		return FetchResult{}, fmt.Errorf("limit %d: %w", q.Limit, news.ErrInvalidInput)
	}
	if q.Limit == 0 {
		q.Limit = DefaultQueryLimit
	}

	key := news.QueryKey(q.Source, q.Category, q.Keyword, q.Limit)
	if cached, err := store.Lookup[[]news.Record](s.store, key); err == nil {
		s.log.Debug("news served from cache", "key", key, "count", len(cached))
		return FetchResult{Records: cached, Cached: true}, nil
	}

	var (
		records []news.Record
		err     error
	)
	if q.Source != "" {
		records, err = s.producer.FetchFeed(ctx, q.Source)
		news.SortByPublished(records)
	} else {
		var report rss.Report
		report, err = s.producer.FetchAll(ctx, s.settings.Feeds)
		s.metrics.AddFeedFailures(len(report.Failed))
		records = report.Records
	}
	if err != nil {
		s.metrics.SetError(err.Error())
		return FetchResult{}, fmt.Errorf("failed to fetch news: %w", err)
	}

	records = news.FilterByCategory(records, q.Category)
	records = news.Search(records, q.Keyword)
	if len(records) > q.Limit {
		records = records[:q.Limit]
	}
	if records == nil {
		records = []news.Record{}
	}

	if err := s.store.Set(key, records); err != nil {
		return FetchResult{}, err
	}
	for _, r := range records {
		if err := s.store.PutRecord(r); err != nil {
			return FetchResult{}, err
		}
	}
	s.metrics.AddRecordsIngested(len(records))
	return FetchResult{Records: records}, nil
}

// IngestReport describes one ingest cycle.
type IngestReport struct {
	Fetched     int `json:"fetched"`
	Stored      int `json:"stored"`
	Duplicates  int `json:"duplicates"`
	FailedFeeds int `json:"failedFeeds"`
}

// Ingest fetches every configured feed, optionally enriches records
// without content, drops near-duplicates and caches the rest.
func (s *Service) Ingest(ctx context.Context) (IngestReport, error) {
	start := s.now()
	defer func() { s.metrics.RecordProcessingTime(s.now().Sub(start)) }()

	report, err := s.producer.FetchAll(ctx, s.settings.Feeds)
	res := IngestReport{Fetched: len(report.Records), FailedFeeds: len(report.Failed)}
	s.metrics.AddFeedFailures(len(report.Failed))
	if err != nil {
		s.metrics.SetError(err.Error())
		return res, fmt.Errorf("ingest failed: %w", err)
	}

	records := report.Records
	if enricher, ok := s.content.(Enricher); ok && s.settings.ScrapeLimit > 0 {
		records = enricher.EnrichRecords(ctx, records, s.settings.ScrapeLimit, s.settings.ScrapeConcurrency)
	}

	unique, err := s.sim.Dedupe(records, s.settings.DuplicateThreshold)
	if err != nil {
		return res, err
	}
	res.Duplicates = len(records) - len(unique)

	for _, r := range unique {
		if err := s.store.PutRecord(r); err != nil {
			return res, err
		}
		res.Stored++
	}

	s.metrics.AddRecordsIngested(res.Stored)
	s.metrics.AddDuplicatesFiltered(res.Duplicates)
	s.metrics.SetLastRun()
	s.log.Info("news ingested", "fetched", res.Fetched, "stored", res.Stored,
		"duplicates", res.Duplicates, "failed_feeds", res.FailedFeeds)
	return res, nil
}

// SummarizeRequest needs either NewsID or Text. NewsID wins when both are set.
type SummarizeRequest struct {
	NewsID       string `json:"newsId,omitempty"`
	Text         string `json:"text,omitempty"`
	Sentences    int    `json:"sentenceCount,omitempty"`
	OmitKeywords bool   `json:"omitKeywords,omitempty"`
}

// Summarize summarizes free text or a cached record. Record summaries are
// cached per sentence count and keyword option.
func (s *Service) Summarize(ctx context.Context, req SummarizeRequest) (summary.Result, error) {
	sentences := req.Sentences
	if sentences < 1 {
		sentences = s.settings.SummarySentences
	}
	opts := summary.Options{ExtractKeywords: !req.OmitKeywords}

	switch {
	case req.NewsID != "":
		key := news.SummaryKey(fmt.Sprintf("%s:%d:%t", req.NewsID, sentences, opts.ExtractKeywords))
		if cached, err := store.Lookup[summary.Result](s.store, key); err == nil {
			return cached, nil
		}

		r, err := s.store.Record(req.NewsID)
		if err != nil {
			return summary.Result{}, err
		}
		text := r.Content
		if text == "" {
			text = r.Description
		}
		if text == "" {
			text = r.Title
		}

		res := s.summaries.Summarize(text, sentences, opts)
		if err := s.store.Set(key, res); err != nil {
			s.log.Warn("summary not cached", "news_id", req.NewsID, "error", err)
		}
		s.metrics.IncrementSummaries()
		return res, nil

	case strings.TrimSpace(req.Text) != "":
		s.metrics.IncrementSummaries()
		return s.summaries.Summarize(req.Text, sentences, opts), nil

	default:
		return summary.Result{}, fmt.Errorf("text or news id is required: %w", news.ErrInvalidInput)
	}
}

// FullContent scrapes the article page of a cached record, or of url when
// newsID is empty.
func (s *Service) FullContent(ctx context.Context, newsID, url string) (*scraper.ArticleContent, error) {
	if s.content == nil {
		return nil, fmt.Errorf("content fetching is disabled: %w", news.ErrInvalidInput)
	}

	target := url
	if newsID != "" {
		r, err := s.store.Record(newsID)
		if err != nil {
			return nil, err
		}
		target = r.Link
	}
	if target == "" {
		return nil, fmt.Errorf("url or news id is required: %w", news.ErrInvalidInput)
	}
	return s.content.ExtractFullArticle(ctx, target)
}

type TrendsRequest struct {
	Hours int `json:"hours,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type RecentNews struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Trends is a corpus-level view of recent cached news.
type Trends struct {
	Period      string              `json:"period"`
	NewsCount   int                 `json:"newsCount"`
	TopKeywords []string            `json:"topKeywords"`
	Summary     string              `json:"summary"`
	Sentiment   sentiment.Aggregate `json:"sentiment"`
	Groups      int                 `json:"duplicateGroups"`
	UniqueNews  int                 `json:"uniqueNews"`
	MostRecent  []RecentNews        `json:"mostRecentNews"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// AnalyzeTrends summarizes the newest cached records published within the
// window and stores the result under the trends key.
func (s *Service) AnalyzeTrends(ctx context.Context, req TrendsRequest) (Trends, error) {
	if req.Hours < 0 || req.Limit < 0 {
		return Trends{}, fmt.Errorf("negative trend window: %w", news.ErrInvalidInput)
	}
	if req.Hours == 0 {
		req.Hours = DefaultTrendHours
	}
	if req.Limit == 0 {
		req.Limit = DefaultTrendLimit
	}

	now := s.now()
	cutoff := now.Add(-time.Duration(req.Hours) * time.Hour)
	var recent []news.Record
	for _, r := range s.store.AllRecords() {
		if len(recent) == req.Limit {
			break
		}
		if r.PublishedAt.After(cutoff) {
			recent = append(recent, r)
		}
	}

	t := Trends{
		Period:      fmt.Sprintf("last %d hours", req.Hours),
		NewsCount:   len(recent),
		TopKeywords: []string{},
		MostRecent:  []RecentNews{},
		GeneratedAt: now,
	}
	if len(recent) > 0 {
		texts := make([]string, 0, len(recent))
		for _, r := range recent {
			text := r.Title
			if r.Description != "" {
				text += ". " + r.Description
			}
			texts = append(texts, text)
		}

		analysis := s.summaries.SummarizeMany(texts, summary.DefaultTrendSentences)
		t.TopKeywords = analysis.Keywords
		t.Summary = analysis.Summary
		t.Sentiment = s.scorer.ScoreBatch(texts).Aggregate

		clusters, err := s.sim.Cluster(recent, s.settings.DuplicateThreshold)
		if err != nil {
			return Trends{}, err
		}
		t.Groups = clusters.GroupCount
		t.UniqueNews = clusters.UniqueCount

		for i, r := range recent {
			if i == recentNewsInTrends {
				break
			}
			t.MostRecent = append(t.MostRecent, RecentNews{Title: r.Title, Source: r.Source, PublishedAt: r.PublishedAt})
		}
	} else {
		t.Sentiment.OverallLabel = sentiment.LabelNeutral
	}

	if err := s.store.Set(news.TrendsKey, t); err != nil {
		s.log.Warn("trends not cached", "error", err)
	}
	return t, nil
}

// LatestTrends returns the last cached trend analysis.
func (s *Service) LatestTrends() (Trends, error) {
	return store.Lookup[Trends](s.store, news.TrendsKey)
}

// Duplicates clusters every cached record.
func (s *Service) Duplicates(threshold float64) (similarity.Result, error) {
	return s.sim.Cluster(s.store.AllRecords(), threshold)
}

// Similar finds cached records resembling the given one.
func (s *Service) Similar(newsID string, threshold float64) (similarity.Group, error) {
	if newsID == "" {
		return similarity.Group{}, fmt.Errorf("news id is required: %w", news.ErrInvalidInput)
	}
	target, err := s.store.Record(newsID)
	if err != nil {
		return similarity.Group{}, err
	}
	return s.sim.FindSimilar(target, s.store.AllRecords(), threshold)
}

// Sentiment scores a cached record. Content falls back to description.
func (s *Service) Sentiment(newsID string) (sentiment.RecordResult, error) {
	if newsID == "" {
		return sentiment.RecordResult{}, fmt.Errorf("news id is required: %w", news.ErrInvalidInput)
	}
	r, err := s.store.Record(newsID)
	if err != nil {
		return sentiment.RecordResult{}, err
	}
	s.metrics.IncrementSentimentRuns()
	return s.scorer.ScoreRecord(r.Title, r.Body()), nil
}

// SentimentOf scores free texts as a batch.
func (s *Service) SentimentOf(texts []string) sentiment.BatchResult {
	s.metrics.IncrementSentimentRuns()
	return s.scorer.ScoreBatch(texts)
}

func (s *Service) CacheStats() store.Stats {
	return s.store.Stats()
}

type MaintenanceReport struct {
	Expired      int `json:"expired"`
	Aged         int `json:"aged"`
	OverCapacity int `json:"overCapacity"`
}

// Maintain sweeps expired entries, evicts records past retention and
// enforces the size budget. Zero settings skip the matching step.
func (s *Service) Maintain() MaintenanceReport {
	var rep MaintenanceReport
	rep.Expired = s.store.Sweep()
	if s.settings.RetentionDays > 0 {
		rep.Aged = s.store.EvictOlderThan(s.settings.RetentionDays)
	}
	if s.settings.MaxSizeKB > 0 {
		rep.OverCapacity = s.store.EnforceCapacity(s.settings.MaxSizeKB)
	}
	s.log.Debug("cache maintenance done", "expired", rep.Expired, "aged", rep.Aged, "over_capacity", rep.OverCapacity)
	return rep
}
