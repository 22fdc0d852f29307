package rss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/newslens/internal/news"
	"github.com/deusflow/newslens/internal/retry"
	"github.com/deusflow/newslens/internal/scraper"
)

const (
	untitled    = "Başlıksız Haber"
	userAgent   = "newslens/1.0 (+https://github.com/deusflow/newslens)"
	maxFeedSize = 10 << 20
)

// DefaultFeeds are used when no feed list is configured.
var DefaultFeeds = []string{
	"https://feeds.bbci.co.uk/turkce/rss.xml",
	"https://www.ensonhaber.com/rss/ensonhaber.xml",
	"https://www.milliyet.com.tr/rss/rssnew/dunyarss.xml",
	"https://www.bloomberght.com/rss",
}

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads RSS feeds list from YAML file
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	feeds := make([]string, 0, len(cfg.Feeds))
	for _, u := range cfg.Feeds {
		if u = strings.TrimSpace(u); u != "" {
			feeds = append(feeds, u)
		}
	}
	return feeds, nil
}

type Options struct {
	MaxItemsPerFeed int
	Concurrency     int
	RatePerSec      float64
	Timeout         time.Duration
	Retry           retry.RetryConfig
	Client          *http.Client
	Logger          *slog.Logger
	// Now stamps items without a publication date.
	Now func() time.Time
}

// Fetcher downloads feeds and turns their items into news records.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxItems    int
	concurrency int
	retry       retry.RetryConfig
	log         *slog.Logger
	now         func() time.Time
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:      opts.Client,
		maxItems:    opts.MaxItemsPerFeed,
		concurrency: opts.Concurrency,
		retry:       opts.Retry,
		log:         opts.Logger,
		now:         opts.Now,
	}
	if f.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		f.client = &http.Client{Timeout: timeout}
	}
	if f.maxItems <= 0 {
		f.maxItems = 20
	}
	if f.concurrency <= 0 {
		f.concurrency = 4
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	if f.now == nil {
		f.now = time.Now
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	f.limiter = rate.NewLimiter(limit, 1)
	return f
}

// FeedError is a single feed failure.
type FeedError struct {
	URL string
	Err error
}

func (e *FeedError) Error() string { return fmt.Sprintf("%s: %v", e.URL, e.Err) }
func (e *FeedError) Unwrap() error { return e.Err }

// Report is the outcome of FetchAll.
type Report struct {
	Records []news.Record
	Failed  []*FeedError
	Feeds   int
}

// FetchAll downloads all feeds concurrently. Failing feeds are logged and
// skipped; an error is returned only when every feed fails. Records are
// unique by id and sorted newest first.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) (Report, error) {
	report := Report{Feeds: len(urls)}
	if len(urls) == 0 {
		return report, nil
	}

	perFeed := make([][]news.Record, len(urls))
	var (
		mu     sync.Mutex
		failed []*FeedError
	)

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			records, err := f.FetchFeed(ctx, u)
			if err != nil {
				f.log.Warn("error parsing RSS", "url", u, "error", err)
				mu.Lock()
				failed = append(failed, &FeedError{URL: u, Err: err})
				mu.Unlock()
				return nil
			}
			f.log.Debug("loaded news", "url", u, "count", len(records))
			perFeed[i] = records
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	for _, records := range perFeed {
		for _, r := range records {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			report.Records = append(report.Records, r)
		}
	}
	news.SortByPublished(report.Records)
	report.Failed = failed

	f.log.Info("processed RSS feeds", "ok", len(urls)-len(failed), "total", len(urls), "records", len(report.Records))

	if len(failed) == len(urls) {
		errs := make([]error, 0, len(failed))
		for _, fe := range failed {
			errs = append(errs, fe)
		}
		return report, fmt.Errorf("no feed could be read: %w", errors.Join(errs...))
	}
	return report, nil
}

// FetchFeed downloads and parses a single feed.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string) ([]news.Record, error) {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid feed url %q: %w", feedURL, news.ErrInvalidInput)
	}

	var feed *gofeed.Feed
	err = retry.WithRetry(ctx, f.retry, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var err error
		feed, err = f.download(ctx, feedURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := feed.Items
	if len(items) > f.maxItems {
		items = items[:f.maxItems]
	}
	records := make([]news.Record, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, f.toRecord(item, u.Hostname()))
	}
	return records, nil
}

func (f *Fetcher) download(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP error: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("error parsing feed: %w", err))
	}
	return feed, nil
}

func (f *Fetcher) toRecord(item *gofeed.Item, source string) news.Record {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = untitled
	}

	content := scraper.TextFromHTML(item.Content)
	description := scraper.TextFromHTML(item.Description)
	if description == "" {
		description = content
	}

	published := f.now()
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	var category string
	if len(item.Categories) > 0 {
		category = strings.TrimSpace(item.Categories[0])
	}

	r := news.New(title, description, content, strings.TrimSpace(item.Link), source, category, imageURL(item), published)
	if item.Link == "" && item.Title == "" {
		// nothing stable to hash; fall back to the feed guid, then the body
		basis := strings.TrimSpace(item.GUID)
		if basis == "" {
			basis = description + "|" + published.UTC().Format(time.RFC3339)
		}
		r.ID = news.NewID(basis, "")
	}
	return r
}

// imageURL looks at the item image, image enclosures and then the media
// extension.
func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
			return enc.URL
		}
	}
	media := item.Extensions["media"]
	for _, name := range []string{"thumbnail", "content"} {
		for _, ext := range media[name] {
			if u := ext.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	return ""
}
