package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/newslens/internal/news"
	"github.com/deusflow/newslens/internal/retry"
)

// ErrNoContent is returned when a page has no recognizable article text.
var ErrNoContent = errors.New("no article content found")

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// a container shorter than this is not taken as the article
	minArticleLength = 200
	// paragraphs shorter than this are skipped by the fallback
	minParagraphLength = 50

	maxBodyBytes = 5 << 20
)

// ArticleContent is full article content
type ArticleContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// noise is removed before any text is read.
const noise = "script, style, noscript, nav, header, footer, aside, form, iframe, .ad, .ads, .advertisement"

// containerSelectors are tried in order; the first match longer than
// minArticleLength wins.
var containerSelectors = []string{
	"article",
	`[class*="content"]`,
	`[class*="article"]`,
	`[class*="story"]`,
	`[class*="text"]`,
	"main",
	".news-content",
	".detail-content",
	".post-content",
}

type Scraper struct {
	client *http.Client
	retry  retry.RetryConfig
	log    *slog.Logger
}

type Option func(*Scraper)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.client = c
		}
	}
}

func WithRetry(cfg retry.RetryConfig) Option {
	return func(s *Scraper) { s.retry = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.log = l
		}
	}
}

func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{Timeout: 15 * time.Second},
		retry:  retry.RetryConfig{MaxAttempts: 1},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractFullArticle downloads url and extracts its article text.
func (s *Scraper) ExtractFullArticle(ctx context.Context, url string) (*ArticleContent, error) {
	var doc *goquery.Document
	err := retry.WithRetry(ctx, s.retry, func() error {
		var err error
		doc, err = s.fetch(ctx, url)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", url, err)
	}

	title := extractTitle(doc)
	content := extractContent(doc)
	if content == "" {
		return nil, fmt.Errorf("%s: %w", url, ErrNoContent)
	}

	return &ArticleContent{
		Title:   title,
		Content: content,
		URL:     url,
	}, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP error: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

// EnrichRecords fills in Content for up to limit records that have none,
// fetching at most concurrency pages at once. Failures are logged and the
// record is kept unchanged.
func (s *Scraper) EnrichRecords(ctx context.Context, records []news.Record, limit, concurrency int) []news.Record {
	out := make([]news.Record, len(records))
	copy(out, records)

	if concurrency < 1 {
		concurrency = 1
	}
	var g errgroup.Group
	g.SetLimit(concurrency)

	picked := 0
	for i := range out {
		if picked >= limit {
			break
		}
		if out[i].Content != "" || out[i].Link == "" {
			continue
		}
		picked++

		g.Go(func() error {
			article, err := s.ExtractFullArticle(ctx, out[i].Link)
			if err != nil {
				s.log.Warn("can't get full content", "url", out[i].Link, "error", err)
				return nil
			}
			out[i].Content = article.Content
			s.log.Debug("got full content", "url", out[i].Link, "chars", len(article.Content))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func extractContent(doc *goquery.Document) string {
	doc.Find(noise).Remove()

	var content string
	for _, selector := range containerSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		content = collapseSpace(sel.Text())
		if len(content) > minArticleLength {
			return content
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := collapseSpace(p.Text())
		if len(text) > minParagraphLength {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, " ")
	}
	return content
}

// extractTitle gets article title
func extractTitle(doc *goquery.Document) string {
	selectors := []string{
		`meta[property="og:title"]`,
		"h1",
		"title",
	}

	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		title := sel.AttrOr("content", "")
		if title == "" {
			title = sel.Text()
		}
		if title = collapseSpace(title); title != "" {
			return title
		}
	}
	return ""
}

// TextFromHTML strips markup from an HTML fragment and collapses whitespace.
// Plain text passes through unchanged apart from the whitespace.
func TextFromHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	doc.Find("script, style").Remove()
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
