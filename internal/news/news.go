package news

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a record or cache key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request is rejected before any work is done.
	ErrInvalidInput = errors.New("invalid input")
)

// Store key prefixes shared by the cache and its callers.
const (
	RecordPrefix  = "news:id:"
	QueryPrefix   = "news:query:"
	SummaryPrefix = "summary:"
	TrendsKey     = "trends:latest"
)

// Record is a single syndicated news item. Records are treated as immutable
// once created.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// NewID generates a stable id from the link, falling back to the title.
// Re-fetching the same item always yields the same id.
func NewID(link, title string) string {
	basis := link
	if basis == "" {
		basis = title
	}
	h := sha1.New()
	h.Write([]byte(basis))
	return hex.EncodeToString(h.Sum(nil))
}

// New builds a record and assigns its id.
func New(title, description, content, link, source, category, imageURL string, published time.Time) Record {
	return Record{
		ID:          NewID(link, title),
		Title:       title,
		Description: description,
		Content:     content,
		Link:        link,
		PublishedAt: published,
		Source:      source,
		Category:    category,
		ImageURL:    imageURL,
	}
}

// Body returns content, or description when content is empty.
func (r Record) Body() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Description
}

// TextLength is the combined length of content and description, used to pick
// the most complete record out of a duplicate group.
func (r Record) TextLength() int {
	return len(r.Content) + len(r.Description)
}

func RecordKey(id string) string {
	return RecordPrefix + id
}

func SummaryKey(id string) string {
	return SummaryPrefix + id
}

// QueryKey builds the cache key of a fetch query.
func QueryKey(source, category, keyword string, limit int) string {
	return fmt.Sprintf("%s%s:%s:%s:%d", QueryPrefix,
		strings.ToLower(source), strings.ToLower(category), strings.ToLower(keyword), limit)
}

// FilterByCategory keeps records whose category contains the given one,
// case-insensitively.
func FilterByCategory(records []Record, category string) []Record {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Category != "" && strings.Contains(strings.ToLower(r.Category), category) {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps records mentioning keyword in title, description or content.
func Search(records []Record, keyword string) []Record {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Title), keyword) ||
			strings.Contains(strings.ToLower(r.Description), keyword) ||
			strings.Contains(strings.ToLower(r.Content), keyword) {
			out = append(out, r)
		}
	}
	return out
}

// SortByPublished sorts newest first, keeping input order for equal timestamps.
func SortByPublished(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})
}
