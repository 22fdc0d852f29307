package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/deusflow/newslens/internal/lexicon"
	"github.com/deusflow/newslens/internal/news"
	"github.com/deusflow/newslens/internal/textnorm"
)

const (
	MethodTitleOnly    = "title-only"
	MethodTitleContent = "title+content"

	titleWeight   = 0.6
	contentWeight = 0.4
)

// Score describes how alike two records are. All values are in [0,1].
type Score struct {
	Overall           float64 `json:"overall"`
	TitleSimilarity   float64 `json:"titleSimilarity"`
	ContentSimilarity float64 `json:"contentSimilarity"`
	Method            string  `json:"method"`
}

// Match is a record matched against a group primary.
type Match struct {
	Record news.Record `json:"record"`
	Score  Score       `json:"score"`
}

// Group is a set of near-duplicate records around a primary record.
type Group struct {
	Primary      news.Record `json:"primary"`
	Members      []Match     `json:"members"`
	AverageScore float64     `json:"averageScore"`
}

// Result is the outcome of clustering a record list.
type Result struct {
	TotalRecords int           `json:"totalRecords"`
	UniqueCount  int           `json:"uniqueCount"`
	GroupCount   int           `json:"groupCount"`
	Groups       []Group       `json:"groups"`
	Unique       []news.Record `json:"unique"`
	Threshold    float64       `json:"threshold"`
}

// Engine computes Jaccard similarity between records.
type Engine struct {
	norm *textnorm.Normalizer
}

// New creates an engine that filters tokens with the given stop-words.
func New(stop lexicon.WordSet) *Engine {
	return &Engine{norm: textnorm.NewNormalizer(stop)}
}

// Jaccard returns |A∩B| / |A∪B| over the normalized token sets of a and b.
// Two empty sets are identical; one empty set matches nothing.
func (e *Engine) Jaccard(a, b string) float64 {
	sa, sb := e.norm.Set(a), e.norm.Set(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for t := range sa {
		if _, ok := sb[t]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// Similarity compares two records. Titles weigh 60% and bodies 40% when
// both records carry a body; otherwise only titles are compared.
func (e *Engine) Similarity(a, b news.Record) Score {
	title := e.Jaccard(a.Title, b.Title)

	bodyA, bodyB := a.Body(), b.Body()
	if bodyA == "" || bodyB == "" {
		return Score{
			Overall:         round2(title),
			TitleSimilarity: round2(title),
			Method:          MethodTitleOnly,
		}
	}

	content := e.Jaccard(bodyA, bodyB)
	return Score{
		Overall:           round2(title*titleWeight + content*contentWeight),
		TitleSimilarity:   round2(title),
		ContentSimilarity: round2(content),
		Method:            MethodTitleContent,
	}
}

// IsDuplicate reports whether a and b score at or above threshold.
func (e *Engine) IsDuplicate(a, b news.Record, threshold float64) (bool, error) {
	if err := checkThreshold(threshold); err != nil {
		return false, err
	}
	return e.Similarity(a, b).Overall >= threshold, nil
}

// Cluster groups records greedily in input order: each unprocessed record
// collects every later unprocessed record scoring at or above threshold.
// Grouping is single-link and not transitive across groups. Every input
// record lands in exactly one group or in Unique.
func (e *Engine) Cluster(records []news.Record, threshold float64) (Result, error) {
	if err := checkThreshold(threshold); err != nil {
		return Result{}, err
	}

	res := Result{
		TotalRecords: len(records),
		Groups:       []Group{},
		Unique:       []news.Record{},
		Threshold:    threshold,
	}
	processed := make([]bool, len(records))

	for i := range records {
		if processed[i] {
			continue
		}
		group := Group{Primary: records[i]}
		total := 0.0

		for j := i + 1; j < len(records); j++ {
			if processed[j] {
				continue
			}
			s := e.Similarity(records[i], records[j])
			if s.Overall >= threshold {
				group.Members = append(group.Members, Match{Record: records[j], Score: s})
				processed[j] = true
				total += s.Overall
			}
		}
		processed[i] = true

		if len(group.Members) == 0 {
			res.Unique = append(res.Unique, records[i])
			continue
		}
		group.AverageScore = round2(total / float64(len(group.Members)))
		res.Groups = append(res.Groups, group)
	}

	res.GroupCount = len(res.Groups)
	res.UniqueCount = len(res.Unique) + len(res.Groups)
	return res, nil
}

// Dedupe keeps unique records plus the most complete record of each group,
// sorted newest first.
func (e *Engine) Dedupe(records []news.Record, threshold float64) ([]news.Record, error) {
	res, err := e.Cluster(records, threshold)
	if err != nil {
		return nil, err
	}

	out := make([]news.Record, 0, res.UniqueCount)
	out = append(out, res.Unique...)
	for _, g := range res.Groups {
		best := g.Primary
		for _, m := range g.Members {
			if m.Record.TextLength() > best.TextLength() {
				best = m.Record
			}
		}
		out = append(out, best)
	}

	news.SortByPublished(out)
	return out, nil
}

// FindSimilar matches target against candidates, skipping the target itself
// by id. Members are sorted by score, highest first.
func (e *Engine) FindSimilar(target news.Record, candidates []news.Record, threshold float64) (Group, error) {
	if err := checkThreshold(threshold); err != nil {
		return Group{}, err
	}

	group := Group{Primary: target, Members: []Match{}}
	total := 0.0
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		s := e.Similarity(target, c)
		if s.Overall >= threshold {
			group.Members = append(group.Members, Match{Record: c, Score: s})
			total += s.Overall
		}
	}

	if len(group.Members) > 0 {
		group.AverageScore = round2(total / float64(len(group.Members)))
	}
	sort.SliceStable(group.Members, func(i, j int) bool {
		return group.Members[i].Score.Overall > group.Members[j].Score.Overall
	})
	return group, nil
}

func checkThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold %v outside [0,1]: %w", threshold, news.ErrInvalidInput)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
