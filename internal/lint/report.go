package lint

import (
	"fmt"
	"sort"
	"time"

	"github.com/binhphanhai/crambook/internal/markdown"
	"github.com/binhphanhai/crambook/internal/storage"
)

// Report is the outcome of checking the whole corpus.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Checked     int       `json:"checked"`
	Errors      int       `json:"errors"`
	Warnings    int       `json:"warnings"`
	Issues      []Issue   `json:"issues"`
}

// HasErrors reports whether any error-severity issue was found.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// CheckCorpus reads every guide from store, checks cross-guide integrity
// against an in-memory snapshot and returns the aggregate report with
// issues ordered by path and line.
//
// Two passes: the first parses everything so the second can resolve links
// and anchors between guides regardless of order.
func CheckCorpus(store storage.Provider, opts Options) (*Report, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("lint: list corpus: %w", err)
	}

	type parsedGuide struct {
		raw []byte
		doc *markdown.Document
	}
	parsed := make(map[string]*parsedGuide, len(metas))
	for _, m := range metas {
		raw, err := store.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("lint: read %s: %w", m.Path, err)
		}
		doc, err := markdown.Parse(m.Path, raw)
		if err != nil {
			return nil, fmt.Errorf("lint: parse %s: %w", m.Path, err)
		}
		parsed[m.Path] = &parsedGuide{raw: raw, doc: doc}
	}

	res := &corpusResolver{
		guides: make(map[string]map[string]struct{}, len(parsed)),
		store:  store,
	}
	for p, g := range parsed {
		res.guides[p] = g.doc.Anchors()
	}

	report := &Report{GeneratedAt: time.Now().UTC(), Checked: len(parsed), Issues: []Issue{}}
	for p, g := range parsed {
		report.Issues = append(report.Issues, CheckGuide(p, g.raw, g.doc, res, opts)...)
	}
	sort.Slice(report.Issues, func(i, j int) bool {
		a, b := report.Issues[i], report.Issues[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
	for _, is := range report.Issues {
		if is.Severity == SeverityError {
			report.Errors++
		} else {
			report.Warnings++
		}
	}
	return report, nil
}

// corpusResolver resolves targets against the parsed snapshot; assets fall
// through to the store because they are not parsed.
type corpusResolver struct {
	guides map[string]map[string]struct{}
	store  storage.Provider
}

func (r *corpusResolver) GuideExists(path string) bool {
	_, ok := r.guides[path]
	return ok
}

func (r *corpusResolver) AnchorExists(path, anchor string) bool {
	anchors, ok := r.guides[path]
	if !ok {
		return false
	}
	_, ok = anchors[anchor]
	return ok
}

func (r *corpusResolver) AssetExists(path string) bool {
	ok, err := r.store.Exists(path)
	return err == nil && ok
}
