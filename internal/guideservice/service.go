// Package guideservice coordinates storage, index and contract checks
// behind one API used by the HTTP handlers and the MCP server.
package guideservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/binhphanhai/crambook/internal/apperr"
	"github.com/binhphanhai/crambook/internal/checksum"
	"github.com/binhphanhai/crambook/internal/index"
	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/markdown"
	"github.com/binhphanhai/crambook/internal/models"
	"github.com/binhphanhai/crambook/internal/storage"
)

// GuideDetail is the full representation of a guide.
type GuideDetail struct {
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Checksum    string            `json:"checksum"`
	Tags        []string          `json:"tags"`
	Frontmatter map[string]any    `json:"frontmatter,omitempty"`
	Outline     []models.Heading  `json:"outline"`
	Stats       GuideStats        `json:"stats"`
	Issues      []lint.Issue      `json:"issues"`
	Backlinks   []models.Backlink `json:"backlinks"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// GuideStats are the per-guide structural counters.
type GuideStats struct {
	Words      int `json:"words"`
	Headings   int `json:"headings"`
	CodeBlocks int `json:"code_blocks"`
	Tables     int `json:"tables"`
	Links      int `json:"links"`
}

// GuideListItem is a lightweight item in a list response.
type GuideListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Words     int       `json:"words"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store    storage.Provider
	db       *index.DB
	lintOpts lint.Options
}

// NewService creates a new guide service.
func NewService(store storage.Provider, db *index.DB, lintOpts lint.Options) *Service {
	return &Service{store: store, db: db, lintOpts: lintOpts}
}

// GetGuide reads a guide from storage, parses it, and enriches it with
// backlinks and recorded contract issues.
func (s *Service) GetGuide(_ context.Context, path string) (*GuideDetail, error) {
	if err := requireGuidePath(path); err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildGuideDetail(path, data)
}

// CreateGuide writes a new guide and indexes it.
func (s *Service) CreateGuide(_ context.Context, path string, content []byte) (*GuideDetail, error) {
	if err := requireGuidePath(path); err != nil {
		return nil, err
	}
	if ok, err := s.store.Exists(path); err != nil {
		return nil, err
	} else if ok {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildGuideDetail(path, content)
}

// UpdateGuide writes updated content with optimistic concurrency: a
// non-empty ifMatch must equal the checksum of the content being replaced.
func (s *Service) UpdateGuide(_ context.Context, path string, content []byte, ifMatch string) (*GuideDetail, error) {
	if err := requireGuidePath(path); err != nil {
		return nil, err
	}
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildGuideDetail(path, content)
}

// DeleteGuide removes a guide from storage and index.
func (s *Service) DeleteGuide(_ context.Context, path string) error {
	if err := requireGuidePath(path); err != nil {
		return err
	}
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteGuide(path)
}

// MoveGuide renames a guide. Links elsewhere that pointed at the old path
// go stale; the next contract check reports them.
func (s *Service) MoveGuide(_ context.Context, oldPath, newPath string) (*GuideDetail, error) {
	if err := requireGuidePath(oldPath); err != nil {
		return nil, err
	}
	if err := requireGuidePath(newPath); err != nil {
		return nil, err
	}
	if ok, err := s.store.Exists(oldPath); err != nil {
		return nil, err
	} else if !ok {
		return nil, apperr.ErrNotFound
	}
	if ok, err := s.store.Exists(newPath); err != nil {
		return nil, err
	} else if ok {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Move(oldPath, newPath); err != nil {
		return nil, err
	}
	if err := s.db.DeleteGuide(oldPath); err != nil {
		return nil, err
	}
	data, err := s.store.Read(newPath)
	if err != nil {
		return nil, err
	}
	if err := s.IndexFile(newPath, data); err != nil {
		return nil, err
	}
	return s.buildGuideDetail(newPath, data)
}

// ListGuides returns paginated guides with optional tag, prefix and sort.
func (s *Service) ListGuides(_ context.Context, opts index.ListOptions) ([]GuideListItem, int, error) {
	rows, total, err := s.db.ListGuides(opts)
	if err != nil {
		return nil, 0, err
	}
	items := make([]GuideListItem, len(rows))
	for i, r := range rows {
		items[i] = GuideListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			Words:     r.Words,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

// Graph returns all nodes and edges for cross-reference visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphEdge, error) {
	nodes, edges, err := s.db.Graph()
	if err != nil {
		return nil, nil, err
	}
	return nonNilSlice(nodes), nonNilSlice(edges), nil
}

// Backlinks returns every stored reference to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]models.Backlink, error) {
	rows, err := s.db.Backlinks(target)
	if err != nil {
		return nil, err
	}
	return backlinksFromRows(rows), nil
}

// Report reconstructs the last contract check from the stored issues.
func (s *Service) Report(_ context.Context) (*lint.Report, error) {
	issues, err := s.db.AllIssues()
	if err != nil {
		return nil, err
	}
	checkedAt, err := s.db.LastChecked()
	if err != nil {
		return nil, err
	}
	paths, err := s.db.AllPaths()
	if err != nil {
		return nil, err
	}
	report := &lint.Report{
		GeneratedAt: checkedAt,
		Checked:     len(paths),
		Issues:      nonNilSlice(issues),
	}
	for _, is := range issues {
		if is.Severity == lint.SeverityError {
			report.Errors++
		} else {
			report.Warnings++
		}
	}
	return report, nil
}

// Stats returns corpus-wide aggregates.
func (s *Service) Stats(_ context.Context) (*index.Stats, error) {
	return s.db.CorpusStats()
}

// CheckCorpus runs the full contract check against the current corpus
// state. Unlike Report it re-reads every guide instead of returning the
// stored result of the last watcher pass.
func (s *Service) CheckCorpus(_ context.Context) (*lint.Report, error) {
	return lint.CheckCorpus(s.store, s.lintOpts)
}

// CheckContent runs the contract checks against arbitrary content as if it
// lived at path, resolving cross-references through the live index. The
// content itself is not written or indexed.
func (s *Service) CheckContent(_ context.Context, path string, content []byte) ([]lint.Issue, error) {
	if err := requireGuidePath(path); err != nil {
		return nil, err
	}
	doc, err := markdown.Parse(path, content)
	if err != nil {
		return nil, err
	}
	res := indexResolver{db: s.db, store: s.store}
	return lint.CheckGuide(path, content, doc, res, s.lintOpts), nil
}

// IndexFile parses data and upserts it into the index.
// Exported so the entry wiring can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	doc, err := markdown.Parse(path, data)
	if err != nil {
		return err
	}
	return s.db.UpsertGuide(index.GuideRow{
		Path:       path,
		Title:      doc.Title,
		Checksum:   checksum.Sum(data),
		Tags:       nonNilSlice(doc.Tags()),
		Words:      doc.Words,
		Headings:   len(doc.Headings),
		CodeBlocks: len(doc.CodeBlocks),
		Tables:     doc.Tables,
		UpdatedAt:  time.Now().UTC(),
	}, doc.Body, doc.Headings, doc.Links)
}

// buildGuideDetail constructs a GuideDetail from raw data without
// re-reading the file.
func (s *Service) buildGuideDetail(path string, data []byte) (*GuideDetail, error) {
	doc, err := markdown.Parse(path, data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	issues, err := s.db.IssuesFor(path)
	if err != nil {
		return nil, err
	}

	updatedAt := time.Now().UTC()
	if row, err := s.db.GetGuide(path); err == nil && row != nil {
		updatedAt = row.UpdatedAt
	}

	return &GuideDetail{
		Path:        path,
		Title:       doc.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(doc.Tags()),
		Frontmatter: doc.Meta.Map(),
		Outline:     nonNilSlice(doc.Headings),
		Stats: GuideStats{
			Words:      doc.Words,
			Headings:   len(doc.Headings),
			CodeBlocks: len(doc.CodeBlocks),
			Tables:     doc.Tables,
			Links:      len(doc.Links),
		},
		Issues:    nonNilSlice(issues),
		Backlinks: backlinksFromRows(bl),
		UpdatedAt: updatedAt,
	}, nil
}

// indexResolver answers lint resolution questions from the live index and
// the file tree.
type indexResolver struct {
	db    *index.DB
	store storage.Provider
}

func (r indexResolver) GuideExists(path string) bool {
	ok, err := r.db.GuideExists(path)
	return err == nil && ok
}

func (r indexResolver) AnchorExists(path, anchor string) bool {
	ok, err := r.db.AnchorExists(path, anchor)
	return err == nil && ok
}

func (r indexResolver) AssetExists(path string) bool {
	ok, err := r.store.Exists(path)
	return err == nil && ok
}

func backlinksFromRows(rows []index.LinkRow) []models.Backlink {
	out := make([]models.Backlink, len(rows))
	for i, l := range rows {
		out[i] = models.Backlink{Path: l.Source, Anchor: l.Anchor, Line: l.Line}
	}
	return out
}

func requireGuidePath(path string) error {
	if path == "" {
		return fmt.Errorf("guideservice: empty path: %w", apperr.ErrInvalidPath)
	}
	if !strings.HasSuffix(path, ".md") || path == ".md" {
		return fmt.Errorf("guideservice: not a guide path: %s: %w", path, apperr.ErrInvalidPath)
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
