package index

import (
	"time"

	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/models"
)

// GuideIndex defines the interface for guide indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type GuideIndex interface {
	UpsertGuide(g GuideRow, body string, headings []models.Heading, links []models.LinkRef) error
	DeleteGuide(path string) error
	GetGuide(path string) (*GuideRow, error)
	GetChecksum(path string) (string, error)
	GuideExists(path string) (bool, error)
	AnchorExists(path, anchor string) (bool, error)
	ListGuides(opts ListOptions) ([]GuideRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph() ([]GraphNode, []GraphEdge, error)
	Backlinks(target string) ([]LinkRow, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	ReplaceIssues(issues []lint.Issue, checkedAt time.Time) error
	IssuesFor(path string) ([]lint.Issue, error)
	AllIssues() ([]lint.Issue, error)
	LastChecked() (time.Time, error)
	CorpusStats() (*Stats, error)
	Close() error
}

// Verify *DB satisfies GuideIndex at compile time.
var _ GuideIndex = (*DB)(nil)
