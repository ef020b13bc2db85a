package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/binhphanhai/crambook/internal/models"
)

// GuideRow represents a row in the guides table.
type GuideRow struct {
	Path       string
	Title      string
	Checksum   string
	Tags       []string
	Words      int
	Headings   int
	CodeBlocks int
	Tables     int
	UpdatedAt  time.Time
}

// LinkRow represents a stored cross-reference. Only internal links are
// indexed; external URLs never participate in the graph.
type LinkRow struct {
	Source string
	Target string
	Anchor string
	Kind   string
	Line   int
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// ListOptions filters and pages ListGuides.
type ListOptions struct {
	Limit  int
	Offset int
	Tag    string
	Prefix string // directory prefix, e.g. "react/"
	Sort   string // path (default), title, updated
}

// UpsertGuide inserts or replaces a guide together with its FTS entry,
// anchors and outgoing internal links, in one transaction.
func (db *DB) UpsertGuide(g GuideRow, body string, headings []models.Heading, links []models.LinkRef) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(g.Tags)

	_, err = tx.Exec(`
		INSERT INTO guides (path, title, checksum, tags, body, words, headings, code_blocks, tables, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			checksum    = excluded.checksum,
			tags        = excluded.tags,
			body        = excluded.body,
			words       = excluded.words,
			headings    = excluded.headings,
			code_blocks = excluded.code_blocks,
			tables      = excluded.tables,
			updated_at  = excluded.updated_at
	`, g.Path, g.Title, g.Checksum, string(tagsJSON), body,
		g.Words, g.Headings, g.CodeBlocks, g.Tables, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert guide: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, g.Path, g.Title, body, g.Tags); err != nil {
		return err
	}

	// Replace anchors: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM anchors WHERE path = ?`, g.Path)
	if len(headings) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO anchors (path, anchor, heading, level) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare anchor insert: %w", err)
		}
		defer stmt.Close()
		for _, h := range headings {
			if _, err := stmt.Exec(g.Path, h.Anchor, h.Text, h.Level); err != nil {
				return fmt.Errorf("index: insert anchor: %w", err)
			}
		}
	}

	// Replace outgoing links, keeping only internal ones with a target.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, g.Path)
	var internal []models.LinkRef
	for _, l := range links {
		if l.External || l.Target == "" {
			continue
		}
		internal = append(internal, l)
	}
	if len(internal) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO links (source, target, anchor, kind, line) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range internal {
			if _, err := stmt.Exec(g.Path, l.Target, l.Anchor, string(l.Kind), l.Line); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteGuide removes a guide with its FTS entry, anchors, outgoing links
// and recorded issues.
func (db *DB) DeleteGuide(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM anchors WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM issues WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM guides WHERE path = ?`, path)

	return tx.Commit()
}

// GetGuide returns the stored row for path, or nil when not indexed.
func (db *DB) GetGuide(path string) (*GuideRow, error) {
	var g GuideRow
	var tagsJSON string
	err := db.conn.QueryRow(`
		SELECT path, title, checksum, tags, words, headings, code_blocks, tables, updated_at
		FROM guides WHERE path = ?
	`, path).Scan(&g.Path, &g.Title, &g.Checksum, &tagsJSON,
		&g.Words, &g.Headings, &g.CodeBlocks, &g.Tables, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get guide: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &g.Tags)
	return &g, nil
}

// GetChecksum returns the stored checksum for a guide, or empty string if
// not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM guides WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GuideExists reports whether path is indexed.
func (db *DB) GuideExists(path string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM guides WHERE path = ?`, path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("index: guide exists: %w", err)
	}
	return true, nil
}

// AnchorExists reports whether the guide at path defines the anchor.
func (db *DB) AnchorExists(path, anchor string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM anchors WHERE path = ? AND anchor = ?`, path, anchor).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("index: anchor exists: %w", err)
	}
	return true, nil
}

// ListGuides returns one page of guides plus the total count for the same
// filter.
func (db *DB) ListGuides(opts ListOptions) ([]GuideRow, int, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	where := " WHERE 1=1"
	var args []any
	if opts.Tag != "" {
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+opts.Tag+`"%`)
	}
	if opts.Prefix != "" {
		prefix := strings.TrimSuffix(opts.Prefix, "/") + "/"
		where += ` AND path LIKE ?`
		args = append(args, prefix+"%")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM guides`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count guides: %w", err)
	}

	order := ` ORDER BY path ASC`
	switch opts.Sort {
	case "title":
		order = ` ORDER BY title COLLATE NOCASE ASC, path ASC`
	case "updated":
		order = ` ORDER BY updated_at DESC, path ASC`
	}

	query := `
		SELECT path, title, checksum, tags, words, headings, code_blocks, tables, updated_at
		FROM guides` + where + order + ` LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list guides: %w", err)
	}
	defer rows.Close()

	var out []GuideRow
	for rows.Next() {
		var g GuideRow
		var tagsJSON string
		if err := rows.Scan(&g.Path, &g.Title, &g.Checksum, &tagsJSON,
			&g.Words, &g.Headings, &g.CodeBlocks, &g.Tables, &g.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &g.Tags)
		out = append(out, g)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed guide path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM guides`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed guide.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM guides`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns every stored link pointing at target, ordered by
// source then line.
func (db *DB) Backlinks(target string) ([]LinkRow, error) {
	rows, err := db.conn.Query(`
		SELECT source, target, anchor, kind, line
		FROM links WHERE target = ?
		ORDER BY source ASC, line ASC
	`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Source, &l.Target, &l.Anchor, &l.Kind, &l.Line); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
