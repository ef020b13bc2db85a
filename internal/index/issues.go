package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/binhphanhai/crambook/internal/lint"
)

const metaLintCheckedAt = "lint_checked_at"

// ReplaceIssues swaps the stored contract issues for the whole corpus and
// records when the check ran. Issues from a corpus-wide check always arrive
// complete, so replacement is wholesale.
func (db *DB) ReplaceIssues(issues []lint.Issue, checkedAt time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM issues`); err != nil {
		return fmt.Errorf("index: clear issues: %w", err)
	}
	if len(issues) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO issues (path, rule, severity, line, message) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare issue insert: %w", err)
		}
		defer stmt.Close()
		for _, is := range issues {
			if _, err := stmt.Exec(is.Path, is.Rule, string(is.Severity), is.Line, is.Message); err != nil {
				return fmt.Errorf("index: insert issue: %w", err)
			}
		}
	}
	if _, err := tx.Exec(`
		INSERT INTO corpus_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaLintCheckedAt, checkedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("index: record check time: %w", err)
	}

	return tx.Commit()
}

// IssuesFor returns the stored issues of one guide, ordered by line.
func (db *DB) IssuesFor(path string) ([]lint.Issue, error) {
	return db.queryIssues(`
		SELECT path, rule, severity, line, message FROM issues
		WHERE path = ? ORDER BY line, rule
	`, path)
}

// AllIssues returns every stored issue ordered by path and line.
func (db *DB) AllIssues() ([]lint.Issue, error) {
	return db.queryIssues(`
		SELECT path, rule, severity, line, message FROM issues
		ORDER BY path, line, rule
	`)
}

func (db *DB) queryIssues(query string, args ...any) ([]lint.Issue, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query issues: %w", err)
	}
	defer rows.Close()

	var out []lint.Issue
	for rows.Next() {
		var is lint.Issue
		var sev string
		if err := rows.Scan(&is.Path, &is.Rule, &sev, &is.Line, &is.Message); err != nil {
			return nil, err
		}
		is.Severity = lint.Severity(sev)
		out = append(out, is)
	}
	return out, rows.Err()
}

// LastChecked returns when the stored issues were generated, or the zero
// time when the corpus has never been checked.
func (db *DB) LastChecked() (time.Time, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM corpus_meta WHERE key = ?`, metaLintCheckedAt).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("index: last checked: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("index: parse check time: %w", err)
	}
	return ts, nil
}

// Stats are corpus-wide aggregates for the stats endpoint.
type Stats struct {
	Guides     int            `json:"guides"`
	Words      int            `json:"words"`
	Headings   int            `json:"headings"`
	CodeBlocks int            `json:"code_blocks"`
	Tables     int            `json:"tables"`
	Links      int            `json:"links"`
	Errors     int            `json:"errors"`
	Warnings   int            `json:"warnings"`
	Tags       map[string]int `json:"tags"`
}

// CorpusStats aggregates the index into a Stats snapshot.
func (db *DB) CorpusStats() (*Stats, error) {
	s := &Stats{Tags: make(map[string]int)}

	err := db.conn.QueryRow(`
		SELECT count(*),
		       COALESCE(sum(words), 0),
		       COALESCE(sum(headings), 0),
		       COALESCE(sum(code_blocks), 0),
		       COALESCE(sum(tables), 0)
		FROM guides
	`).Scan(&s.Guides, &s.Words, &s.Headings, &s.CodeBlocks, &s.Tables)
	if err != nil {
		return nil, fmt.Errorf("index: stats guides: %w", err)
	}

	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&s.Links); err != nil {
		return nil, fmt.Errorf("index: stats links: %w", err)
	}
	if err := db.conn.QueryRow(
		`SELECT count(*) FROM issues WHERE severity = ?`, string(lint.SeverityError),
	).Scan(&s.Errors); err != nil {
		return nil, fmt.Errorf("index: stats errors: %w", err)
	}
	if err := db.conn.QueryRow(
		`SELECT count(*) FROM issues WHERE severity = ?`, string(lint.SeverityWarning),
	).Scan(&s.Warnings); err != nil {
		return nil, fmt.Errorf("index: stats warnings: %w", err)
	}

	// Tags are stored as JSON arrays; the histogram is built in Go.
	rows, err := db.conn.Query(`SELECT tags FROM guides`)
	if err != nil {
		return nil, fmt.Errorf("index: stats tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tagsJSON string
		if err := rows.Scan(&tagsJSON); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			continue
		}
		for _, t := range tags {
			s.Tags[t]++
		}
	}
	return s, rows.Err()
}
