package index

import (
	"encoding/json"
	"fmt"
)

// GraphNode is one guide in the cross-reference graph.
type GraphNode struct {
	Path  string   `json:"path"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// GraphEdge is a directed guide-to-guide reference.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph returns every guide and the distinct guide-to-guide edges between
// them. Links to assets and to missing guides are excluded; the contract
// checks report the latter separately.
func (db *DB) Graph() ([]GraphNode, []GraphEdge, error) {
	rows, err := db.conn.Query(`SELECT path, title, tags FROM guides ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer rows.Close()

	var nodes []GraphNode
	for rows.Next() {
		var n GraphNode
		var tagsJSON string
		if err := rows.Scan(&n.Path, &n.Title, &tagsJSON); err != nil {
			return nil, nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	edgeRows, err := db.conn.Query(`
		SELECT DISTINCT l.source, l.target
		FROM links l
		JOIN guides g ON g.path = l.target
		WHERE l.kind != 'image'
		ORDER BY l.source, l.target
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []GraphEdge
	for edgeRows.Next() {
		var e GraphEdge
		if err := edgeRows.Scan(&e.Source, &e.Target); err != nil {
			return nil, nil, err
		}
		edges = append(edges, e)
	}
	return nodes, edges, edgeRows.Err()
}
