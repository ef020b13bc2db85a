package api

import (
	"github.com/binhphanhai/crambook/internal/guideservice"
	"github.com/binhphanhai/crambook/internal/index"
)

// CreateGuideRequest is the request body for creating a guide.
type CreateGuideRequest struct {
	Path    string `json:"path" example:"react/hooks.md" validate:"required"`
	Content string `json:"content" example:"---\ntitle: Hooks\n---\n\n# Hooks" validate:"required"`
}

// UpdateGuideRequest is the request body for updating a guide.
type UpdateGuideRequest struct {
	Content string `json:"content" validate:"required"`
}

// MoveGuideRequest is the request body for re-homing a guide under a new path.
type MoveGuideRequest struct {
	From string `json:"from" example:"react/hooks.md" validate:"required"`
	To   string `json:"to" example:"react/advanced/hooks.md" validate:"required"`
}

// GuideDetail is the full guide response type (aliased from the domain layer).
type GuideDetail = guideservice.GuideDetail

// GuideListItem is a lightweight item in a list response (aliased from the domain layer).
type GuideListItem = guideservice.GuideListItem

// GuideListResponse wraps paginated guide listings.
type GuideListResponse struct {
	Guides []GuideListItem `json:"guides" validate:"required"`
	Total  int             `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// GraphResponse wraps the guide cross-reference graph.
type GraphResponse struct {
	Nodes []index.GraphNode `json:"nodes" validate:"required"`
	Edges []index.GraphEdge `json:"edges" validate:"required"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"diagram.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/attachments/diagram.png" validate:"required"`
}
