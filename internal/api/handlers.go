package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/binhphanhai/crambook/internal/checksum"
	"github.com/binhphanhai/crambook/internal/guideservice"
	"github.com/binhphanhai/crambook/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	svc *guideservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *guideservice.Service) *Handler {
	return &Handler{svc: svc}
}

// guidePath extracts the guide path from the URL (everything after /api/guides/).
// Supports encoded slashes from OpenAPI clients (e.g. react%2Fhooks.md).
func guidePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListGuides handles GET /api/guides.
//
//	@Summary		List guides with optional pagination and filtering
//	@Tags			guides
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by frontmatter tag"
//	@Param			prefix	query		string	false	"Filter by directory prefix, e.g. react/"
//	@Param			sort	query		string	false	"Sort field"	Enums(path, title, updated)
//	@Success		200		{object}	GuideListResponse
//	@Security		BearerAuth
//	@Router			/guides [get]
func (h *Handler) ListGuides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListGuides(r.Context(), index.ListOptions{
		Limit:  limit,
		Offset: offset,
		Tag:    q.Get("tag"),
		Prefix: q.Get("prefix"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		slog.Error("list guides failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, GuideListResponse{Guides: items, Total: total})
}

// GetGuide handles GET /api/guides/*.
//
//	@Summary		Get a single guide by path
//	@Tags			guides
//	@Produce		json
//	@Param			path	path		string	true	"Guide path"
//	@Success		200		{object}	GuideDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/guides/{path} [get]
func (h *Handler) GetGuide(w http.ResponseWriter, r *http.Request) {
	path := guidePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	guide, err := h.svc.GetGuide(r.Context(), path)
	if err != nil {
		serviceError(w, "get guide", path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(guide.Checksum))
	writeJSON(w, http.StatusOK, guide)
}

// CreateGuide handles POST /api/guides.
//
//	@Summary		Create a new guide
//	@Tags			guides
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateGuideRequest	true	"Guide to create"
//	@Success		201		{object}	GuideDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/guides [post]
func (h *Handler) CreateGuide(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	guide, err := h.svc.CreateGuide(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		serviceError(w, "create guide", req.Path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(guide.Checksum))
	writeJSON(w, http.StatusCreated, guide)
}

// UpdateGuide handles PUT /api/guides/*.
//
//	@Summary		Update a guide with optimistic concurrency
//	@Tags			guides
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"Guide path"
//	@Param			If-Match	header	string				false	"Checksum ETag for optimistic concurrency"
//	@Param			body		body	UpdateGuideRequest	true	"Updated content"
//	@Success		200		{object}	GuideDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/guides/{path} [put]
func (h *Handler) UpdateGuide(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := guidePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req UpdateGuideRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := checksum.TrimETag(r.Header.Get("If-Match"))

	guide, err := h.svc.UpdateGuide(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		serviceError(w, "update guide", path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(guide.Checksum))
	writeJSON(w, http.StatusOK, guide)
}

// DeleteGuide handles DELETE /api/guides/*.
//
//	@Summary		Delete a guide
//	@Tags			guides
//	@Param			path	path	string	true	"Guide path"
//	@Success		204		"Guide deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/guides/{path} [delete]
func (h *Handler) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	path := guidePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteGuide(r.Context(), path); err != nil {
		serviceError(w, "delete guide", path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveGuide handles POST /api/guides/move.
//
//	@Summary		Move a guide to a new path
//	@Tags			guides
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveGuideRequest	true	"Source and destination paths"
//	@Success		200		{object}	GuideDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/guides/move [post]
func (h *Handler) MoveGuide(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MoveGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to are required"))
		return
	}
	guide, err := h.svc.MoveGuide(r.Context(), req.From, req.To)
	if err != nil {
		serviceError(w, "move guide", req.From, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(guide.Checksum))
	writeJSON(w, http.StatusOK, guide)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across guides
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the guide cross-reference graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, edges, err := h.svc.Graph(r.Context())
	if err != nil {
		slog.Error("graph failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Edges: edges})
}

// Report handles GET /api/report.
//
//	@Summary		Get the corpus contract report
//	@Tags			report
//	@Produce		json
//	@Success		200	{object}	lint.Report
//	@Security		BearerAuth
//	@Router			/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Report(r.Context())
	if err != nil {
		slog.Error("report failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Stats handles GET /api/stats.
//
//	@Summary		Get corpus-wide statistics
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	index.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
