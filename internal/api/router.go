package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/binhphanhai/crambook/internal/guideservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// corpusRoot is used to resolve the attachments directory.
func NewRouter(svc *guideservice.Service, authEnabled bool, token string, sseHandler http.Handler, corpusRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(corpusRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Guides CRUD.
	r.Get("/guides", h.ListGuides)
	r.Post("/guides", h.CreateGuide)
	r.Post("/guides/move", h.MoveGuide)
	r.Get("/guides/*", h.GetGuide)
	r.Put("/guides/*", h.UpdateGuide)
	r.Delete("/guides/*", h.DeleteGuide)

	// Search.
	r.Get("/search", h.Search)

	// Cross-reference graph.
	r.Get("/graph", h.Graph)

	// Contract report and corpus statistics.
	r.Get("/report", h.Report)
	r.Get("/stats", h.Stats)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
