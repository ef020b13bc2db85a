package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/binhphanhai/crambook/internal/guideservice"
	"github.com/binhphanhai/crambook/internal/index"
	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/storage"
)

// apiEnv bundles a temp corpus, SQLite index, domain service and the
// assembled router for handler tests.
type apiEnv struct {
	store  storage.Provider
	db     *index.DB
	svc    *guideservice.Service
	router http.Handler
	root   string
}

// newEnv builds an apiEnv. authToken == "" means auth disabled; a non-empty
// token enables Bearer auth with that token.
func newEnv(t *testing.T, authToken string) *apiEnv {
	t.Helper()
	return newEnvSSE(t, authToken, nil)
}

func newEnvSSE(t *testing.T, authToken string, sseHandler http.Handler) *apiEnv {
	t.Helper()

	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "crambook-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := guideservice.NewService(store, db, lint.Options{})
	router := NewRouter(svc, authToken != "", authToken, sseHandler, root)
	return &apiEnv{store: store, db: db, svc: svc, router: router, root: root}
}

func (e *apiEnv) createGuide(t *testing.T, path, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(CreateGuideRequest{Path: path, Content: content})
	req := httptest.NewRequest(http.MethodPost, "/guides", bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetGuide(t *testing.T) {
	env := newEnv(t, "")

	const content = "---\ntitle: Mocking in Tests\ntags:\n  - testing\n---\n\n# Mocking in Tests\n\n## Setup\n\nStubs replace collaborators with canned answers.\n"
	w := env.createGuide(t, "testing/mocking.md", content)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") == "" {
		t.Error("create response missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/guides/testing/mocking.md", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var guide GuideDetail
	_ = json.Unmarshal(w.Body.Bytes(), &guide)
	if guide.Path != "testing/mocking.md" {
		t.Errorf("path = %q", guide.Path)
	}
	if guide.Title != "Mocking in Tests" {
		t.Errorf("title = %q, want Mocking in Tests", guide.Title)
	}
	if len(guide.Outline) != 2 {
		t.Errorf("outline entries = %d, want 2", len(guide.Outline))
	}
	if len(guide.Tags) != 1 || guide.Tags[0] != "testing" {
		t.Errorf("tags = %v", guide.Tags)
	}
	if guide.Stats.Words == 0 {
		t.Error("stats.words = 0, want > 0")
	}
	if got := w.Header().Get("ETag"); got != `"`+guide.Checksum+`"` {
		t.Errorf("ETag = %q, checksum = %q", got, guide.Checksum)
	}
}

func TestCreateDuplicate(t *testing.T) {
	env := newEnv(t, "")

	if w := env.createGuide(t, "dup.md", "# Dup\n"); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	if w := env.createGuide(t, "dup.md", "# Dup\n"); w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestInvalidGuidePathRejected(t *testing.T) {
	env := newEnv(t, "")

	// Wrong extension via create.
	if w := env.createGuide(t, "cheatsheet.txt", "plain text"); w.Code != http.StatusBadRequest {
		t.Errorf("create .txt = %d, want 400", w.Code)
	}
	// Traversal via create.
	if w := env.createGuide(t, "../escape.md", "# Escape\n"); w.Code != http.StatusBadRequest {
		t.Errorf("create traversal = %d, want 400", w.Code)
	}
	// Wrong extension via get.
	req := httptest.NewRequest(http.MethodGet, "/guides/cheatsheet.txt", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("get .txt = %d, want 400", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	env := newEnv(t, "")

	w := env.createGuide(t, "lock.md", "# Lock\n\nv1\n")
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	etag := w.Header().Get("ETag")

	// Update with the quoted ETag from the create response.
	updateBody, _ := json.Marshal(UpdateGuideRequest{Content: "# Lock\n\nv2\n"})
	req := httptest.NewRequest(http.MethodPut, "/guides/lock.md", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", etag)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Same ETag is stale now.
	req = httptest.NewRequest(http.MethodPut, "/guides/lock.md", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", etag)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}
}

func TestUpdateWithoutIfMatch(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "nolock.md", "# Free\n\nv1\n")

	updateBody, _ := json.Marshal(UpdateGuideRequest{Content: "# Free\n\nv2\n"})
	req := httptest.NewRequest(http.MethodPut, "/guides/nolock.md", bytes.NewReader(updateBody))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestDeleteGuide(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "bye.md", "# Bye\n")

	req := httptest.NewRequest(http.MethodDelete, "/guides/bye.md", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/guides/bye.md", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/guides/bye.md", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestMoveGuide(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "floating.md", "# Floating\n")

	body, _ := json.Marshal(MoveGuideRequest{From: "floating.md", To: "topics/floating.md"})
	req := httptest.NewRequest(http.MethodPost, "/guides/move", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("move = %d, body = %s", w.Code, w.Body.String())
	}
	var moved GuideDetail
	_ = json.Unmarshal(w.Body.Bytes(), &moved)
	if moved.Path != "topics/floating.md" {
		t.Errorf("moved path = %q", moved.Path)
	}

	// Old path is gone, new path is served.
	req = httptest.NewRequest(http.MethodGet, "/guides/floating.md", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get old path = %d, want 404", w.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/guides/topics/floating.md", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("get new path = %d, want 200", w.Code)
	}
}

func TestMoveGuide_Collisions(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "a.md", "# A\n")
	env.createGuide(t, "b.md", "# B\n")

	// Destination occupied.
	body, _ := json.Marshal(MoveGuideRequest{From: "a.md", To: "b.md"})
	req := httptest.NewRequest(http.MethodPost, "/guides/move", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("move onto existing = %d, want 409", w.Code)
	}

	// Missing source.
	body, _ = json.Marshal(MoveGuideRequest{From: "ghost.md", To: "c.md"})
	req = httptest.NewRequest(http.MethodPost, "/guides/move", bytes.NewReader(body))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("move missing source = %d, want 404", w.Code)
	}
}

func TestListGuides(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "intro.md", "---\ntitle: Intro\ntags:\n  - basics\n---\n\n# Intro\n")
	env.createGuide(t, "react/hooks.md", "---\ntitle: Hooks\ntags:\n  - react\n---\n\n# Hooks\n")

	req := httptest.NewRequest(http.MethodGet, "/guides?limit=10", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp GuideListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Guides) != 2 {
		t.Errorf("total = %d, guides = %d, want 2/2", resp.Total, len(resp.Guides))
	}

	// Tag filter.
	req = httptest.NewRequest(http.MethodGet, "/guides?tag=react", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	resp = GuideListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Guides) != 1 || resp.Guides[0].Path != "react/hooks.md" {
		t.Errorf("tag filter = %+v", resp.Guides)
	}

	// Prefix filter.
	req = httptest.NewRequest(http.MethodGet, "/guides?prefix=react/", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	resp = GuideListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Guides) != 1 || resp.Guides[0].Path != "react/hooks.md" {
		t.Errorf("prefix filter = %+v", resp.Guides)
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "find.md", "# Find\n\nuniquetoken here\n")

	req := httptest.NewRequest(http.MethodGet, "/search?q=uniquetoken", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(resp.Results))
	}
}

func TestSearchMissingQuery(t *testing.T) {
	env := newEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "a.md", "# A\n\nSee [B](b.md).\n")
	env.createGuide(t, "b.md", "# B\n\nBack to [A](a.md).\n")

	req := httptest.NewRequest(http.MethodGet, "/graph", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("graph = %d", w.Code)
	}
	var resp GraphResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(resp.Nodes))
	}
	if len(resp.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(resp.Edges))
	}
}

func TestReportEndpoint(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "broken.md", "# Broken\n\nSee [missing](missing.md).\n")

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := index.Relint(env.db, env.store, lint.Options{}, quiet); err != nil {
		t.Fatalf("Relint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("report = %d", w.Code)
	}
	var report lint.Report
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if report.Checked != 1 {
		t.Errorf("checked = %d, want 1", report.Checked)
	}
	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}
	if len(report.Issues) != 1 || report.Issues[0].Rule != lint.RuleLinkResolves {
		t.Errorf("issues = %+v", report.Issues)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("generated_at is zero")
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newEnv(t, "")

	env.createGuide(t, "one.md", "---\ntitle: One\ntags:\n  - react\n---\n\n# One\n\nWords here.\n")
	env.createGuide(t, "two.md", "# Two\n\nMore words.\n")

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var stats index.Stats
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Guides != 2 {
		t.Errorf("guides = %d, want 2", stats.Guides)
	}
	if stats.Words == 0 {
		t.Error("words = 0, want > 0")
	}
	if stats.Tags["react"] != 1 {
		t.Errorf("tags[react] = %d, want 1", stats.Tags["react"])
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newEnv(t, "secret123")

	body, _ := json.Marshal(CreateGuideRequest{Path: "auth.md", Content: "# Auth\n"})
	req := httptest.NewRequest(http.MethodPost, "/guides", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	env := newEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/guides", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/guides", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/guides", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestGetGuide_NotFound(t *testing.T) {
	env := newEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/guides/nope.md", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing guide = %d, want 404", w.Code)
	}
}

func TestUpdateGuide_NotFound(t *testing.T) {
	env := newEnv(t, "")

	body, _ := json.Marshal(UpdateGuideRequest{Content: "# Ghost\n"})
	req := httptest.NewRequest(http.MethodPut, "/guides/ghost.md", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	env := newEnvSSE(t, "secret", stubSSEHandler())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	env := newEnvSSE(t, "", stubSSEHandler())

	// Disabled mode → should not 401. The stub blocks until context done,
	// so cancel after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	env := newEnvSSE(t, "tok", stubSSEHandler())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// stubSSEHandler writes SSE headers and blocks until the request context is
// cancelled, mimicking the real broker endpoint.
func stubSSEHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

// Attachment tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServeAttachment(t *testing.T) {
	env := newEnv(t, "")

	w := uploadFile(t, env.router, "diagram.png", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Filename != "diagram.png" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if resp.URL != "/attachments/diagram.png" {
		t.Errorf("url = %q", resp.URL)
	}

	// Verify file on disk.
	data, err := os.ReadFile(filepath.Join(env.root, "attachments", "diagram.png"))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-png-data" {
		t.Errorf("content mismatch")
	}
}

func TestServeAttachment_NotFound(t *testing.T) {
	ah := NewAttachmentHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", ah.ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/attachments/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing attachment = %d, want 404", w.Code)
	}
}

func TestServeAttachment_TraversalBlocked(t *testing.T) {
	ah := NewAttachmentHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", ah.ServeFile)

	for _, name := range []string{"../secret.md", "../../etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/attachments/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		// chi may not route the traversal paths at all (404), or our handler rejects (400).
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}

func TestUploadAttachment_InvalidFilename(t *testing.T) {
	env := newEnv(t, "")
	// multipart headers may clean "../" so we also verify the file doesn't land outside.
	w := uploadFile(t, env.router, "../escape.txt", []byte("bad"))
	if w.Code == http.StatusCreated {
		if _, err := os.Stat(filepath.Join(env.root, "..", "escape.txt")); err == nil {
			t.Error("file escaped corpus directory")
		}
	}
}

func TestUploadAttachment_AuthProtected(t *testing.T) {
	env := newEnv(t, "secret")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "x.png")
	_, _ = part.Write([]byte("data"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("upload no auth = %d, want 401", w.Code)
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	env := newEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
