package guideservice

import (
	"context"
	"errors"
	"testing"

	"github.com/binhphanhai/crambook/internal/apperr"
	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/testutil"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	dir, store := testutil.TestCorpus(t)
	db := testutil.TestDB(t)
	return NewService(store, db, lint.Options{}), dir
}

func TestCreateAndGetGuide(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	content := []byte("---\ntitle: Hooks\ntags: [react]\n---\n# Hooks\n\n## Rules\n")
	created, err := svc.CreateGuide(ctx, "react/hooks.md", content)
	if err != nil {
		t.Fatalf("CreateGuide: %v", err)
	}
	if created.Title != "Hooks" || created.Checksum == "" {
		t.Errorf("created = %+v", created)
	}
	if len(created.Outline) != 2 || created.Outline[1].Anchor != "rules" {
		t.Errorf("outline = %+v", created.Outline)
	}

	got, err := svc.GetGuide(ctx, "react/hooks.md")
	if err != nil {
		t.Fatalf("GetGuide: %v", err)
	}
	if got.Content != string(content) {
		t.Errorf("content mismatch")
	}
	if got.Stats.Headings != 2 {
		t.Errorf("stats = %+v", got.Stats)
	}

	// Second create on the same path conflicts.
	if _, err := svc.CreateGuide(ctx, "react/hooks.md", content); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v, want ErrAlreadyExists", err)
	}
}

func TestGetGuide_NotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.GetGuide(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateGuide_OptimisticConcurrency(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	created, err := svc.CreateGuide(ctx, "a.md", []byte("# One\n"))
	if err != nil {
		t.Fatalf("CreateGuide: %v", err)
	}

	// Stale checksum is rejected.
	if _, err := svc.UpdateGuide(ctx, "a.md", []byte("# Two\n"), "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}

	updated, err := svc.UpdateGuide(ctx, "a.md", []byte("# Two\n"), created.Checksum)
	if err != nil {
		t.Fatalf("UpdateGuide: %v", err)
	}
	if updated.Title != "Two" {
		t.Errorf("title = %q, want Two", updated.Title)
	}
}

func TestDeleteGuide(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, _ = svc.CreateGuide(ctx, "del.md", []byte("# Bye\n"))
	if err := svc.DeleteGuide(ctx, "del.md"); err != nil {
		t.Fatalf("DeleteGuide: %v", err)
	}
	if _, err := svc.GetGuide(ctx, "del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteGuide(ctx, "del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMoveGuide(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, _ = svc.CreateGuide(ctx, "old.md", []byte("# Move Me\n"))
	_, _ = svc.CreateGuide(ctx, "other.md", []byte("# Other\n\n[ref](old.md)\n"))

	moved, err := svc.MoveGuide(ctx, "old.md", "archive/new.md")
	if err != nil {
		t.Fatalf("MoveGuide: %v", err)
	}
	if moved.Path != "archive/new.md" || moved.Title != "Move Me" {
		t.Errorf("moved = %+v", moved)
	}

	if _, err := svc.GetGuide(ctx, "old.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old path err = %v, want ErrNotFound", err)
	}
	got, err := svc.GetGuide(ctx, "archive/new.md")
	if err != nil {
		t.Fatalf("GetGuide(new): %v", err)
	}
	if got.Title != "Move Me" {
		t.Errorf("title = %q", got.Title)
	}

	// Destination collisions are rejected.
	if _, err := svc.MoveGuide(ctx, "other.md", "archive/new.md"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("collision err = %v, want ErrAlreadyExists", err)
	}
	// Missing source is rejected.
	if _, err := svc.MoveGuide(ctx, "gone.md", "x.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing source err = %v, want ErrNotFound", err)
	}
}

func TestBacklinksAcrossGuides(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, _ = svc.CreateGuide(ctx, "target.md", []byte("# Target\n"))
	_, _ = svc.CreateGuide(ctx, "from.md", []byte("# From\n\n[see](target.md#target)\n"))

	got, err := svc.GetGuide(ctx, "target.md")
	if err != nil {
		t.Fatalf("GetGuide: %v", err)
	}
	if len(got.Backlinks) != 1 || got.Backlinks[0].Path != "from.md" || got.Backlinks[0].Anchor != "target" {
		t.Errorf("backlinks = %+v", got.Backlinks)
	}
}

func TestCheckContent(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, _ = svc.CreateGuide(ctx, "real.md", []byte("# Real\n"))

	issues, err := svc.CheckContent(ctx, "draft.md",
		[]byte("# Draft\n\n[ok](real.md)\n[bad](fake.md)\n\n```\nx\n```\n"))
	if err != nil {
		t.Fatalf("CheckContent: %v", err)
	}

	var rules []string
	for _, is := range issues {
		rules = append(rules, is.Rule)
	}
	if len(issues) != 2 {
		t.Fatalf("issues = %v, want link-resolves and fence-language", rules)
	}
	for _, want := range []string{lint.RuleLinkResolves, lint.RuleFenceLanguage} {
		found := false
		for _, r := range rules {
			if r == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing rule %s in %v", want, rules)
		}
	}
}

func TestInvalidGuidePaths(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	for _, p := range []string{"", "notes.txt", ".md", "../escape.md"} {
		if _, err := svc.CreateGuide(ctx, p, []byte("x")); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("CreateGuide(%q) err = %v, want ErrInvalidPath", p, err)
		}
	}
}
