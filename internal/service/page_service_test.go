package service

import (
	"errors"
	"testing"
)

func TestPageService_SaveAboutPage(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPageService(gdb)

	if _, err := svc.GetBySlug(AboutPageSlug); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
	if _, err := svc.SaveAboutPage("About", "   "); !errors.Is(err, ErrPageContentMissing) {
		t.Fatalf("expected ErrPageContentMissing, got %v", err)
	}

	page, err := svc.SaveAboutPage("", "# Hello\n\nI write about distributed systems.")
	if err != nil {
		t.Fatalf("save about page: %v", err)
	}
	if page.Slug != AboutPageSlug || page.Title != "About" {
		t.Fatalf("unexpected page %+v", page)
	}

	updated, err := svc.SaveAboutPage("About me", "Updated body")
	if err != nil {
		t.Fatalf("update about page: %v", err)
	}
	if updated.ID != page.ID || updated.Content != "Updated body" || updated.Title != "About me" {
		t.Fatalf("expected in-place update, got %+v", updated)
	}
}
