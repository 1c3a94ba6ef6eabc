package service

import (
	"errors"
	"testing"

	"github.com/aurafolio/internal/db"
)

func TestTaxonomyService_CountsOnlyPublishedPosts(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewTaxonomyService(gdb)

	category := db.Category{Name: "Databases"}
	if err := gdb.Create(&category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	empty := db.Category{Name: "Empty"}
	if err := gdb.Create(&empty).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	tag := db.Tag{Name: "Postgres"}
	if err := gdb.Create(&tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}

	createPost(t, gdb, db.Post{Title: "Vacuum", Status: db.PostStatusPublished, CategoryID: &category.ID, Tags: []db.Tag{tag}})
	createPost(t, gdb, db.Post{Title: "Indexes", Status: db.PostStatusPublished, CategoryID: &category.ID})
	createPost(t, gdb, db.Post{Title: "WAL draft", CategoryID: &category.ID, Tags: []db.Tag{tag}})

	categories, err := svc.Categories()
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	counts := map[string]int64{}
	for _, c := range categories {
		counts[c.Slug] = c.PostCount
	}
	if counts["databases"] != 2 || counts["empty"] != 0 {
		t.Fatalf("unexpected category counts %v", counts)
	}

	tags, err := svc.Tags()
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(tags) != 1 || tags[0].PostCount != 1 {
		t.Fatalf("unexpected tag counts %+v", tags)
	}
}

func TestTaxonomyService_LookupBySlug(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewTaxonomyService(gdb)

	if err := gdb.Create(&db.Category{Name: "Site Reliability"}).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	category, err := svc.CategoryBySlug("site-reliability")
	if err != nil || category.Name != "Site Reliability" {
		t.Fatalf("lookup category: %v %+v", err, category)
	}
	if _, err := svc.CategoryBySlug("missing"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	if _, err := svc.TagBySlug("missing"); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}
}

func TestEnsureTagIsIdempotent(t *testing.T) {
	gdb := setupServiceTestDB(t)

	first, err := EnsureTagTx(gdb, "  Go  ")
	if err != nil {
		t.Fatalf("ensure tag: %v", err)
	}
	second, err := EnsureTagTx(gdb, "Go")
	if err != nil {
		t.Fatalf("ensure tag again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same tag, got %d and %d", first.ID, second.ID)
	}

	var count int64
	gdb.Model(&db.Tag{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 tag, got %d", count)
	}

	if _, err := EnsureTagTx(gdb, " "); !errors.Is(err, ErrTagNameRequired) {
		t.Fatalf("expected ErrTagNameRequired, got %v", err)
	}
}

func TestReplacePostTagsRejectsUnknownIDs(t *testing.T) {
	gdb := setupServiceTestDB(t)

	tag := db.Tag{Name: "Rust"}
	if err := gdb.Create(&tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	post := createPost(t, gdb, db.Post{Title: "Ownership"})

	if err := ReplacePostTags(gdb, &post, []uint{tag.ID, tag.ID}); err != nil {
		t.Fatalf("replace tags: %v", err)
	}
	if n := gdb.Model(&post).Association("Tags").Count(); n != 1 {
		t.Fatalf("expected 1 tag association, got %d", n)
	}

	if err := ReplacePostTags(gdb, &post, []uint{tag.ID, 404}); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}

	if err := ReplacePostTags(gdb, &post, nil); err != nil {
		t.Fatalf("clear tags: %v", err)
	}
	if n := gdb.Model(&post).Association("Tags").Count(); n != 0 {
		t.Fatalf("expected tags cleared, got %d", n)
	}
}
