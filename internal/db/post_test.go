package db

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupModelTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:db-models-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func TestPostSlugDefaultsToSlugifiedTitle(t *testing.T) {
	gdb := setupModelTestDB(t)

	post := Post{Title: "Building a Log Pipeline in Go", Content: "body"}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	if post.Slug != "building-a-log-pipeline-in-go" {
		t.Fatalf("unexpected slug %q", post.Slug)
	}
	if post.Slug != Slugify(post.Title) {
		t.Fatalf("slug should equal slugify(title)")
	}
}

func TestPostKeepsExplicitSlug(t *testing.T) {
	gdb := setupModelTestDB(t)

	post := Post{Title: "Anything", Slug: " custom-slug "}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Slug != "custom-slug" {
		t.Fatalf("expected explicit slug to be kept, got %q", post.Slug)
	}
}

func TestPostReadingTimeComputedOnSave(t *testing.T) {
	gdb := setupModelTestDB(t)

	post := Post{Title: "Words", Content: strings.TrimSpace(strings.Repeat("lorem ", 640))}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ReadingTime != 3 {
		t.Fatalf("expected reading time 3, got %d", post.ReadingTime)
	}

	post.Content = "short"
	if err := gdb.Save(&post).Error; err != nil {
		t.Fatalf("save post: %v", err)
	}

	var reloaded Post
	if err := gdb.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.ReadingTime != 1 {
		t.Fatalf("expected minimum reading time 1, got %d", reloaded.ReadingTime)
	}
}

func TestPostPublishedAtFollowsStatus(t *testing.T) {
	gdb := setupModelTestDB(t)

	post := Post{Title: "Draft first", Content: "text"}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Status != PostStatusDraft || post.PublishedAt != nil {
		t.Fatalf("new post should be an unpublished draft, got %q %v", post.Status, post.PublishedAt)
	}

	post.Status = PostStatusPublished
	if err := gdb.Save(&post).Error; err != nil {
		t.Fatalf("publish post: %v", err)
	}
	if post.PublishedAt == nil {
		t.Fatalf("publishing should set published_at")
	}
	first := *post.PublishedAt

	post.Title = "Edited after publish"
	if err := gdb.Save(&post).Error; err != nil {
		t.Fatalf("edit post: %v", err)
	}
	if !post.PublishedAt.Equal(first) {
		t.Fatalf("published_at should be kept on later saves")
	}

	post.Status = PostStatusDraft
	if err := gdb.Save(&post).Error; err != nil {
		t.Fatalf("unpublish post: %v", err)
	}
	if post.PublishedAt != nil {
		t.Fatalf("reverting to draft should clear published_at")
	}
}

func TestPostPublishedAtStoredInUTC(t *testing.T) {
	gdb := setupModelTestDB(t)

	shanghai := time.FixedZone("CST", 8*3600)
	local := time.Date(2024, time.June, 1, 7, 30, 0, 0, shanghai)
	post := Post{Title: "Early bird", Content: "text", Status: PostStatusPublished, PublishedAt: &local}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.PublishedAt.Location() != time.UTC || !post.PublishedAt.Equal(local) {
		t.Fatalf("expected same instant in UTC, got %v", post.PublishedAt)
	}

	// 按 UTC 五月区间查询应命中
	mayStart := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	var count int64
	gdb.Model(&Post{}).
		Where("published_at >= ? AND published_at < ?", mayStart, mayStart.AddDate(0, 1, 0)).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected post in May (UTC), got %d", count)
	}

	draft := Post{Title: "Later", Content: "text"}
	gdb.Create(&draft)
	draft.Status = PostStatusPublished
	draft.SyncPublishedAt(local)
	if draft.PublishedAt.Location() != time.UTC {
		t.Fatalf("expected generated published_at in UTC, got %v", draft.PublishedAt.Location())
	}
}

func TestDuplicateSlugIsRejected(t *testing.T) {
	gdb := setupModelTestDB(t)

	if err := gdb.Create(&Category{Name: "Go", Slug: "go"}).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	err := gdb.Create(&Category{Name: "Golang", Slug: "go"}).Error
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	if err := gdb.Create(&Tag{Name: "Systems"}).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	err = gdb.Create(&Tag{Name: "Systems!", Slug: "systems"}).Error
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate tag slug error, got %v", err)
	}
}

func TestSystemModuleClampsCompletion(t *testing.T) {
	gdb := setupModelTestDB(t)

	module := SystemModule{Title: "Telemetry Hub", CompletionPercent: 140, Status: "unknown"}
	if err := gdb.Create(&module).Error; err != nil {
		t.Fatalf("create module: %v", err)
	}
	if module.CompletionPercent != 100 {
		t.Fatalf("expected completion clamped to 100, got %d", module.CompletionPercent)
	}
	if module.Status != SystemStatusPlanning {
		t.Fatalf("expected invalid status to fall back to planning, got %q", module.Status)
	}
	if module.Slug != "telemetry-hub" {
		t.Fatalf("unexpected slug %q", module.Slug)
	}
}

func TestSkillProficiencyClamped(t *testing.T) {
	gdb := setupModelTestDB(t)

	skill := Skill{Name: "Distributed Systems", Proficiency: 9}
	if err := gdb.Create(&skill).Error; err != nil {
		t.Fatalf("create skill: %v", err)
	}
	if skill.Proficiency != MaxProficiency {
		t.Fatalf("expected proficiency %d, got %d", MaxProficiency, skill.Proficiency)
	}
}
