package service

import (
	"errors"
	"testing"
	"time"

	"github.com/aurafolio/internal/db"
)

func TestSystemService_LinkUpsertsAndValidates(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSystemService(gdb)

	module := db.SystemModule{Title: "Ingest Gateway", Status: db.SystemStatusDeployed}
	if err := gdb.Create(&module).Error; err != nil {
		t.Fatalf("create module: %v", err)
	}
	post := createPost(t, gdb, db.Post{Title: "Gateway retrospective", Status: db.PostStatusPublished})

	entry, err := svc.Link(module.ID, post.ID, LinkInput{})
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if entry.ConnectionType != "reference" || entry.Priority != "medium" || entry.Impact != "minor" {
		t.Fatalf("expected defaults, got %+v", entry)
	}

	entry, err = svc.Link(module.ID, post.ID, LinkInput{ConnectionType: "bug_fix", Priority: "critical", Impact: "breaking", Notes: "hotfix"})
	if err != nil {
		t.Fatalf("relink: %v", err)
	}
	if entry.ConnectionType != "bug_fix" || entry.Priority != "critical" || entry.Notes != "hotfix" {
		t.Fatalf("expected updated link, got %+v", entry)
	}

	var count int64
	gdb.Model(&db.SystemLogEntry{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single link row, got %d", count)
	}

	if _, err := svc.Link(module.ID, post.ID, LinkInput{Priority: "urgent"}); !errors.Is(err, ErrInvalidLinkField) {
		t.Fatalf("expected ErrInvalidLinkField, got %v", err)
	}
	if _, err := svc.Link(9999, post.ID, LinkInput{}); !errors.Is(err, ErrSystemNotFound) {
		t.Fatalf("expected ErrSystemNotFound, got %v", err)
	}

	detail, err := svc.GetBySlug("ingest-gateway")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if len(detail.LogEntries) != 1 || detail.LogEntries[0].Post.ID != post.ID {
		t.Fatalf("expected linked post on detail, got %+v", detail.LogEntries)
	}

	if err := svc.Unlink(module.ID, post.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := svc.Unlink(module.ID, post.ID); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestSystemService_CommitActivityFillsGaps(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSystemService(gdb)

	module := db.SystemModule{Title: "Scheduler"}
	if err := gdb.Create(&module).Error; err != nil {
		t.Fatalf("create module: %v", err)
	}

	now := time.Date(2024, time.June, 10, 18, 0, 0, 0, time.UTC)
	if err := svc.RecordCommits(module.ID, now, 4); err != nil {
		t.Fatalf("record commits: %v", err)
	}
	if err := svc.RecordCommits(module.ID, now.Add(-2*time.Hour), 6); err != nil {
		t.Fatalf("overwrite commits: %v", err)
	}
	if err := svc.RecordCommits(module.ID, now.AddDate(0, 0, -2), 3); err != nil {
		t.Fatalf("record commits: %v", err)
	}
	if err := svc.RecordCommits(module.ID, now.AddDate(0, 0, -30), 9); err != nil {
		t.Fatalf("record old commits: %v", err)
	}

	activity, err := svc.CommitActivity(module.ID, 7, now)
	if err != nil {
		t.Fatalf("commit activity: %v", err)
	}
	if len(activity) != 7 {
		t.Fatalf("expected 7 days, got %d", len(activity))
	}
	if activity[6].Commits != 6 {
		t.Fatalf("expected same-day write to overwrite, got %d", activity[6].Commits)
	}
	if activity[4].Commits != 3 || activity[5].Commits != 0 {
		t.Fatalf("unexpected activity %+v", activity)
	}

	total := 0
	for _, day := range activity {
		total += day.Commits
	}
	if total != 9 {
		t.Fatalf("old snapshots must be excluded, total=%d", total)
	}

	capped, err := svc.CommitActivity(module.ID, 1<<40, now)
	if err != nil {
		t.Fatalf("commit activity: %v", err)
	}
	if len(capped) != maxWindowDays {
		t.Fatalf("expected window capped at %d days, got %d", maxWindowDays, len(capped))
	}
}

func TestSystemService_ListHidesArchived(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSystemService(gdb)

	for _, module := range []db.SystemModule{
		{Title: "Active", Status: db.SystemStatusTesting},
		{Title: "Retired", Status: db.SystemStatusArchived},
		{Title: "Flagship", Status: db.SystemStatusDeployed, Featured: true},
	} {
		item := module
		if err := gdb.Create(&item).Error; err != nil {
			t.Fatalf("create module: %v", err)
		}
	}

	modules, err := svc.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(modules) != 2 || modules[0].Title != "Flagship" {
		t.Fatalf("unexpected modules %+v", modules)
	}

	archived, err := svc.List(db.SystemStatusArchived)
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	if len(archived) != 1 {
		t.Fatalf("expected 1 archived module, got %d", len(archived))
	}
}
