package service

import (
	"errors"
	"testing"

	"github.com/aurafolio/internal/db"
)

func seriesFixture(t *testing.T) (*SeriesService, db.Series, []db.Post) {
	t.Helper()
	gdb := setupServiceTestDB(t)
	svc := NewSeriesService(gdb)

	series := db.Series{Title: "Building a Queue", Status: db.PostStatusPublished}
	if err := gdb.Create(&series).Error; err != nil {
		t.Fatalf("create series: %v", err)
	}

	posts := []db.Post{
		createPost(t, gdb, db.Post{Title: "Part one", Status: db.PostStatusPublished}),
		createPost(t, gdb, db.Post{Title: "Part two", Status: db.PostStatusPublished}),
		createPost(t, gdb, db.Post{Title: "Part three", Status: db.PostStatusPublished}),
	}
	for _, post := range posts {
		if _, err := svc.AddPost(series.ID, post.ID); err != nil {
			t.Fatalf("add post %q: %v", post.Title, err)
		}
	}
	return svc, series, posts
}

func entryOrder(t *testing.T, svc *SeriesService, seriesID uint) []uint {
	t.Helper()
	entries, err := svc.Entries(seriesID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	ids := make([]uint, 0, len(entries))
	for i, entry := range entries {
		if entry.Position != i+1 {
			t.Fatalf("expected contiguous positions, got %d at index %d", entry.Position, i)
		}
		ids = append(ids, entry.PostID)
	}
	return ids
}

func TestSeriesService_AddPostAppends(t *testing.T) {
	svc, series, posts := seriesFixture(t)

	got := entryOrder(t, svc, series.ID)
	for i, post := range posts {
		if got[i] != post.ID {
			t.Fatalf("unexpected order %v", got)
		}
	}

	if _, err := svc.AddPost(series.ID, posts[0].ID); !errors.Is(err, ErrSeriesPostExists) {
		t.Fatalf("expected ErrSeriesPostExists, got %v", err)
	}
	if _, err := svc.AddPost(9999, posts[0].ID); !errors.Is(err, ErrSeriesNotFound) {
		t.Fatalf("expected ErrSeriesNotFound, got %v", err)
	}
}

func TestSeriesService_Reorder(t *testing.T) {
	svc, series, posts := seriesFixture(t)

	order := []uint{posts[2].ID, posts[0].ID, posts[1].ID}
	if err := svc.Reorder(series.ID, order); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := entryOrder(t, svc, series.ID)
	for i := range order {
		if got[i] != order[i] {
			t.Fatalf("expected %v, got %v", order, got)
		}
	}

	invalid := [][]uint{
		{posts[0].ID, posts[1].ID},
		{posts[0].ID, posts[0].ID, posts[1].ID},
		{posts[0].ID, posts[1].ID, 9999},
	}
	for _, ids := range invalid {
		if err := svc.Reorder(series.ID, ids); !errors.Is(err, ErrSeriesOrder) {
			t.Fatalf("expected ErrSeriesOrder for %v, got %v", ids, err)
		}
	}

	got = entryOrder(t, svc, series.ID)
	if got[0] != posts[2].ID {
		t.Fatalf("failed reorder must not change positions, got %v", got)
	}
}

func TestSeriesService_RemovePostCompactsPositions(t *testing.T) {
	svc, series, posts := seriesFixture(t)

	if err := svc.RemovePost(series.ID, posts[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got := entryOrder(t, svc, series.ID)
	if len(got) != 2 || got[0] != posts[1].ID {
		t.Fatalf("unexpected order after remove %v", got)
	}

	if err := svc.RemovePost(series.ID, posts[0].ID); !errors.Is(err, ErrSeriesPostNotFound) {
		t.Fatalf("expected ErrSeriesPostNotFound, got %v", err)
	}
}

func TestSeriesService_Navigation(t *testing.T) {
	svc, series, posts := seriesFixture(t)

	navs, err := svc.Navigation(posts[1].ID)
	if err != nil {
		t.Fatalf("navigation: %v", err)
	}
	if len(navs) != 1 {
		t.Fatalf("expected one series, got %d", len(navs))
	}
	nav := navs[0]
	if nav.Series.ID != series.ID || nav.Position != 2 || nav.Total != 3 {
		t.Fatalf("unexpected nav %+v", nav)
	}
	if nav.Previous == nil || nav.Previous.ID != posts[0].ID || nav.Next == nil || nav.Next.ID != posts[2].ID {
		t.Fatalf("unexpected neighbours %+v", nav)
	}

	navs, err = svc.Navigation(posts[0].ID)
	if err != nil {
		t.Fatalf("navigation: %v", err)
	}
	if navs[0].Previous != nil {
		t.Fatalf("first post should have no previous entry")
	}
}
