package service

import (
	"testing"
	"time"

	"github.com/aurafolio/internal/db"
)

func TestRecordPostViewCounts(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewAnalyticsService(gdb)

	post := createPost(t, gdb, db.Post{Title: "测试文章", Status: db.PostStatusPublished})
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	stats, err := svc.RecordPostView(post.ID, "visitor-1", "https://news.ycombinator.com/item?id=1", base)
	if err != nil {
		t.Fatalf("first view failed: %v", err)
	}
	if stats.PageViews != 1 || stats.UniqueVisitors != 1 {
		t.Fatalf("expected PV=1 UV=1, got PV=%d UV=%d", stats.PageViews, stats.UniqueVisitors)
	}

	stats, err = svc.RecordPostView(post.ID, "visitor-1", "", base.Add(time.Minute))
	if err != nil {
		t.Fatalf("repeat view failed: %v", err)
	}
	if stats.PageViews != 2 || stats.UniqueVisitors != 1 {
		t.Fatalf("expected PV=2 UV=1, got PV=%d UV=%d", stats.PageViews, stats.UniqueVisitors)
	}

	stats, err = svc.RecordPostView(post.ID, "visitor-2", "https://News.ycombinator.com/", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("second visitor failed: %v", err)
	}
	if stats.PageViews != 3 || stats.UniqueVisitors != 2 {
		t.Fatalf("expected PV=3 UV=2, got PV=%d UV=%d", stats.PageViews, stats.UniqueVisitors)
	}

	trend, err := svc.Trend(3, base)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(trend) != 3 {
		t.Fatalf("expected 3 days, got %d", len(trend))
	}
	today := trend[2]
	if today.PageViews != 3 || today.Visitors != 2 {
		t.Fatalf("unexpected daily totals PV=%d UV=%d", today.PageViews, today.Visitors)
	}
	if jsonNumber(today.Referrers["news.ycombinator.com"]) != 2 {
		t.Fatalf("expected referrer counted twice, got %v", today.Referrers)
	}
	if trend[0].PageViews != 0 {
		t.Fatalf("missing days should be zero-filled")
	}

	if _, err := svc.RecordPostView(0, "visitor", "", base); err == nil {
		t.Fatalf("expected error for missing post id")
	}
}

func TestTopPostsOrdersByViews(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewAnalyticsService(gdb)

	quiet := createPost(t, gdb, db.Post{Title: "Quiet", Status: db.PostStatusPublished})
	popular := createPost(t, gdb, db.Post{Title: "Popular", Status: db.PostStatusPublished})
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if _, err := svc.RecordPostView(quiet.ID, "a", "", now); err != nil {
		t.Fatalf("record view: %v", err)
	}
	for _, visitor := range []string{"a", "b", "c"} {
		if _, err := svc.RecordPostView(popular.ID, visitor, "", now); err != nil {
			t.Fatalf("record view: %v", err)
		}
	}

	top, err := svc.TopPosts(5)
	if err != nil {
		t.Fatalf("top posts: %v", err)
	}
	if len(top) != 2 || top[0].PostID != popular.ID || top[0].PageViews != 3 || top[0].Slug != "popular" {
		t.Fatalf("unexpected top posts %+v", top)
	}

	stats, err := svc.PostStatsMap([]uint{quiet.ID, popular.ID, 999})
	if err != nil {
		t.Fatalf("stats map: %v", err)
	}
	if len(stats) != 2 || stats[popular.ID].UniqueVisitors != 3 {
		t.Fatalf("unexpected stats map %+v", stats)
	}
}
