package service

import (
	"errors"
	"testing"
	"time"

	"github.com/aurafolio/internal/db"
)

func TestArchiveService_Validate(t *testing.T) {
	svc := NewArchiveService(nil, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		year, month int
		ok          bool
	}{
		{2024, 0, true},
		{2025, 0, true},
		{2023, 0, false},
		{2026, 0, false},
		{2024, 2, false},
		{2024, 3, true},
		{2025, 6, true},
		{2025, 7, false},
		{2024, 13, false},
	}
	for _, tc := range cases {
		err := svc.Validate(tc.year, tc.month, now)
		if tc.ok && err != nil {
			t.Fatalf("%d-%d should be valid, got %v", tc.year, tc.month, err)
		}
		if !tc.ok && !errors.Is(err, ErrArchiveOutOfRange) {
			t.Fatalf("%d-%d should be out of range, got %v", tc.year, tc.month, err)
		}
	}
}

func TestArchiveService_Bounds(t *testing.T) {
	svc := NewArchiveService(nil, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC))

	// 上海时间 7 月 1 日凌晨仍是 UTC 的 6 月
	now := time.Date(2025, time.July, 1, 2, 0, 0, 0, time.FixedZone("CST", 8*3600))
	start, end := svc.Bounds(now)
	if !start.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}
	if err := svc.Validate(2025, 7, now); !errors.Is(err, ErrArchiveOutOfRange) {
		t.Fatalf("expected July to be out of range, got %v", err)
	}
}

func TestArchiveService_CountsMatchMonthListing(t *testing.T) {
	gdb := setupServiceTestDB(t)
	archive := NewArchiveService(gdb, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	posts := NewPostService(gdb)
	now := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)

	local := time.Date(2024, time.June, 1, 7, 30, 0, 0, time.FixedZone("CST", 8*3600))
	createPost(t, gdb, db.Post{Title: "Shanghai morning", Status: db.PostStatusPublished, PublishedAt: &local})

	months, err := archive.Months(2024, now)
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	for _, month := range []int{5, 6} {
		listed, err := posts.ListPublished(PublicFilter{Year: 2024, Month: month})
		if err != nil {
			t.Fatalf("list published: %v", err)
		}
		if int(listed.Total) != months[month-1].Count {
			t.Fatalf("month %d: archive count %d but listing has %d", month, months[month-1].Count, listed.Total)
		}
	}
	if months[4].Count != 1 {
		t.Fatalf("expected post counted in May (UTC), got %+v", months)
	}
}

func TestArchiveService_YearsAndMonths(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewArchiveService(gdb, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	now := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)

	createPost(t, gdb, db.Post{Title: "Jan", Status: db.PostStatusPublished, PublishedAt: publishedAt(2024, time.January, 3)})
	createPost(t, gdb, db.Post{Title: "Jan again", Status: db.PostStatusPublished, PublishedAt: publishedAt(2024, time.January, 20)})
	createPost(t, gdb, db.Post{Title: "Nov", Status: db.PostStatusPublished, PublishedAt: publishedAt(2024, time.November, 2)})
	createPost(t, gdb, db.Post{Title: "Feb", Status: db.PostStatusPublished, PublishedAt: publishedAt(2025, time.February, 1)})
	createPost(t, gdb, db.Post{Title: "Too early", Status: db.PostStatusPublished, PublishedAt: publishedAt(2023, time.December, 1)})
	createPost(t, gdb, db.Post{Title: "Draft"})

	years, err := svc.Years(now)
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	if len(years) != 2 || years[0].Year != 2025 || years[1].Year != 2024 {
		t.Fatalf("unexpected years %+v", years)
	}
	if years[1].Total != 3 || len(years[1].Months) != 2 || years[1].Months[0].Month != 11 {
		t.Fatalf("unexpected 2024 summary %+v", years[1])
	}

	months, err := svc.Months(2025, now)
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	if len(months) != 2 || months[1].Count != 1 {
		t.Fatalf("expected Jan and Feb 2025, got %+v", months)
	}

	if _, err := svc.Months(2023, now); !errors.Is(err, ErrArchiveOutOfRange) {
		t.Fatalf("expected ErrArchiveOutOfRange, got %v", err)
	}
}
