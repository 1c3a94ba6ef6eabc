package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seed-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(catalog.Skills) == 0 || len(catalog.Technologies) == 0 || len(catalog.Categories) == 0 {
		t.Fatalf("catalog should not be empty: %+v", catalog)
	}
}

func TestRunGeneratesDataAndIsIdempotent(t *testing.T) {
	gdb := setupSeedTestDB(t)
	now := time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)
	opts := Options{Posts: 6, Systems: 2, Days: 7, Seed: 42, Now: now}

	report, err := Run(context.Background(), gdb, opts, logging.Discard())
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	if report.Skills == 0 || report.Technologies == 0 || report.Categories == 0 {
		t.Fatalf("expected catalog rows, got %+v", report)
	}
	if report.Posts == 0 || report.Systems == 0 || report.AnalyticDays != 7 {
		t.Fatalf("unexpected report %+v", report)
	}

	var skills []db.Skill
	gdb.Find(&skills)
	for _, skill := range skills {
		if skill.Proficiency < db.MinProficiency || skill.Proficiency > db.MaxProficiency {
			t.Fatalf("skill %s proficiency out of range: %d", skill.Name, skill.Proficiency)
		}
	}

	var skillTags int64
	gdb.Model(&db.Tag{}).Where("name = ?", "Go").Count(&skillTags)
	if skillTags != 1 {
		t.Fatalf("expected tag for seeded skill, got %d", skillTags)
	}

	var counts = func() (posts, skills, days, education int64) {
		gdb.Model(&db.Post{}).Count(&posts)
		gdb.Model(&db.Skill{}).Count(&skills)
		gdb.Model(&db.DailyAnalytics{}).Count(&days)
		gdb.Model(&db.Education{}).Count(&education)
		return
	}
	posts, skillCount, days, education := counts()

	again, err := Run(context.Background(), gdb, opts, logging.Discard())
	if err != nil {
		t.Fatalf("second seed run: %v", err)
	}
	if again.Skills != 0 || again.AnalyticDays != 0 || again.Education != 0 || again.Experience != 0 {
		t.Fatalf("second run should not duplicate named rows: %+v", again)
	}
	posts2, skillCount2, days2, education2 := counts()
	if posts2 != posts || skillCount2 != skillCount || days2 != days || education2 != education {
		t.Fatalf("row counts changed on rerun: posts %d→%d skills %d→%d days %d→%d education %d→%d",
			posts, posts2, skillCount, skillCount2, days, days2, education, education2)
	}
}
