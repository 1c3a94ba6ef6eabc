package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aurafolio/internal/config"
	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestManager(t *testing.T) (*manager, *bytes.Buffer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:manage-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	dir := t.TempDir()
	out := &bytes.Buffer{}
	m := &manager{
		cfg: config.AppConfig{
			SessionSecret:   "a-long-enough-session-secret",
			MaintenanceFile: filepath.Join(dir, "maintenance.flag"),
			UploadDir:       filepath.Join(dir, "uploads"),
		},
		out:    out,
		logger: logging.Discard(),
		now:    func() time.Time { return time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC) },
		openDB: func() (*gorm.DB, error) { return gdb, nil },
	}
	return m, out, gdb
}

func TestMaintenanceCommands(t *testing.T) {
	m, out, _ := newTestManager(t)
	ctx := context.Background()

	if err := m.run(ctx, []string{"maintenance", "on", "-message", "升级中", "-operator", "ops"}); err != nil {
		t.Fatalf("maintenance on: %v", err)
	}
	out.Reset()
	if err := m.run(ctx, []string{"maintenance", "status"}); err != nil {
		t.Fatalf("maintenance status: %v", err)
	}
	for _, want := range []string{"maintenance: on", "ops", "升级中", "2025-06-15T08:00:00Z"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in status output, got %q", want, out.String())
		}
	}

	out.Reset()
	if err := m.run(ctx, []string{"maintenance", "off"}); err != nil {
		t.Fatalf("maintenance off: %v", err)
	}
	if _, err := os.Stat(m.cfg.MaintenanceFile); !os.IsNotExist(err) {
		t.Fatalf("expected flag file to be removed")
	}
	if err := m.run(ctx, []string{"maintenance", "off"}); err != nil {
		t.Fatalf("second maintenance off: %v", err)
	}
	if !strings.Contains(out.String(), "维护模式未开启") {
		t.Fatalf("expected idempotent off message, got %q", out.String())
	}
}

func TestCreateUserAndCheck(t *testing.T) {
	m, out, gdb := newTestManager(t)
	ctx := context.Background()

	// 没有账号时 check 失败
	if err := m.run(ctx, []string{"check"}); err == nil {
		t.Fatalf("expected check to fail without admin account")
	}
	if !strings.Contains(out.String(), "[FAIL] admin account") {
		t.Fatalf("expected admin account failure, got %q", out.String())
	}

	if err := m.run(ctx, []string{"createuser", "-username", "ops", "-password", "short"}); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
	if err := m.run(ctx, []string{"createuser", "-username", "ops", "-password", "long-password"}); err != nil {
		t.Fatalf("createuser: %v", err)
	}
	if err := m.run(ctx, []string{"createuser", "-username", "ops", "-password", "long-password"}); err == nil {
		t.Fatalf("expected duplicate user to be rejected")
	}

	var user db.User
	if err := gdb.Where("username = ?", "ops").First(&user).Error; err != nil {
		t.Fatalf("expected user to exist: %v", err)
	}
	if !user.CheckPassword("long-password") || !user.IsStaff {
		t.Fatalf("unexpected user %+v", user)
	}

	out.Reset()
	if err := m.run(ctx, []string{"check"}); err != nil {
		t.Fatalf("check: %v\n%s", err, out.String())
	}
	if strings.Contains(out.String(), "[FAIL]") || !strings.Contains(out.String(), "[PASS] migrations") {
		t.Fatalf("unexpected check output %q", out.String())
	}
}

func TestImportCommand(t *testing.T) {
	m, out, gdb := newTestManager(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "categories.csv")
	if err := os.WriteFile(path, []byte("name,description\nInfra,servers\nNotes,\n"), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	// -update 放在位置参数之后也能识别
	if err := m.run(ctx, []string{"import", "categories", path, "-update"}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "新增 2 条") {
		t.Fatalf("unexpected import summary %q", out.String())
	}
	var count int64
	gdb.Model(&db.Category{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 categories, got %d", count)
	}

	if err := m.run(ctx, []string{"import", "widgets", path}); err == nil || !strings.Contains(err.Error(), "categories") {
		t.Fatalf("expected unknown model error listing models, got %v", err)
	}
	if err := m.run(ctx, []string{"import", "categories"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestSeedCommandIsRepeatable(t *testing.T) {
	m, out, gdb := newTestManager(t)
	ctx := context.Background()

	args := []string{"seed", "-posts", "4", "-systems", "2", "-days", "3", "-seed", "7"}
	if err := m.run(ctx, args); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out.String(), "示例数据生成完成") {
		t.Fatalf("unexpected seed output %q", out.String())
	}
	var posts int64
	gdb.Model(&db.Post{}).Count(&posts)

	if err := m.run(ctx, args); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	var again int64
	gdb.Model(&db.Post{}).Count(&again)
	if posts == 0 || again != posts {
		t.Fatalf("expected repeatable seed, got %d then %d posts", posts, again)
	}
}

func TestUnknownCommand(t *testing.T) {
	m, out, _ := newTestManager(t)
	if err := m.run(context.Background(), []string{"frobnicate"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(out.String(), "usage: manage") {
		t.Fatalf("expected usage text")
	}
}
