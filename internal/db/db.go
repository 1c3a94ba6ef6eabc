package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options 描述数据库连接参数。
type Options struct {
	Driver string // sqlite 或 postgres
	Path   string // sqlite 文件路径
	DSN    string // postgres 连接串
	Logger logger.Interface
}

// Init 打开数据库连接、执行自动迁移并设置全局实例。
func Init(opts Options) (*gorm.DB, error) {
	gdb, err := Open(opts)
	if err != nil {
		return nil, err
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	DB = gdb
	return gdb, nil
}

// Open 根据驱动类型创建 gorm 连接，不执行迁移。
func Open(opts Options) (*gorm.DB, error) {
	gormLogger := opts.Logger
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}
	cfg := &gorm.Config{Logger: gormLogger, TranslateError: true}

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "aura.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		return gorm.Open(sqlite.Open(path), cfg)
	case "postgres":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, errors.New("postgres driver requires DATABASE_DSN")
		}
		return gorm.Open(postgres.Open(opts.DSN), cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// Models 返回需要自动迁移的全部模型。
func Models() []any {
	return []any{
		&User{},
		&Category{},
		&Tag{},
		&Post{},
		&Series{},
		&SeriesPost{},
		&SystemModule{},
		&SystemFeature{},
		&SystemImage{},
		&SystemMetric{},
		&CommitSnapshot{},
		&SystemLogEntry{},
		&Skill{},
		&Technology{},
		&SkillTechnology{},
		&Education{},
		&SkillEducation{},
		&Experience{},
		&Page{},
		&ContactLink{},
		&PostStatistic{},
		&PostVisit{},
		&DailyAnalytics{},
	}
}

// Migrate 为所有模型建表。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(Models()...)
}

// IsDuplicate 判断错误是否来自唯一约束冲突。
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
