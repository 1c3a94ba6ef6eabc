package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabaseDriver    string
	DatabasePath      string
	DatabaseDSN       string
	SessionSecret     string
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	SuperRootUserName string
	SuperRootPassword string
	ArchiveStart      time.Time
	MaintenanceFile   string
	MaintenanceAllow  []string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	CacheTTL          time.Duration
	LogLevel          string
	Site              SiteConfig
}

// SiteConfig 描述站点与后台的展示信息，进程启动时构造一次后只读。
type SiteConfig struct {
	Name           string
	AdminHeader    string
	AdminTitle     string
	AdminIndexName string
	BaseURL        string
}

// DefaultArchiveStart 是归档页允许访问的最早月份。
var DefaultArchiveStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 当前目录存在 .env 时会先加载其中的变量，已存在的环境变量不会被覆盖。
func Load() AppConfig {
	_ = godotenv.Load()

	port := env("PORT", "8080")

	listenAddr := env("LISTEN_ADDR", "")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	siteName := env("SITE_NAME", "AURA")

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabaseDriver:    strings.ToLower(env("DATABASE_DRIVER", "sqlite")),
		DatabasePath:      env("DATABASE_PATH", "aura.db"),
		DatabaseDSN:       env("DATABASE_DSN", ""),
		SessionSecret:     env("SESSION_SECRET", "aura-dev-secret"),
		GinMode:           env("GIN_MODE", "release"),
		UploadDir:         env("UPLOAD_DIR", "data/uploads"),
		UploadURLPath:     env("UPLOAD_URL_PATH", "/uploads"),
		SuperRootUserName: env("SUPER_ROOT_USER_NAME", ""),
		SuperRootPassword: env("SUPER_ROOT_PASSWORD", ""),
		ArchiveStart:      ParseArchiveStart(os.Getenv("ARCHIVE_START")),
		MaintenanceFile:   env("MAINTENANCE_FILE", "maintenance.flag"),
		MaintenanceAllow:  splitList(env("MAINTENANCE_ALLOW", "/admin,/static,/uploads,/healthz,/metrics")),
		RedisAddr:         env("REDIS_ADDR", ""),
		RedisPassword:     env("REDIS_PASSWORD", ""),
		RedisDB:           envInt("REDIS_DB", 0),
		CacheTTL:          time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		LogLevel:          env("LOG_LEVEL", "info"),
		Site: SiteConfig{
			Name:           siteName,
			AdminHeader:    env("SITE_HEADER", siteName+" Administration"),
			AdminTitle:     env("SITE_TITLE", siteName+" Admin"),
			AdminIndexName: env("SITE_INDEX_TITLE", "Control Center"),
			BaseURL:        strings.TrimRight(env("SITE_BASE_URL", "http://localhost:8080"), "/"),
		},
	}
}

// ParseArchiveStart 解析 YYYY-MM 格式的归档起始月份，非法值回退到默认值。
func ParseArchiveStart(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultArchiveStart
	}
	parsed, err := time.Parse("2006-01", raw)
	if err != nil {
		return DefaultArchiveStart
	}
	return parsed.UTC()
}

func env(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
