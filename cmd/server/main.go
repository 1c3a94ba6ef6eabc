package main

import (
	"context"
	"log"
	"time"

	"github.com/aurafolio/internal/cache"
	"github.com/aurafolio/internal/config"
	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/logging"
	"github.com/aurafolio/internal/router"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	logger := logging.New("aura", cfg.LogLevel)

	// 初始化数据库
	gdb, err := db.Init(db.Options{
		Driver: cfg.DatabaseDriver,
		Path:   cfg.DatabasePath,
		DSN:    cfg.DatabaseDSN,
	})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure super root user: %v", err)
	}

	opts := router.FromConfig(cfg)
	opts.Logger = logger
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer store.Close()
			opts.Cache = store
		}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryStore(cfg.CacheTTL)
	}

	// 设置并运行 Gin 服务器
	r, err := router.SetupRouter(gdb, opts)
	if err != nil {
		log.Fatalf("failed to set up router: %v", err)
	}
	logger.Info("server starting", "addr", cfg.ListenAddr, "driver", cfg.DatabaseDriver)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
