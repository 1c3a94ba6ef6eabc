// Command manage 提供维护模式、示例数据、CSV 导入、建号与部署自检等运维命令。
//
//	manage maintenance on [-message 文本] [-operator 名称]
//	manage maintenance off|status
//	manage seed [-posts 24] [-systems 6] [-days 30] [-seed 42]
//	manage import [-update] <model> <file.csv>
//	manage createuser -username admin -password secret
//	manage check
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurafolio/internal/config"
	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/logging"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := &manager{
		cfg:    cfg,
		out:    os.Stdout,
		logger: logging.NewWithWriter(os.Stderr, "aura-manage", cfg.LogLevel),
		now:    time.Now,
		openDB: func() (*gorm.DB, error) {
			return db.Open(db.Options{
				Driver: cfg.DatabaseDriver,
				Path:   cfg.DatabasePath,
				DSN:    cfg.DatabaseDSN,
			})
		},
	}

	if err := m.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "manage: %v\n", err)
		os.Exit(1)
	}
}
