package handler

import (
	"time"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/service"
)

// analyticsProvider 是处理器依赖的访问统计能力，测试中可替换。
type analyticsProvider interface {
	RecordPostView(postID uint, visitorID, referrer string, now time.Time) (*db.PostStatistic, error)
	Trend(days int, now time.Time) ([]db.DailyAnalytics, error)
	TopPosts(limit int) ([]service.TopPostStat, error)
	PostStatsMap(postIDs []uint) (map[uint]*db.PostStatistic, error)
}

var _ analyticsProvider = (*service.AnalyticsService)(nil)
