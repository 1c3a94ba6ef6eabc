package service

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/aurafolio/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsService 负责处理文章浏览相关的统计逻辑。
type AnalyticsService struct {
	db *gorm.DB
}

// TopPostStat 描述热门文章的统计信息。
type TopPostStat struct {
	PostID         uint
	Title          string
	Slug           string
	PageViews      uint64
	UniqueVisitors uint64
}

// NewAnalyticsService 创建 AnalyticsService。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// RecordPostView 记录访客对文章的浏览，同时累加当天的站点流量，返回最新的文章统计。
// 同一访客对同一文章只计一次 UV。
func (s *AnalyticsService) RecordPostView(postID uint, visitorID, referrer string, now time.Time) (*db.PostStatistic, error) {
	if visitorID == "" || postID == 0 {
		return nil, errors.New("invalid visitor or post id")
	}

	var stats db.PostStatistic
	err := s.db.Transaction(func(tx *gorm.DB) error {
		visit := db.PostVisit{PostID: postID, VisitorID: visitorID, LastViewedAt: now}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&visit)
		if insert.Error != nil {
			return insert.Error
		}

		isNewVisitor := insert.RowsAffected == 1
		if !isNewVisitor {
			if err := tx.Model(&db.PostVisit{}).
				Where("post_id = ? AND visitor_id = ?", postID, visitorID).
				Update("last_viewed_at", now).Error; err != nil {
				return err
			}
		}

		statsResult := tx.Where("post_id = ?", postID).First(&stats)
		switch {
		case errors.Is(statsResult.Error, gorm.ErrRecordNotFound):
			stats = db.PostStatistic{PostID: postID}
		case statsResult.Error != nil:
			return statsResult.Error
		}

		stats.PageViews++
		if isNewVisitor {
			stats.UniqueVisitors++
		}
		stats.LastViewedAt = now
		if err := tx.Save(&stats).Error; err != nil {
			return err
		}

		return recordDaily(tx, now, isNewVisitor, referrer)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func recordDaily(tx *gorm.DB, now time.Time, newVisitor bool, referrer string) error {
	var visitors uint64
	if newVisitor {
		visitors = 1
	}
	day := datatypes.Date(truncateDay(now))

	row := db.DailyAnalytics{Date: day, PageViews: 1, Visitors: visitors, Referrers: datatypes.JSONMap{}}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"page_views": gorm.Expr("daily_analytics.page_views + ?", 1),
			"visitors":   gorm.Expr("daily_analytics.visitors + ?", visitors),
			"updated_at": now,
		}),
	}).Create(&row).Error; err != nil {
		return err
	}

	host := referrerHost(referrer)
	if host == "" {
		return nil
	}

	var daily db.DailyAnalytics
	if err := tx.Where("date = ?", day).First(&daily).Error; err != nil {
		return err
	}
	if daily.Referrers == nil {
		daily.Referrers = datatypes.JSONMap{}
	}
	daily.Referrers[host] = jsonNumber(daily.Referrers[host]) + 1
	return tx.Model(&daily).Update("referrers", daily.Referrers).Error
}

func referrerHost(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// jsonNumber 读取 JSONMap 中的计数，反序列化后数字为 float64。
func jsonNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// PostStatsMap 返回指定文章的统计数据，未找到的文章不会出现在结果中。
func (s *AnalyticsService) PostStatsMap(postIDs []uint) (map[uint]*db.PostStatistic, error) {
	result := make(map[uint]*db.PostStatistic, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var stats []db.PostStatistic
	if err := s.db.Where("post_id IN ?", postIDs).Find(&stats).Error; err != nil {
		return nil, err
	}
	for i := range stats {
		stat := stats[i]
		result[stat.PostID] = &stat
	}
	return result, nil
}

// TopPosts 返回浏览量最高的文章。
func (s *AnalyticsService) TopPosts(limit int) ([]TopPostStat, error) {
	var top []TopPostStat
	err := s.db.Table("post_statistics ps").
		Select("ps.post_id, p.title, p.slug, ps.page_views, ps.unique_visitors").
		Joins("JOIN posts p ON p.id = ps.post_id AND p.deleted_at IS NULL").
		Order("ps.page_views DESC").
		Limit(positive(limit, 5)).
		Scan(&top).Error
	return top, err
}

// Trend 返回截至 now 的最近 days 天站点流量，缺失的日期补 0。
func (s *AnalyticsService) Trend(days int, now time.Time) ([]db.DailyAnalytics, error) {
	days = clampDays(days, 30)
	end := truncateDay(now)
	start := end.AddDate(0, 0, -(days - 1))

	var rows []db.DailyAnalytics
	if err := s.db.
		Where("date >= ? AND date <= ?", datatypes.Date(start), datatypes.Date(end)).
		Order("date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byDay := make(map[string]db.DailyAnalytics, len(rows))
	for _, row := range rows {
		byDay[time.Time(row.Date).Format("2006-01-02")] = row
	}

	trend := make([]db.DailyAnalytics, 0, days)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		row, ok := byDay[day.Format("2006-01-02")]
		if !ok {
			row = db.DailyAnalytics{Date: datatypes.Date(day)}
		}
		trend = append(trend, row)
	}
	return trend, nil
}
