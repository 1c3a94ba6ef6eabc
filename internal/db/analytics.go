package db

import (
	"time"

	"gorm.io/datatypes"
)

// PostStatistic 汇总文章维度的浏览数据。
type PostStatistic struct {
	ID             uint   `gorm:"primaryKey"`
	PostID         uint   `gorm:"uniqueIndex"`
	PageViews      uint64 `gorm:"default:0"`
	UniqueVisitors uint64 `gorm:"default:0"`
	LastViewedAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PostVisit 记录访客层面的浏览历史，用于 UV 去重。
type PostVisit struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       uint   `gorm:"uniqueIndex:idx_post_visitor"`
	VisitorID    string `gorm:"size:64;uniqueIndex:idx_post_visitor"`
	LastViewedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DailyAnalytics 按天汇总的站点流量。
type DailyAnalytics struct {
	ID        uint           `gorm:"primaryKey"`
	Date      datatypes.Date `gorm:"uniqueIndex;not null"`
	PageViews uint64         `gorm:"default:0"`
	Visitors  uint64         `gorm:"default:0"`
	Referrers datatypes.JSONMap
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (DailyAnalytics) TableName() string {
	return "daily_analytics"
}
