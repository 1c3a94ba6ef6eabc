package service

import (
	"errors"
	"time"

	"github.com/aurafolio/internal/db"
	"gorm.io/gorm"
)

// ErrArchiveOutOfRange 表示请求的年份或月份不在可归档区间内。
var ErrArchiveOutOfRange = errors.New("archive period out of range")

// ArchiveService 按年月统计已发布文章。
type ArchiveService struct {
	db    *gorm.DB
	start time.Time
}

// ArchiveMonth 单月统计
type ArchiveMonth struct {
	Year  int
	Month int
	Count int
}

// ArchiveYear 单年统计，Months 只包含有文章的月份，按月份倒序。
type ArchiveYear struct {
	Year   int
	Total  int
	Months []ArchiveMonth
}

// NewArchiveService 创建 ArchiveService，start 之前的月份不可访问。
func NewArchiveService(gdb *gorm.DB, start time.Time) *ArchiveService {
	return &ArchiveService{db: gdb, start: time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// Bounds 返回可归档的首月与截至 now 的当前月，均为 UTC 月初。
func (s *ArchiveService) Bounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	return s.start, time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Validate 检查 year/month 是否落在 Bounds 之间，month 为 0 表示整年。
func (s *ArchiveService) Validate(year, month int, now time.Time) error {
	start, end := s.Bounds(now)
	if year < start.Year() || year > end.Year() {
		return ErrArchiveOutOfRange
	}
	if month == 0 {
		return nil
	}
	if month < 1 || month > 12 {
		return ErrArchiveOutOfRange
	}
	current := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if current.Before(start) || current.After(end) {
		return ErrArchiveOutOfRange
	}
	return nil
}

// Years 返回从 now 所在年份到起始年份的统计，新的在前。
func (s *ArchiveService) Years(now time.Time) ([]ArchiveYear, error) {
	start, end := s.Bounds(now)
	counts, err := s.monthCounts(start, now)
	if err != nil {
		return nil, err
	}

	years := make([]ArchiveYear, 0, end.Year()-start.Year()+1)
	for year := end.Year(); year >= start.Year(); year-- {
		entry := ArchiveYear{Year: year}
		for month := 12; month >= 1; month-- {
			count := counts[monthKey{year, month}]
			if count == 0 {
				continue
			}
			entry.Total += count
			entry.Months = append(entry.Months, ArchiveMonth{Year: year, Month: month, Count: count})
		}
		years = append(years, entry)
	}
	return years, nil
}

// Months 返回某年每个可访问月份的文章数（包含 0）。
func (s *ArchiveService) Months(year int, now time.Time) ([]ArchiveMonth, error) {
	if err := s.Validate(year, 0, now); err != nil {
		return nil, err
	}

	start, end := archiveWindow(year, 0)
	counts, err := s.monthCounts(start, end)
	if err != nil {
		return nil, err
	}

	months := make([]ArchiveMonth, 0, 12)
	for month := 1; month <= 12; month++ {
		if s.Validate(year, month, now) != nil {
			continue
		}
		months = append(months, ArchiveMonth{Year: year, Month: month, Count: counts[monthKey{year, month}]})
	}
	return months, nil
}

type monthKey struct {
	year  int
	month int
}

// monthCounts 在 Go 侧按月分组，避免依赖数据库方言的日期函数。
func (s *ArchiveService) monthCounts(from, to time.Time) (map[monthKey]int, error) {
	var published []time.Time
	if err := s.db.Model(&db.Post{}).
		Where("status = ? AND published_at IS NOT NULL", db.PostStatusPublished).
		Where("published_at >= ?", from).
		Pluck("published_at", &published).Error; err != nil {
		return nil, err
	}

	counts := make(map[monthKey]int)
	for _, t := range published {
		if t.After(to) && !to.IsZero() {
			continue
		}
		utc := t.UTC()
		counts[monthKey{utc.Year(), int(utc.Month())}]++
	}
	return counts, nil
}
