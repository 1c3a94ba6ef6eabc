package service

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/aurafolio/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSystemNotFound   = errors.New("system module not found")
	ErrLinkNotFound     = errors.New("system link not found")
	ErrInvalidLinkField = errors.New("invalid system link field")
)

// SystemService 管理项目（SystemModule）及其与文章的关联。
type SystemService struct {
	db *gorm.DB
}

// LinkInput 是文章与项目关联的元数据，空值取默认。
type LinkInput struct {
	ConnectionType string
	Priority       string
	Impact         string
	Notes          string
}

// CommitDay 是某天的提交数。
type CommitDay struct {
	Date    time.Time
	Commits int
}

// NewSystemService creates a SystemService instance.
func NewSystemService(gdb *gorm.DB) *SystemService {
	return &SystemService{db: gdb}
}

// List 返回项目列表，status 为空时返回除归档以外的全部项目。
func (s *SystemService) List(status string) ([]db.SystemModule, error) {
	query := s.db.Model(&db.SystemModule{})
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		query = query.Where("status = ?", trimmed)
	} else {
		query = query.Where("status <> ?", db.SystemStatusArchived)
	}

	var modules []db.SystemModule
	err := query.
		Order("featured desc").
		Order("priority asc").
		Order("completion_percent desc").
		Order("title asc").
		Find(&modules).Error
	return modules, err
}

// GetBySlug 返回项目详情及其功能、截图、指标与已发布的关联文章。
func (s *SystemService) GetBySlug(slug string) (*db.SystemModule, error) {
	var module db.SystemModule
	err := s.db.
		Preload("Features", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc, id asc") }).
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc, id asc") }).
		Preload("Metrics", func(tx *gorm.DB) *gorm.DB { return tx.Order("recorded_at desc") }).
		Preload("LogEntries", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("post_id IN (?)", s.db.Model(&db.Post{}).Select("id").Where("status = ?", db.PostStatusPublished))
		}).
		Preload("LogEntries.Post").
		Where("slug = ?", strings.TrimSpace(slug)).
		First(&module).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSystemNotFound
		}
		return nil, err
	}
	return &module, nil
}

// Link 创建或更新文章与项目之间的关联。
func (s *SystemService) Link(moduleID, postID uint, input LinkInput) (*db.SystemLogEntry, error) {
	entry := db.SystemLogEntry{
		PostID:         postID,
		SystemModuleID: moduleID,
		ConnectionType: defaultString(input.ConnectionType, "reference"),
		Priority:       defaultString(input.Priority, "medium"),
		Impact:         defaultString(input.Impact, "minor"),
		Notes:          strings.TrimSpace(input.Notes),
	}
	if !slices.Contains(db.ConnectionTypes, entry.ConnectionType) ||
		!slices.Contains(db.LogPriorities, entry.Priority) ||
		!slices.Contains(db.LogImpacts, entry.Impact) {
		return nil, ErrInvalidLinkField
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&db.SystemModule{}, moduleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSystemNotFound
			}
			return err
		}
		if err := tx.Select("id").First(&db.Post{}, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "system_module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"connection_type", "priority", "impact", "notes", "updated_at"}),
		}).Create(&entry).Error; err != nil {
			return err
		}

		var saved db.SystemLogEntry
		if err := tx.Where("post_id = ? AND system_module_id = ?", postID, moduleID).First(&saved).Error; err != nil {
			return err
		}
		entry = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Unlink 删除文章与项目之间的关联。
func (s *SystemService) Unlink(moduleID, postID uint) error {
	result := s.db.Where("post_id = ? AND system_module_id = ?", postID, moduleID).Delete(&db.SystemLogEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// RecordCommits 写入某天的提交数，同一天重复写入时覆盖。
func (s *SystemService) RecordCommits(moduleID uint, day time.Time, commits int) error {
	if commits < 0 {
		commits = 0
	}
	snapshot := db.CommitSnapshot{
		SystemModuleID: moduleID,
		Date:           datatypes.Date(truncateDay(day)),
		Commits:        commits,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "system_module_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"commits", "updated_at"}),
	}).Create(&snapshot).Error
}

// CommitActivity 返回截至 now 的最近 days 天（最多 365 天）提交数，缺失的日期补 0。
func (s *SystemService) CommitActivity(moduleID uint, days int, now time.Time) ([]CommitDay, error) {
	days = clampDays(days, 30)
	end := truncateDay(now)
	start := end.AddDate(0, 0, -(days - 1))

	var snapshots []db.CommitSnapshot
	if err := s.db.
		Where("system_module_id = ? AND date >= ? AND date <= ?", moduleID, datatypes.Date(start), datatypes.Date(end)).
		Find(&snapshots).Error; err != nil {
		return nil, err
	}

	byDay := make(map[string]int, len(snapshots))
	for _, snapshot := range snapshots {
		byDay[time.Time(snapshot.Date).Format("2006-01-02")] += snapshot.Commits
	}

	activity := make([]CommitDay, 0, days)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		activity = append(activity, CommitDay{Date: day, Commits: byDay[day.Format("2006-01-02")]})
	}
	return activity, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
