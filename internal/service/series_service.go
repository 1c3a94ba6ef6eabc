package service

import (
	"errors"

	"github.com/aurafolio/internal/db"
	"gorm.io/gorm"
)

var (
	ErrSeriesNotFound     = errors.New("series not found")
	ErrSeriesPostExists   = errors.New("post already in series")
	ErrSeriesPostNotFound = errors.New("post not in series")
	ErrSeriesOrder        = errors.New("invalid series order")
)

// SeriesService 管理系列及其中文章的顺序。
type SeriesService struct {
	db *gorm.DB
}

// SeriesNav 描述文章在某个系列中的位置与前后篇。
type SeriesNav struct {
	Series   db.Series
	Position int
	Total    int
	Previous *db.Post
	Next     *db.Post
}

// NewSeriesService creates a SeriesService instance.
func NewSeriesService(gdb *gorm.DB) *SeriesService {
	return &SeriesService{db: gdb}
}

// Entries 返回系列中的文章，按位置排序。
func (s *SeriesService) Entries(seriesID uint) ([]db.SeriesPost, error) {
	var entries []db.SeriesPost
	err := s.db.
		Preload("Post").
		Where("series_id = ?", seriesID).
		Order("position asc").
		Find(&entries).Error
	return entries, err
}

// AddPost 把文章追加到系列末尾。
func (s *SeriesService) AddPost(seriesID, postID uint) (*db.SeriesPost, error) {
	var entry db.SeriesPost
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&db.Series{}, seriesID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSeriesNotFound
			}
			return err
		}
		if err := tx.Select("id").First(&db.Post{}, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&db.SeriesPost{}).Where("series_id = ? AND post_id = ?", seriesID, postID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrSeriesPostExists
		}

		var last int
		if err := tx.Model(&db.SeriesPost{}).
			Select("COALESCE(MAX(position), 0)").
			Where("series_id = ?", seriesID).
			Scan(&last).Error; err != nil {
			return err
		}

		entry = db.SeriesPost{SeriesID: seriesID, PostID: postID, Position: last + 1}
		return tx.Create(&entry).Error
	})
	if err != nil {
		if db.IsDuplicate(err) {
			return nil, ErrSeriesPostExists
		}
		return nil, err
	}
	return &entry, nil
}

// RemovePost 把文章移出系列，其余文章的位置保持连续。
func (s *SeriesService) RemovePost(seriesID, postID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("series_id = ? AND post_id = ?", seriesID, postID).Delete(&db.SeriesPost{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSeriesPostNotFound
		}

		var remaining []db.SeriesPost
		if err := tx.Where("series_id = ?", seriesID).Order("position asc").Find(&remaining).Error; err != nil {
			return err
		}
		return renumber(tx, remaining)
	})
}

// Reorder 按 postIDs 的顺序重排系列，postIDs 必须恰好覆盖系列中的全部文章。
func (s *SeriesService) Reorder(seriesID uint, postIDs []uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&db.Series{}, seriesID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSeriesNotFound
			}
			return err
		}

		var entries []db.SeriesPost
		if err := tx.Where("series_id = ?", seriesID).Find(&entries).Error; err != nil {
			return err
		}
		if len(entries) != len(postIDs) {
			return ErrSeriesOrder
		}

		byPost := make(map[uint]db.SeriesPost, len(entries))
		for _, entry := range entries {
			byPost[entry.PostID] = entry
		}

		ordered := make([]db.SeriesPost, 0, len(postIDs))
		seen := make(map[uint]struct{}, len(postIDs))
		for _, postID := range postIDs {
			entry, ok := byPost[postID]
			if !ok {
				return ErrSeriesOrder
			}
			if _, dup := seen[postID]; dup {
				return ErrSeriesOrder
			}
			seen[postID] = struct{}{}
			ordered = append(ordered, entry)
		}

		return renumber(tx, ordered)
	})
}

// renumber 把 entries 依次编号为 1..n。
// (series_id, position) 有唯一索引，先写入负数位置再写回正数，避免中途冲突。
func renumber(tx *gorm.DB, entries []db.SeriesPost) error {
	for i, entry := range entries {
		if err := tx.Model(&db.SeriesPost{}).Where("id = ?", entry.ID).Update("position", -(i + 1)).Error; err != nil {
			return err
		}
	}
	for i, entry := range entries {
		if err := tx.Model(&db.SeriesPost{}).Where("id = ?", entry.ID).Update("position", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}

// Navigation 返回文章所在的每个已发布系列中的前后篇，只考虑已发布文章。
func (s *SeriesService) Navigation(postID uint) ([]SeriesNav, error) {
	var memberships []db.SeriesPost
	if err := s.db.Where("post_id = ?", postID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	navs := make([]SeriesNav, 0, len(memberships))
	for _, membership := range memberships {
		var series db.Series
		if err := s.db.First(&series, membership.SeriesID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		if series.Status != db.PostStatusPublished {
			continue
		}

		var entries []db.SeriesPost
		if err := s.db.
			Preload("Post").
			Where("series_id = ?", series.ID).
			Where("post_id IN (?)", s.db.Model(&db.Post{}).Select("id").Where("status = ?", db.PostStatusPublished)).
			Order("position asc").
			Find(&entries).Error; err != nil {
			return nil, err
		}

		nav := SeriesNav{Series: series, Total: len(entries)}
		for i := range entries {
			if entries[i].PostID != postID {
				continue
			}
			nav.Position = i + 1
			if i > 0 {
				prev := entries[i-1].Post
				nav.Previous = &prev
			}
			if i+1 < len(entries) {
				next := entries[i+1].Post
				nav.Next = &next
			}
		}
		if nav.Position > 0 {
			navs = append(navs, nav)
		}
	}
	return navs, nil
}
