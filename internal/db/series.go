package db

import (
	"time"

	"gorm.io/gorm"
)

// Series 是按顺序组织的一组文章。
type Series struct {
	gorm.Model
	Title       string       `gorm:"size:200;not null"`
	Slug        string       `gorm:"uniqueIndex;size:200;not null"`
	Description string       `gorm:"type:text"`
	Status      string       `gorm:"size:20;default:draft"`
	Entries     []SeriesPost `gorm:"foreignKey:SeriesID"`
}

func (s *Series) SlugSource() string  { return s.Title }
func (s *Series) GetSlug() string     { return s.Slug }
func (s *Series) SetSlug(v string)    { s.Slug = v }
func (s *Series) DisplayName() string { return s.Title }

// BeforeSave 保证 slug 不为空。
func (s *Series) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(s)
	return nil
}

// SeriesPost 记录文章在系列中的位置，(series, post) 与 (series, position) 均唯一。
type SeriesPost struct {
	ID        uint `gorm:"primaryKey"`
	SeriesID  uint `gorm:"uniqueIndex:idx_series_post;uniqueIndex:idx_series_position;not null"`
	PostID    uint `gorm:"uniqueIndex:idx_series_post;index;not null"`
	Post      Post
	Position  int `gorm:"uniqueIndex:idx_series_position;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (SeriesPost) TableName() string {
	return "series_posts"
}
