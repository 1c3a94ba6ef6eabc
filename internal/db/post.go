package db

import (
	"time"

	"github.com/aurafolio/internal/markdown"
	"gorm.io/gorm"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// excerptWords 是自动摘要保留的词数。
const excerptWords = 40

// Post 定义了文章（DataLog）模型
type Post struct {
	gorm.Model
	Title         string `gorm:"size:200;not null"`
	Slug          string `gorm:"uniqueIndex;size:200;not null"`
	Content       string `gorm:"type:text"`
	Excerpt       string `gorm:"type:text"`
	Status        string `gorm:"size:20;default:draft;index"`
	Featured      bool   `gorm:"default:false;index"`
	ReadingTime   int
	PublishedAt   *time.Time `gorm:"index"`
	AuthorID      uint
	Author        User
	CategoryID    *uint `gorm:"index"`
	Category      *Category
	Tags          []Tag            `gorm:"many2many:post_tags;"`
	SystemLinks   []SystemLogEntry `gorm:"foreignKey:PostID"`
	SeriesEntries []SeriesPost     `gorm:"foreignKey:PostID"`

	// TagIDs 为后台表单提交的标签集合，非 nil 时保存后替换关联。
	TagIDs []uint `gorm:"-"`
}

func (p *Post) SlugSource() string  { return p.Title }
func (p *Post) GetSlug() string     { return p.Slug }
func (p *Post) SetSlug(v string)    { p.Slug = v }
func (p *Post) GetAuthorID() uint   { return p.AuthorID }
func (p *Post) SetAuthorID(id uint) { p.AuthorID = id }
func (p *Post) DisplayName() string { return p.Title }

// IsPublished 判断文章是否已发布。
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// BeforeSave 计算 slug、摘要、阅读时长并同步发布时间。
func (p *Post) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(p)
	if p.Status == "" {
		p.Status = PostStatusDraft
	}
	if p.Excerpt == "" {
		p.Excerpt = markdown.Excerpt(p.Content, excerptWords)
	}
	p.ReadingTime = markdown.ReadingTime(p.Content)
	p.SyncPublishedAt(time.Now())
	return nil
}

// SyncPublishedAt 首次发布时记录发布时间，退回草稿时清空。
// 发布时间统一存为 UTC，归档按月统计与列表过滤才能落在同一个月。
func (p *Post) SyncPublishedAt(now time.Time) {
	switch p.Status {
	case PostStatusPublished:
		published := now.UTC()
		if p.PublishedAt != nil {
			published = p.PublishedAt.UTC()
		}
		p.PublishedAt = &published
	case PostStatusDraft:
		p.PublishedAt = nil
	}
}
