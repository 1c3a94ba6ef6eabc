package service

import (
	"errors"
	"strings"
	"time"

	"github.com/aurafolio/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrSlugExists   = errors.New("slug already exists")
)

// PostService wraps post related database operations.
type PostService struct {
	db *gorm.DB
}

// PublicFilter 描述前台文章列表的过滤条件，各条件可以组合。
type PublicFilter struct {
	CategorySlug string
	TagSlug      string
	Search       string
	Year         int
	Month        int
	Page         int
	PerPage      int
}

// PublicListResult 前台分页结果
type PublicListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// ListPublished 返回已发布文章，按发布时间倒序。
func (s *PostService) ListPublished(filter PublicFilter) (*PublicListResult, error) {
	result := &PublicListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	if err := s.applyPublicFilters(s.db.Model(&db.Post{}), filter).Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage
	var posts []db.Post
	dataQuery := s.applyPublicFilters(s.db.Model(&db.Post{}), filter).
		Preload("Tags").
		Preload("Category").
		Preload("Author")
	if err := dataQuery.
		Order("posts.published_at desc, posts.id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, result.PerPage)
	result.Posts = posts
	return result, nil
}

func (s *PostService) applyPublicFilters(query *gorm.DB, filter PublicFilter) *gorm.DB {
	query = query.Where("posts.status = ?", db.PostStatusPublished)

	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		query = query.Where("posts.category_id IN (?)",
			s.db.Model(&db.Category{}).Select("id").Where("slug = ?", slug))
	}

	if slug := strings.TrimSpace(filter.TagSlug); slug != "" {
		query = query.Where("posts.id IN (?)",
			s.db.Table("post_tags").
				Select("post_tags.post_id").
				Joins("JOIN tags ON tags.id = post_tags.tag_id").
				Where("tags.slug = ?", slug))
	}

	// 搜索匹配标题、正文或任一标签名
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tagMatches := s.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("LOWER(tags.name) LIKE ?", like)
		query = query.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ? OR posts.id IN (?))", like, like, tagMatches)
	}

	if filter.Year > 0 {
		start, end := archiveWindow(filter.Year, filter.Month)
		query = query.Where("posts.published_at >= ? AND posts.published_at < ?", start, end)
	}

	return query
}

// archiveWindow 返回某年（或某年某月）的 [start, end) 区间。
func archiveWindow(year, month int) (time.Time, time.Time) {
	if month >= 1 && month <= 12 {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// GetPublishedBySlug 读取已发布文章及其分类、标签与关联项目。
func (s *PostService) GetPublishedBySlug(slug string) (*db.Post, error) {
	var post db.Post
	err := s.db.
		Preload("Tags").
		Preload("Category").
		Preload("Author").
		Preload("SystemLinks.SystemModule").
		Where("slug = ? AND status = ?", strings.TrimSpace(slug), db.PostStatusPublished).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// ToggleStatus 在 draft 与 published 之间切换，发布时间随之设置或清空。
func (s *PostService) ToggleStatus(id uint) (*db.Post, error) {
	return s.mutate(id, func(post *db.Post) {
		if post.IsPublished() {
			post.Status = db.PostStatusDraft
		} else {
			post.Status = db.PostStatusPublished
		}
	})
}

// ToggleFeatured 切换精选标记。
func (s *PostService) ToggleFeatured(id uint) (*db.Post, error) {
	return s.mutate(id, func(post *db.Post) {
		post.Featured = !post.Featured
	})
}

func (s *PostService) mutate(id uint, apply func(post *db.Post)) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	apply(&post)
	if err := s.db.Omit(clause.Associations).Save(&post).Error; err != nil {
		if db.IsDuplicate(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}
	return &post, nil
}

// Featured 返回精选的已发布文章。
func (s *PostService) Featured(limit int) ([]db.Post, error) {
	var posts []db.Post
	err := s.db.
		Preload("Category").
		Where("status = ? AND featured = ?", db.PostStatusPublished, true).
		Order("published_at desc, id desc").
		Limit(positive(limit, 3)).
		Find(&posts).Error
	return posts, err
}

// Latest 返回最新发布的文章。
func (s *PostService) Latest(limit int) ([]db.Post, error) {
	var posts []db.Post
	err := s.db.
		Preload("Category").
		Preload("Tags").
		Where("status = ?", db.PostStatusPublished).
		Order("published_at desc, id desc").
		Limit(positive(limit, 5)).
		Find(&posts).Error
	return posts, err
}

// Related 返回与文章同分类或共享标签的其他已发布文章。
func (s *PostService) Related(post *db.Post, limit int) ([]db.Post, error) {
	if post == nil {
		return nil, nil
	}

	tagIDs := make([]uint, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}
	if post.CategoryID == nil && len(tagIDs) == 0 {
		return []db.Post{}, nil
	}

	related := s.db.Where("1 = 0")
	if post.CategoryID != nil {
		related = related.Or("posts.category_id = ?", *post.CategoryID)
	}
	if len(tagIDs) > 0 {
		related = related.Or("posts.id IN (?)",
			s.db.Table("post_tags").Select("post_id").Where("tag_id IN ?", tagIDs))
	}

	var posts []db.Post
	err := s.db.
		Preload("Category").
		Where("posts.status = ? AND posts.id <> ?", db.PostStatusPublished, post.ID).
		Where(related).
		Order("posts.published_at desc, posts.id desc").
		Limit(positive(limit, 3)).
		Find(&posts).Error
	return posts, err
}

func totalPages(total int64, perPage int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// maxWindowDays 限制按天统计的时间窗口。
const maxWindowDays = 365

func clampDays(days, fallback int) int {
	return min(positive(days, fallback), maxWindowDays)
}

func positive(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
