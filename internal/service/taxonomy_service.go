package service

import (
	"errors"
	"strings"

	"github.com/aurafolio/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrTagNameRequired  = errors.New("tag name is required")
)

// TaxonomyService 负责分类与标签的查询，以及按名称自动补齐标签。
type TaxonomyService struct {
	db *gorm.DB
}

// NewTaxonomyService creates a TaxonomyService instance.
func NewTaxonomyService(gdb *gorm.DB) *TaxonomyService {
	return &TaxonomyService{db: gdb}
}

// Categories 返回全部分类，PostCount 为已发布文章数。
func (s *TaxonomyService) Categories() ([]db.Category, error) {
	var categories []db.Category
	err := s.db.
		Model(&db.Category{}).
		Select("categories.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.status = ? AND posts.deleted_at IS NULL", db.PostStatusPublished).
		Group("categories.id").
		Order("categories.name asc").
		Find(&categories).Error
	return categories, err
}

// Tags 返回全部标签，PostCount 为已发布文章数。
func (s *TaxonomyService) Tags() ([]db.Tag, error) {
	var tags []db.Tag
	err := s.db.
		Model(&db.Tag{}).
		Select("tags.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("LEFT JOIN posts ON posts.id = post_tags.post_id AND posts.status = ? AND posts.deleted_at IS NULL", db.PostStatusPublished).
		Group("tags.id").
		Order("tags.name asc").
		Find(&tags).Error
	return tags, err
}

// CategoryBySlug 按 slug 查询分类。
func (s *TaxonomyService) CategoryBySlug(slug string) (*db.Category, error) {
	var category db.Category
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// TagBySlug 按 slug 查询标签。
func (s *TaxonomyService) TagBySlug(slug string) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// EnsureTagTx 在给定事务内按名称（或其 slug）查找标签，不存在时创建。
// 技能与技术保存后调用它，使关于页与文章标签保持同一套词表。
func EnsureTagTx(tx *gorm.DB, name string) (*db.Tag, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrTagNameRequired
	}

	var tag db.Tag
	err := tx.Where("name = ? OR slug = ?", trimmed, db.Slugify(trimmed)).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag = db.Tag{Name: trimmed}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// ReplacePostTags 用 tagIDs 替换文章的标签集合，未知 id 会被拒绝。
func ReplacePostTags(tx *gorm.DB, post *db.Post, tagIDs []uint) error {
	tags := make([]db.Tag, 0, len(tagIDs))
	if len(tagIDs) > 0 {
		if err := tx.Where("id IN ?", uniqueIDs(tagIDs)).Find(&tags).Error; err != nil {
			return err
		}
		if len(tags) != len(uniqueIDs(tagIDs)) {
			return ErrTagNotFound
		}
	}
	return tx.Model(post).Association("Tags").Replace(tags)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
