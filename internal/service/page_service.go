package service

import (
	"errors"
	"strings"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/markdown"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound       = errors.New("page not found")
	ErrPageContentMissing = errors.New("page content is required")
)

// AboutPageSlug 是关于页的固定 slug。
const AboutPageSlug = "about"

// PageService provides access to static pages such as About.
type PageService struct {
	db *gorm.DB
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// GetBySlug fetches a page for a given slug.
func (s *PageService) GetBySlug(slug string) (*db.Page, error) {
	var page db.Page
	if err := s.db.Where("slug = ?", slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// SaveAboutPage creates or updates the about page content.
func (s *PageService) SaveAboutPage(title, content string) (*db.Page, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrPageContentMissing
	}
	if strings.TrimSpace(title) == "" {
		title = "About"
	}

	var page db.Page
	err := s.db.Where("slug = ?", AboutPageSlug).First(&page).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		page = db.Page{Slug: AboutPageSlug}
	case err != nil:
		return nil, err
	}

	page.Title = strings.TrimSpace(title)
	page.Content = trimmed
	page.Summary = markdown.Excerpt(trimmed, 30)
	if err := s.db.Save(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}
