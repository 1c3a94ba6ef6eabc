package db

import "gorm.io/gorm"

// Page represents a standalone content page such as About.
type Page struct {
	gorm.Model
	Slug    string `gorm:"uniqueIndex;size:120;not null"`
	Title   string `gorm:"not null"`
	Summary string
	Content string `gorm:"type:text"`
}

func (p *Page) SlugSource() string  { return p.Title }
func (p *Page) GetSlug() string     { return p.Slug }
func (p *Page) SetSlug(v string)    { p.Slug = v }
func (p *Page) DisplayName() string { return p.Title }

func (p *Page) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(p)
	return nil
}

// ContactLink 用于保存关于页展示的联系与社交信息
// Icon 字段匹配 view 包内置的图标，Sort 值越小越靠前
type ContactLink struct {
	gorm.Model
	Platform string `gorm:"size:50;not null"`
	Label    string `gorm:"size:80;not null"`
	URL      string `gorm:"size:255"`
	Icon     string `gorm:"size:50"`
	Sort     int    `gorm:"default:0"`
	Visible  bool   `gorm:"default:true"`
}

func (c *ContactLink) DisplayName() string { return c.Label }
