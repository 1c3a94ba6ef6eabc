package db

import "gorm.io/gorm"

// Category 定义了文章分类模型
type Category struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;size:100;not null"`
	Slug        string `gorm:"uniqueIndex;size:120;not null"`
	Description string
	Color       string `gorm:"size:20;default:#00f0ff"`
	Icon        string `gorm:"size:50"`
	PostCount   int64  `gorm:"->;-:migration"`
}

func (c *Category) SlugSource() string  { return c.Name }
func (c *Category) GetSlug() string     { return c.Slug }
func (c *Category) SetSlug(v string)    { c.Slug = v }
func (c *Category) DisplayName() string { return c.Name }

// BeforeSave 保证 slug 不为空。
func (c *Category) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(c)
	return nil
}

// Tag 定义了标签模型
type Tag struct {
	gorm.Model
	Name      string `gorm:"uniqueIndex;size:100;not null"`
	Slug      string `gorm:"uniqueIndex;size:120;not null"`
	Color     string `gorm:"size:20;default:#b39ddb"`
	Icon      string `gorm:"size:50"`
	Posts     []Post `gorm:"many2many:post_tags;"`
	PostCount int64  `gorm:"->;-:migration"`
}

func (t *Tag) SlugSource() string  { return t.Name }
func (t *Tag) GetSlug() string     { return t.Slug }
func (t *Tag) SetSlug(v string)    { t.Slug = v }
func (t *Tag) DisplayName() string { return t.Name }

// BeforeSave 保证 slug 不为空。
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(t)
	return nil
}
