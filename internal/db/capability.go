package db

import (
	"strings"

	"github.com/gosimple/slug"
)

// Sluggable 由拥有 slug 字段的模型实现，slug 为空时从 SlugSource 生成。
type Sluggable interface {
	SlugSource() string
	GetSlug() string
	SetSlug(string)
}

// Authored 由记录作者的模型实现。
type Authored interface {
	GetAuthorID() uint
	SetAuthorID(uint)
}

// Named 提供后台面包屑与提示消息使用的展示名称。
type Named interface {
	DisplayName() string
}

// Slugify 生成 URL 友好的 slug。
func Slugify(value string) string {
	return slug.Make(strings.TrimSpace(value))
}

// EnsureSlug 在 slug 为空时用 SlugSource 填充。
func EnsureSlug(s Sluggable) {
	if strings.TrimSpace(s.GetSlug()) != "" {
		s.SetSlug(strings.TrimSpace(s.GetSlug()))
		return
	}
	s.SetSlug(Slugify(s.SlugSource()))
}
