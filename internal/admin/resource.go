// Package admin 提供后台通用的列表/创建/更新/删除能力，各模型通过 Config 描述差异。
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/view"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// ValidationError 表示提交的数据不合法，Message 直接展示给用户。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid 构造 ValidationError。
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Config 描述一个后台资源。
type Config[T any] struct {
	Name          string // 单数展示名，如“文章”
	Plural        string // 列表标题
	Section       string // 所属应用的路径段，如 blog
	SectionLabel  string
	Path          string // 资源路径段，如 posts
	SearchColumns []string
	StatusColumn  string
	FilterColumns []string // 按同名查询参数做等值过滤，如 system_module_id
	Order         string
	Preloads      []string
	PerPage       int

	// AfterSave 与保存在同一事务内执行，用于替换多对多关联等。
	AfterSave func(tx *gorm.DB, item *T) error
	// BeforeDelete 与删除在同一事务内执行。
	BeforeDelete func(tx *gorm.DB, item *T) error
	// OnChange 在任意写操作成功后调用，如刷新仪表盘缓存。
	OnChange func(ctx context.Context)
}

// ListParams 是列表查询参数。
type ListParams struct {
	Search  string
	Status  string
	Filters map[string]string
	Page    int
	PerPage int
}

// Page 是一页结果。
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// HasNext 是否存在下一页。
func (p *Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev 是否存在上一页。
func (p *Page[T]) HasPrev() bool { return p.Page > 1 }

// Resource 为模型 T 提供通用 CRUD。
type Resource[T any] struct {
	db  *gorm.DB
	cfg Config[T]
}

// NewResource 创建资源。
func NewResource[T any](gdb *gorm.DB, cfg Config[T]) *Resource[T] {
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.Plural == "" {
		cfg.Plural = cfg.Name
	}
	return &Resource[T]{db: gdb, cfg: cfg}
}

// Config 返回资源配置。
func (r *Resource[T]) Config() Config[T] {
	return r.cfg
}

// List 按搜索词与状态过滤并分页。
func (r *Resource[T]) List(ctx context.Context, params ListParams) (*Page[T], error) {
	result := &Page[T]{Page: params.Page, PerPage: params.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = r.cfg.PerPage
	}
	if result.PerPage > maxPerPage {
		result.PerPage = maxPerPage
	}

	countQuery := r.applyFilters(r.db.WithContext(ctx).Model(new(T)), params)
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	dataQuery := r.applyFilters(r.db.WithContext(ctx).Model(new(T)), params)
	for _, preload := range r.cfg.Preloads {
		dataQuery = dataQuery.Preload(preload)
	}
	if r.cfg.Order != "" {
		dataQuery = dataQuery.Order(r.cfg.Order)
	}

	items := make([]T, 0, result.PerPage)
	offset := (result.Page - 1) * result.PerPage
	if err := dataQuery.Limit(result.PerPage).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}
	result.Items = items
	return result, nil
}

func (r *Resource[T]) applyFilters(query *gorm.DB, params ListParams) *gorm.DB {
	if search := strings.TrimSpace(params.Search); search != "" && len(r.cfg.SearchColumns) > 0 {
		like := "%" + strings.ToLower(search) + "%"
		conditions := make([]string, 0, len(r.cfg.SearchColumns))
		args := make([]any, 0, len(r.cfg.SearchColumns))
		for _, column := range r.cfg.SearchColumns {
			conditions = append(conditions, fmt.Sprintf("LOWER(%s) LIKE ?", column))
			args = append(args, like)
		}
		query = query.Where("("+strings.Join(conditions, " OR ")+")", args...)
	}

	if status := strings.TrimSpace(params.Status); status != "" && r.cfg.StatusColumn != "" {
		query = query.Where(r.cfg.StatusColumn+" = ?", status)
	}

	for _, column := range r.cfg.FilterColumns {
		if value := strings.TrimSpace(params.Filters[column]); value != "" {
			query = query.Where(column+" = ?", value)
		}
	}

	return query
}

// Get 按 id 读取，并预加载配置的关联。
func (r *Resource[T]) Get(ctx context.Context, id uint) (*T, error) {
	query := r.db.WithContext(ctx)
	for _, preload := range r.cfg.Preloads {
		query = query.Preload(preload)
	}

	var item T
	if err := query.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Create 保存新记录；模型实现 db.Authored 且未指定作者时使用 actorID。
// slug 由模型自身的 BeforeSave 钩子补全。
func (r *Resource[T]) Create(ctx context.Context, item *T, actorID uint) error {
	if authored, ok := any(item).(db.Authored); ok && authored.GetAuthorID() == 0 && actorID != 0 {
		authored.SetAuthorID(actorID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		if r.cfg.AfterSave != nil {
			return r.cfg.AfterSave(tx, item)
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}

	r.changed(ctx)
	return nil
}

// Update 读取记录，交给 apply 修改后保存。
func (r *Resource[T]) Update(ctx context.Context, id uint, apply func(item *T) error) (*T, error) {
	var item T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		if err := apply(&item); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&item).Error; err != nil {
			return err
		}
		if r.cfg.AfterSave != nil {
			return r.cfg.AfterSave(tx, &item)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	r.changed(ctx)
	return r.Get(ctx, id)
}

// Delete 物理删除记录及其从属行（一对多与多对多关联）。
func (r *Resource[T]) Delete(ctx context.Context, id uint) (*T, error) {
	var item T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		if r.cfg.BeforeDelete != nil {
			if err := r.cfg.BeforeDelete(tx, &item); err != nil {
				return err
			}
		}
		return tx.Unscoped().Select(clause.Associations).Delete(&item).Error
	})
	if err != nil {
		return nil, translate(err)
	}

	r.changed(ctx)
	return &item, nil
}

// Breadcrumbs 生成 控制台 → 应用 → 模型 → 当前项/动作 的导航。
func (r *Resource[T]) Breadcrumbs(action string, item *T) []view.Breadcrumb {
	crumbs := []view.Breadcrumb{{Label: "控制台", URL: "/admin"}}
	if r.cfg.Section != "" {
		label := r.cfg.SectionLabel
		if label == "" {
			label = view.Humanize(r.cfg.Section)
		}
		crumbs = append(crumbs, view.Breadcrumb{Label: label, URL: "/admin/" + r.cfg.Section})
	}
	crumbs = append(crumbs, view.Breadcrumb{Label: r.cfg.Plural, URL: r.basePath()})

	switch {
	case item != nil:
		crumbs = append(crumbs, view.Breadcrumb{Label: DisplayName(item)})
	case action != "":
		crumbs = append(crumbs, view.Breadcrumb{Label: action})
	default:
		crumbs[len(crumbs)-1].URL = ""
	}
	return crumbs
}

func (r *Resource[T]) basePath() string {
	if r.cfg.Section == "" {
		return "/admin/" + r.cfg.Path
	}
	return "/admin/" + r.cfg.Section + "/" + r.cfg.Path
}

func (r *Resource[T]) changed(ctx context.Context) {
	if r.cfg.OnChange != nil {
		r.cfg.OnChange(ctx)
	}
}

// DisplayName 返回记录的展示名称。
func DisplayName(item any) string {
	if named, ok := item.(db.Named); ok {
		return named.DisplayName()
	}
	return ""
}

func translate(err error) error {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case db.IsDuplicate(err):
		return ErrDuplicate
	}
	return err
}
