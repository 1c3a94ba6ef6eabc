package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ContextUserID 是登录中间件写入的当前用户 id。
const ContextUserID = "admin_user_id"

// Binder 把请求内容写入 item；新建时 item 为零值，更新时为数据库中的当前记录。
type Binder[T any] func(c *gin.Context, item *T) error

// Handlers 把 Resource 暴露为 JSON 接口。
type Handlers[T any] struct {
	res  *Resource[T]
	bind Binder[T]
}

// NewHandlers 创建资源的处理器集合。
func NewHandlers[T any](res *Resource[T], bind Binder[T]) *Handlers[T] {
	return &Handlers[T]{res: res, bind: bind}
}

// Resource 返回底层资源。
func (h *Handlers[T]) Resource() *Resource[T] {
	return h.res
}

// Register 挂载 列表/详情/新建/更新/删除 路由。
func Register[T any](group *gin.RouterGroup, h *Handlers[T]) {
	cfg := h.res.Config()
	path := "/" + cfg.Path
	if cfg.Section != "" {
		path = "/" + cfg.Section + path
	}

	routes := group.Group(path)
	routes.GET("", h.List)
	routes.GET("/:id", h.Detail)
	routes.POST("", h.Create)
	routes.PUT("/:id", h.Update)
	routes.DELETE("/:id", h.Delete)
}

// List 返回分页列表，支持 search/status/page 以及 FilterColumns 中的查询参数。
func (h *Handlers[T]) List(c *gin.Context) {
	params := ListParams{
		Search:  strings.TrimSpace(c.Query("search")),
		Status:  strings.TrimSpace(c.Query("status")),
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
	}
	if columns := h.res.cfg.FilterColumns; len(columns) > 0 {
		params.Filters = make(map[string]string, len(columns))
		for _, column := range columns {
			params.Filters[column] = c.Query(column)
		}
	}

	page, err := h.res.List(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("获取%s列表失败", h.res.cfg.Name))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":       h.res.cfg.Plural,
		"items":       page.Items,
		"total":       page.Total,
		"pagination":  paginationJSON(page),
		"search":      params.Search,
		"status":      params.Status,
		"breadcrumbs": h.res.Breadcrumbs("", nil),
	})
}

// Detail 返回单条记录。
func (h *Handlers[T]) Detail(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	item, err := h.res.Get(c.Request.Context(), id)
	if err != nil {
		h.respondFailure(c, err, "获取")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item":        item,
		"breadcrumbs": h.res.Breadcrumbs("", item),
	})
}

// Create 新建记录，作者默认取当前登录用户。
func (h *Handlers[T]) Create(c *gin.Context) {
	var item T
	if err := h.bind(c, &item); err != nil {
		h.respondFailure(c, err, "创建")
		return
	}

	if err := h.res.Create(c.Request.Context(), &item, c.GetUint(ContextUserID)); err != nil {
		h.respondFailure(c, err, "创建")
		return
	}

	message := h.successMessage(&item, "已创建")
	Flash(c, message)
	c.JSON(http.StatusCreated, gin.H{"message": message, "item": item})
}

// Update 更新记录。
func (h *Handlers[T]) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	item, err := h.res.Update(c.Request.Context(), id, func(current *T) error {
		return h.bind(c, current)
	})
	if err != nil {
		h.respondFailure(c, err, "更新")
		return
	}

	message := h.successMessage(item, "已更新")
	Flash(c, message)
	c.JSON(http.StatusOK, gin.H{"message": message, "item": item})
}

// Delete 删除记录。
func (h *Handlers[T]) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	item, err := h.res.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondFailure(c, err, "删除")
		return
	}

	message := h.successMessage(item, "已删除")
	Flash(c, message)
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handlers[T]) parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("无效的%sID", h.res.cfg.Name))
		return 0, false
	}
	return uint(id), true
}

func (h *Handlers[T]) successMessage(item *T, verb string) string {
	if name := DisplayName(item); name != "" {
		return fmt.Sprintf("%s「%s」%s", h.res.cfg.Name, name, verb)
	}
	return h.res.cfg.Name + verb
}

func (h *Handlers[T]) respondFailure(c *gin.Context, err error, action string) {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		respondError(c, http.StatusBadRequest, validation.Message)
	case errors.Is(err, ErrNotFound):
		respondError(c, http.StatusNotFound, h.res.cfg.Name+"不存在")
	case errors.Is(err, ErrDuplicate):
		respondError(c, http.StatusBadRequest, h.res.cfg.Name+"已存在")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, action+h.res.cfg.Name+"失败")
	}
}

// Flash 把一次性提示写入会话；未启用会话中间件时忽略。
func Flash(c *gin.Context, message string) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return
	}
	session := sessions.Default(c)
	session.AddFlash(message)
	_ = session.Save()
}

// Flashes 取出并清空会话中的提示。
func Flashes(c *gin.Context) []string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save()

	messages := make([]string, 0, len(raw))
	for _, value := range raw {
		if text, ok := value.(string); ok {
			messages = append(messages, text)
		}
	}
	return messages
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return value
}

func paginationJSON[T any](page *Page[T]) gin.H {
	return gin.H{
		"page":       page.Page,
		"perPage":    page.PerPage,
		"totalPages": page.TotalPages,
		"hasPrev":    page.HasPrev(),
		"hasNext":    page.HasNext(),
	}
}

// BindJSON 是基于 JSON 请求体的通用 Binder 辅助：解析到请求结构后交给 apply 写入模型。
func BindJSON[Req any, T any](apply func(req *Req, item *T) error) Binder[T] {
	return func(c *gin.Context, item *T) error {
		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			return Invalid("请求参数不合法")
		}
		return apply(&req, item)
	}
}
