package handler

import (
	"errors"
	"net/http"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/markdown"
	"github.com/aurafolio/internal/service"
	"github.com/gin-gonic/gin"
)

// TogglePostStatus 在草稿与已发布之间切换，发布时间随之设置或清空。
func (a *API) TogglePostStatus(c *gin.Context) {
	a.togglePost(c, a.posts.ToggleStatus)
}

// TogglePostFeatured 切换文章的推荐状态。
func (a *API) TogglePostFeatured(c *gin.Context) {
	a.togglePost(c, a.posts.ToggleFeatured)
}

func (a *API) togglePost(c *gin.Context, toggle func(id uint) (*db.Post, error)) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	post, err := toggle(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "更新文章失败")
		return
	}
	a.invalidateDashboard(c)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"id":          post.ID,
		"status":      post.Status,
		"featured":    post.Featured,
		"publishedAt": post.PublishedAt,
	})
}

type previewRequest struct {
	Content string `json:"content"`
}

// PreviewMarkdown 渲染编辑器中的 Markdown，返回 HTML、目录与阅读时长。
func (a *API) PreviewMarkdown(c *gin.Context) {
	var req previewRequest
	if !bindJSON(c, &req, "内容格式不正确") {
		return
	}

	doc, err := markdown.Render(req.Content)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "渲染预览失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"html":        string(doc.HTML),
		"toc":         doc.TOC,
		"readingTime": markdown.ReadingTime(req.Content),
		"wordCount":   markdown.WordCount(req.Content),
	})
}
