package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/aurafolio/internal/service"
	"github.com/gin-gonic/gin"
)

type aboutPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GetAboutPage 返回关于页正文，供后台编辑器加载。
func (a *API) GetAboutPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(service.AboutPageSlug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			c.JSON(http.StatusOK, gin.H{"page": gin.H{"title": "About", "content": ""}})
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "加载关于页面失败，请稍后再试")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page": gin.H{
			"title":     page.Title,
			"content":   page.Content,
			"updatedAt": page.UpdatedAt.In(time.Local).Format("2006-01-02 15:04"),
		},
	})
}

// UpdateAboutPage saves the markdown content for the about page.
func (a *API) UpdateAboutPage(c *gin.Context) {
	var payload aboutPayload
	if !bindJSON(c, &payload, "内容格式不正确") {
		return
	}

	page, err := a.pages.SaveAboutPage(payload.Title, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageContentMissing):
			respondError(c, http.StatusBadRequest, "请填写关于页面内容")
		default:
			c.Error(err)
			respondError(c, http.StatusInternalServerError, "保存失败，请稍后重试")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "关于页面已更新",
		"page": gin.H{
			"title":     page.Title,
			"content":   page.Content,
			"updatedAt": page.UpdatedAt.In(time.Local).Format("2006-01-02 15:04"),
		},
	})
}
