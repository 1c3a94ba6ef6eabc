package handler

import (
	"errors"
	"net/http"

	"github.com/aurafolio/internal/service"
	"github.com/gin-gonic/gin"
)

type seriesPostRequest struct {
	PostID uint `json:"postId"`
}

type seriesOrderRequest struct {
	PostIDs []uint `json:"postIds"`
}

// GetSeriesEntries 返回系列中按顺序排列的文章。
func (a *API) GetSeriesEntries(c *gin.Context) {
	seriesID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的系列ID")
		return
	}

	entries, err := a.series.Entries(seriesID)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "获取系列文章失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"postId":   entry.PostID,
			"title":    entry.Post.Title,
			"status":   entry.Post.Status,
			"position": entry.Position,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// AddSeriesPost 把文章追加到系列末尾。
func (a *API) AddSeriesPost(c *gin.Context) {
	seriesID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的系列ID")
		return
	}
	var req seriesPostRequest
	if !bindJSON(c, &req, "请选择文章") {
		return
	}

	entry, err := a.series.AddPost(seriesID, req.PostID)
	if err != nil {
		a.respondSeriesError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "已加入系列", "position": entry.Position})
}

// RemoveSeriesPost 从系列中移除文章，后续文章的位置前移。
func (a *API) RemoveSeriesPost(c *gin.Context) {
	seriesID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的系列ID")
		return
	}
	postID, err := parseUintParam(c, "postId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	if err := a.series.RemovePost(seriesID, postID); err != nil {
		a.respondSeriesError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已移出系列"})
}

// ReorderSeries 按提交的文章顺序重新编号，必须包含系列中的全部文章。
func (a *API) ReorderSeries(c *gin.Context) {
	seriesID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的系列ID")
		return
	}
	var req seriesOrderRequest
	if !bindJSON(c, &req, "排序数据不正确") {
		return
	}

	if err := a.series.Reorder(seriesID, req.PostIDs); err != nil {
		a.respondSeriesError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "顺序已更新"})
}

func (a *API) respondSeriesError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSeriesNotFound):
		respondError(c, http.StatusNotFound, "系列不存在")
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "文章不存在")
	case errors.Is(err, service.ErrSeriesPostExists):
		respondError(c, http.StatusBadRequest, "文章已在系列中")
	case errors.Is(err, service.ErrSeriesPostNotFound):
		respondError(c, http.StatusNotFound, "文章不在该系列中")
	case errors.Is(err, service.ErrSeriesOrder):
		respondError(c, http.StatusBadRequest, "排序需包含系列中的全部文章且不能重复")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "更新系列失败")
	}
}
