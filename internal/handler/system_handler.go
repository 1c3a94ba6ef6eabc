package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthCheck 提供监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"database":    "up",
		"maintenance": a.opts.Maintenance.Enabled(),
	})
}

type systemLinkRequest struct {
	PostID         uint   `json:"postId"`
	ConnectionType string `json:"connectionType"`
	Priority       string `json:"priority"`
	Impact         string `json:"impact"`
	Notes          string `json:"notes"`
}

// LinkSystemPost 创建或更新文章与项目之间的关联。
func (a *API) LinkSystemPost(c *gin.Context) {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的项目ID")
		return
	}
	var req systemLinkRequest
	if !bindJSON(c, &req, "关联数据不正确") {
		return
	}

	entry, err := a.systems.Link(moduleID, req.PostID, service.LinkInput{
		ConnectionType: strings.TrimSpace(req.ConnectionType),
		Priority:       strings.TrimSpace(req.Priority),
		Impact:         strings.TrimSpace(req.Impact),
		Notes:          req.Notes,
	})
	if err != nil {
		a.respondSystemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "关联已保存", "link": entry})
}

// UnlinkSystemPost 删除文章与项目之间的关联。
func (a *API) UnlinkSystemPost(c *gin.Context) {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的项目ID")
		return
	}
	postID, err := parseUintParam(c, "postId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	if err := a.systems.Unlink(moduleID, postID); err != nil {
		a.respondSystemError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "关联已删除"})
}

type commitRequest struct {
	Date    string `json:"date"`
	Commits int    `json:"commits"`
}

// RecordSystemCommits 写入某天的提交数。
func (a *API) RecordSystemCommits(c *gin.Context) {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的项目ID")
		return
	}
	var req commitRequest
	if !bindJSON(c, &req, "提交数据不正确") {
		return
	}
	day, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}
	if req.Commits < 0 {
		respondError(c, http.StatusBadRequest, "提交数不能为负数")
		return
	}
	if err := a.db.Select("id").First(&db.SystemModule{}, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "项目不存在")
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "保存提交记录失败")
		return
	}

	if err := a.systems.RecordCommits(moduleID, day, req.Commits); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "保存提交记录失败")
		return
	}
	a.invalidateDashboard(c)
	c.JSON(http.StatusOK, gin.H{"message": "提交记录已保存"})
}

// GetSystemActivity 返回项目最近的提交活动。
func (a *API) GetSystemActivity(c *gin.Context) {
	moduleID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的项目ID")
		return
	}
	days := parsePositiveInt(c.DefaultQuery("days", "30"), 30)
	if days > 365 {
		days = 365
	}

	activity, err := a.systems.CommitActivity(moduleID, days, a.now())
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "获取提交活动失败")
		return
	}

	points := make([]gin.H, 0, len(activity))
	for _, day := range activity {
		points = append(points, gin.H{"date": day.Date.Format(dateLayout), "commits": day.Commits})
	}
	c.JSON(http.StatusOK, gin.H{"activity": points})
}

func (a *API) respondSystemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSystemNotFound):
		respondError(c, http.StatusNotFound, "项目不存在")
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "文章不存在")
	case errors.Is(err, service.ErrLinkNotFound):
		respondError(c, http.StatusNotFound, "关联不存在")
	case errors.Is(err, service.ErrInvalidLinkField):
		respondError(c, http.StatusBadRequest, "关联类型、优先级或影响范围不合法")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "更新项目关联失败")
	}
}
