package handler

import (
	"net/http"

	"github.com/aurafolio/internal/maintenance"
	"github.com/gin-gonic/gin"
)

type maintenanceRequest struct {
	Message string `json:"message"`
}

// GetMaintenance 返回维护模式状态。
func (a *API) GetMaintenance(c *gin.Context) {
	status, err := a.opts.Maintenance.Status()
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "读取维护状态失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"maintenance": status})
}

// EnableMaintenance 开启维护模式，操作人取当前登录用户。
func (a *API) EnableMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "维护信息格式不正确") {
		return
	}

	operator := c.GetString(sessionUsername)
	if err := a.opts.Maintenance.Enable(req.Message, operator, a.now()); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "开启维护模式失败")
		return
	}
	a.logger.Warn("maintenance mode enabled", "operator", operator)

	status, _ := a.opts.Maintenance.Status()
	c.JSON(http.StatusOK, gin.H{"message": "维护模式已开启", "maintenance": status})
}

// DisableMaintenance 关闭维护模式。
func (a *API) DisableMaintenance(c *gin.Context) {
	removed, err := a.opts.Maintenance.Disable()
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "关闭维护模式失败")
		return
	}
	message := "维护模式已关闭"
	if !removed {
		message = "维护模式未开启"
	} else {
		a.logger.Info("maintenance mode disabled", "operator", c.GetString(sessionUsername))
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "maintenance": maintenance.Status{}})
}

// RenderMaintenancePage 是维护中间件使用的 HTML 渲染函数。
func (a *API) RenderMaintenancePage(c *gin.Context, status maintenance.Status) {
	a.renderHTML(c, http.StatusServiceUnavailable, "maintenance.html", gin.H{
		"title":       "维护中",
		"maintenance": status,
	})
}
