package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aurafolio/internal/admin"
	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserID   = "user_id"
	sessionUsername = "username"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "管理员登录",
		"next":  c.Query("next"),
	})
}

// Login 处理登录，表单提交成功后跳转，JSON 请求返回用户信息。
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		a.loginFailed(c, http.StatusBadRequest, "请输入用户名和密码")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		a.loginFailed(c, http.StatusBadRequest, "请输入用户名和密码")
		return
	}

	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil || !user.CheckPassword(req.Password) {
		a.loginFailed(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}
	if !user.IsStaff {
		a.loginFailed(c, http.StatusForbidden, "该账号没有后台权限")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserID, user.ID)
	session.Set(sessionUsername, user.Username)
	if err := session.Save(); err != nil {
		c.Error(err)
		a.loginFailed(c, http.StatusInternalServerError, "会话保存失败")
		return
	}
	a.logger.Info("admin login", "user", user.Username)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"message": "登录成功", "user": gin.H{"id": user.ID, "username": user.Username}})
		return
	}
	next := c.PostForm("next")
	if !strings.HasPrefix(next, "/admin") {
		next = "/admin"
	}
	c.Redirect(http.StatusFound, next)
}

func (a *API) loginFailed(c *gin.Context, status int, message string) {
	if wantsJSON(c) {
		respondError(c, status, message)
		return
	}
	a.renderHTML(c, status, "login.html", gin.H{"title": "管理员登录", "error": message})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

// AuthRequired 校验后台会话，并把用户 id 写入上下文供通用 CRUD 设置作者。
// JSON 接口返回 401，页面请求跳转到登录页。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserID).(uint)
		if !ok || userID == 0 {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api") {
				respondError(c, http.StatusUnauthorized, "请先登录")
				c.Abort()
				return
			}
			admin.Flash(c, "请先登录后再访问该页面")
			c.Redirect(http.StatusFound, "/admin/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Set(admin.ContextUserID, userID)
		c.Set(sessionUsername, session.Get(sessionUsername))
		c.Next()
	}
}

// ShowDashboard 渲染后台首页或某个应用的统计卡片。
func (a *API) ShowDashboard(c *gin.Context) {
	app := c.Param("app")
	if app == "" {
		app = service.DashboardOverview
	}

	dashboard, err := a.dashboard.Dashboard(c.Request.Context(), app)
	if err != nil {
		if errors.Is(err, service.ErrUnknownDashboard) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Error(err)
		a.renderHTML(c, http.StatusInternalServerError, "admin_dashboard.html", gin.H{
			"title": "控制台",
			"error": "统计数据加载失败",
		})
		return
	}

	trend, err := a.analytics.Trend(14, a.now())
	if err != nil {
		c.Error(err)
	}
	top, err := a.analytics.TopPosts(5)
	if err != nil {
		c.Error(err)
	}

	a.renderHTML(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"title":     dashboard.Title,
		"dashboard": dashboard,
		"apps":      service.DashboardApps,
		"username":  c.GetString(sessionUsername),
		"trend":     trend,
		"topPosts":  top,
	})
}

// GetDashboard 以 JSON 返回统计卡片。
func (a *API) GetDashboard(c *gin.Context) {
	app := c.Param("app")
	if app == "" {
		app = service.DashboardOverview
	}

	dashboard, err := a.dashboard.Dashboard(c.Request.Context(), app)
	if err != nil {
		if errors.Is(err, service.ErrUnknownDashboard) {
			respondError(c, http.StatusNotFound, "仪表盘不存在")
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "获取统计数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"app":         dashboard.App,
		"title":       dashboard.Title,
		"cards":       dashboard.Cards,
		"generatedAt": dashboard.GeneratedAt,
	})
}

// GetAnalytics 返回最近的流量趋势与热门文章。
func (a *API) GetAnalytics(c *gin.Context) {
	days := parsePositiveInt(c.DefaultQuery("days", "30"), 30)
	if days > 365 {
		days = 365
	}

	trend, err := a.analytics.Trend(days, a.now())
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "获取访问统计失败")
		return
	}
	top, err := a.analytics.TopPosts(parsePositiveInt(c.Query("limit"), 5))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "获取访问统计失败")
		return
	}

	points := make([]gin.H, 0, len(trend))
	for _, day := range trend {
		points = append(points, gin.H{
			"date":      day.Date,
			"pageViews": day.PageViews,
			"visitors":  day.Visitors,
			"referrers": day.Referrers,
		})
	}
	response := gin.H{"trend": points, "topPosts": top}

	// ?posts=1,2,3 附带指定文章的 PV/UV
	if ids := parseIDList(c.Query("posts")); len(ids) > 0 {
		stats, err := a.analytics.PostStatsMap(ids)
		if err != nil {
			c.Error(err)
			respondError(c, http.StatusInternalServerError, "获取访问统计失败")
			return
		}
		posts := make(map[string]gin.H, len(stats))
		for id, stat := range stats {
			posts[strconv.FormatUint(uint64(id), 10)] = gin.H{
				"pageViews":      stat.PageViews,
				"uniqueVisitors": stat.UniqueVisitors,
				"lastViewedAt":   stat.LastViewedAt,
			}
		}
		response["posts"] = posts
	}
	c.JSON(http.StatusOK, response)
}
