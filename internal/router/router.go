package router

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aurafolio/internal/cache"
	"github.com/aurafolio/internal/config"
	"github.com/aurafolio/internal/handler"
	"github.com/aurafolio/internal/logging"
	"github.com/aurafolio/internal/maintenance"
	"github.com/aurafolio/internal/metrics"
	"github.com/aurafolio/internal/view"
	"github.com/aurafolio/web"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "aura_session"

// Options 描述路由需要的运行时配置。
type Options struct {
	SessionSecret    string
	UploadDir        string
	UploadURL        string
	ArchiveStart     time.Time
	Site             config.SiteConfig
	Maintenance      maintenance.Flag
	MaintenanceAllow []string
	Cache            cache.Store
	Metrics          *metrics.Collector
	Logger           *slog.Logger
	Now              func() time.Time
}

// FromConfig 把应用配置转换为路由选项。
func FromConfig(cfg config.AppConfig) Options {
	return Options{
		SessionSecret:    cfg.SessionSecret,
		UploadDir:        cfg.UploadDir,
		UploadURL:        cfg.UploadURLPath,
		ArchiveStart:     cfg.ArchiveStart,
		Site:             cfg.Site,
		Maintenance:      maintenance.Flag{Path: cfg.MaintenanceFile},
		MaintenanceAllow: cfg.MaintenanceAllow,
	}
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, opts Options) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryStore(5 * time.Minute)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	uploadURL := "/" + strings.Trim(strings.TrimSpace(opts.UploadURL), "/")
	if uploadURL == "/" {
		uploadURL = "/uploads"
	}
	if uploadURL == "/static" || strings.HasPrefix(uploadURL, "/static/") {
		return nil, fmt.Errorf("upload url %q conflicts with embedded /static assets", uploadURL)
	}

	api := handler.NewAPI(gdb, handler.Options{
		Site:         opts.Site,
		UploadDir:    opts.UploadDir,
		UploadURL:    uploadURL,
		ArchiveStart: opts.ArchiveStart,
		Maintenance:  opts.Maintenance,
		Cache:        opts.Cache,
		Metrics:      opts.Metrics,
		Logger:       opts.Logger,
		Now:          opts.Now,
	})

	tmpl, err := template.New("").Funcs(view.FuncMapAt(opts.Now)).ParseFS(web.Templates, "template/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(opts.Logger))
	r.Use(opts.Metrics.Middleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 3600, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	r.Use(maintenance.Middleware(opts.Maintenance, opts.MaintenanceAllow, api.RenderMaintenancePage))

	r.SetHTMLTemplate(tmpl)

	// 静态文件服务
	r.StaticFS("/static", http.FS(web.Static()))
	if strings.TrimSpace(opts.UploadDir) != "" {
		r.Static(uploadURL, opts.UploadDir)
	}

	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	r.GET("/", api.ShowHome)
	datalogs := r.Group("/datalogs")
	{
		datalogs.GET("", api.ShowDataLogs)
		datalogs.GET("/category/:slug", api.ShowCategory)
		datalogs.GET("/tag/:slug", api.ShowTag)
		datalogs.GET("/archive", api.ShowArchive)
		datalogs.GET("/archive/:year", api.ShowArchive)
		datalogs.GET("/archive/:year/:month", api.ShowArchive)
		datalogs.GET("/:slug", api.ShowPostDetail)
	}
	r.GET("/systems", api.ShowSystems)
	r.GET("/systems/:slug", api.ShowSystemDetail)
	r.GET("/about", api.ShowAbout)

	r.NoRoute(func(c *gin.Context) {
		api.RenderHTML(c, http.StatusNotFound, "not_found.html", gin.H{"title": "页面不存在"})
	})

	// 后台管理路由
	adminGroup := r.Group("/admin")
	{
		adminGroup.GET("/login", api.ShowLoginPage)
		adminGroup.POST("/login", api.Login)
		adminGroup.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := adminGroup.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/", api.ShowDashboard)
			auth.GET("/dashboard/:app", api.ShowDashboard)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/dashboard", api.GetDashboard)
				apiGroup.GET("/dashboard/:app", api.GetDashboard)
				apiGroup.GET("/analytics", api.GetAnalytics)

				api.RegisterResources(apiGroup)

				apiGroup.POST("/blog/posts/:id/toggle-status", api.TogglePostStatus)
				apiGroup.POST("/blog/posts/:id/toggle-featured", api.TogglePostFeatured)
				apiGroup.POST("/blog/preview", api.PreviewMarkdown)

				apiGroup.GET("/blog/series/:id/entries", api.GetSeriesEntries)
				apiGroup.POST("/blog/series/:id/posts", api.AddSeriesPost)
				apiGroup.DELETE("/blog/series/:id/posts/:postId", api.RemoveSeriesPost)
				apiGroup.POST("/blog/series/:id/reorder", api.ReorderSeries)

				apiGroup.POST("/projects/systems/:id/link", api.LinkSystemPost)
				apiGroup.DELETE("/projects/systems/:id/link/:postId", api.UnlinkSystemPost)
				apiGroup.POST("/projects/systems/:id/commits", api.RecordSystemCommits)
				apiGroup.GET("/projects/systems/:id/activity", api.GetSystemActivity)

				apiGroup.POST("/core/skills/:id/technologies", api.LinkSkillTechnology)
				apiGroup.POST("/core/skills/:id/education", api.LinkSkillEducation)
				apiGroup.GET("/core/about", api.GetAboutPage)
				apiGroup.PUT("/core/about", api.UpdateAboutPage)

				apiGroup.POST("/uploads", api.UploadImage)

				apiGroup.GET("/import", api.ListImportModels)
				apiGroup.POST("/import/:model", api.ImportCSV)

				apiGroup.GET("/maintenance", api.GetMaintenance)
				apiGroup.POST("/maintenance", api.EnableMaintenance)
				apiGroup.DELETE("/maintenance", api.DisableMaintenance)
			}
		}
	}

	return r, nil
}
