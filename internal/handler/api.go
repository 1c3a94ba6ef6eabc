package handler

import (
	"log/slog"
	"time"

	"github.com/aurafolio/internal/admin"
	"github.com/aurafolio/internal/cache"
	"github.com/aurafolio/internal/config"
	"github.com/aurafolio/internal/importer"
	"github.com/aurafolio/internal/maintenance"
	"github.com/aurafolio/internal/metrics"
	"github.com/aurafolio/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Options 汇总处理器依赖的外部配置。
type Options struct {
	Site         config.SiteConfig
	UploadDir    string
	UploadURL    string
	ArchiveStart time.Time
	Maintenance  maintenance.Flag
	Cache        cache.Store
	Metrics      *metrics.Collector
	Logger       *slog.Logger
	// Now 用于测试中固定当前时间。
	Now func() time.Time
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	opts      Options
	logger    *slog.Logger
	posts     *service.PostService
	taxonomy  *service.TaxonomyService
	series    *service.SeriesService
	systems   *service.SystemService
	profiles  *service.ProfileService
	pages     *service.PageService
	archive   *service.ArchiveService
	dashboard *service.DashboardService
	analytics analyticsProvider
	importer  *importer.Importer
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ArchiveStart.IsZero() {
		opts.ArchiveStart = config.DefaultArchiveStart
	}
	if opts.Site.Name == "" {
		opts.Site.Name = "AURA"
	}
	if opts.UploadURL == "" {
		opts.UploadURL = "/uploads"
	}

	var recorder importer.RowRecorder
	if opts.Metrics != nil {
		recorder = opts.Metrics
	}

	return &API{
		db:        gdb,
		opts:      opts,
		logger:    opts.Logger,
		posts:     service.NewPostService(gdb),
		taxonomy:  service.NewTaxonomyService(gdb),
		series:    service.NewSeriesService(gdb),
		systems:   service.NewSystemService(gdb),
		profiles:  service.NewProfileService(gdb),
		pages:     service.NewPageService(gdb),
		archive:   service.NewArchiveService(gdb, opts.ArchiveStart),
		dashboard: service.NewDashboardService(gdb, opts.Cache, opts.Logger),
		analytics: service.NewAnalyticsService(gdb),
		importer:  importer.New(gdb, recorder, opts.Logger),
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) now() time.Time {
	return a.opts.Now().UTC()
}

func (a *API) siteView() gin.H {
	site := a.opts.Site
	return gin.H{
		"name":           site.Name,
		"adminHeader":    site.AdminHeader,
		"adminTitle":     site.AdminTitle,
		"adminIndexName": site.AdminIndexName,
		"baseURL":        site.BaseURL,
	}
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = a.siteView()
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = a.now().Year()
	}
	if _, exists := payload["flashes"]; !exists {
		payload["flashes"] = admin.Flashes(c)
	}

	c.HTML(status, template, payload)
}

// RenderHTML 在向模板渲染时自动附加站点信息。
func (a *API) RenderHTML(c *gin.Context, status int, template string, data gin.H) {
	a.renderHTML(c, status, template, data)
}

// invalidateDashboard 在内容变化后清除仪表盘缓存。
func (a *API) invalidateDashboard(c *gin.Context) {
	a.dashboard.Invalidate(c.Request.Context())
}
