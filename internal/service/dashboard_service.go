package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aurafolio/internal/cache"
	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/view"
	"gorm.io/gorm"
)

// ErrUnknownDashboard 表示请求了不存在的仪表盘。
var ErrUnknownDashboard = errors.New("unknown dashboard")

// 仪表盘分组
const (
	DashboardOverview = "overview"
	DashboardBlog     = "blog"
	DashboardProjects = "projects"
	DashboardCore     = "core"
)

// DashboardApps 列出可访问的分组仪表盘。
var DashboardApps = []string{DashboardBlog, DashboardProjects, DashboardCore}

var dashboardTitles = map[string]string{
	DashboardOverview: "控制台",
	DashboardBlog:     "博客",
	DashboardProjects: "项目",
	DashboardCore:     "个人资料",
}

const dashboardCachePrefix = "dashboard:"

// Dashboard 是一组统计卡片。
type Dashboard struct {
	App         string
	Title       string
	Cards       []view.StatCard
	GeneratedAt time.Time
}

// DashboardService 通过 COUNT/AVG/SUM 汇总后台统计，结果可选缓存。
type DashboardService struct {
	db     *gorm.DB
	cache  cache.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewDashboardService 创建 DashboardService，store 为 nil 时不缓存。
func NewDashboardService(gdb *gorm.DB, store cache.Store, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{db: gdb, cache: store, logger: logger, now: time.Now}
}

// Dashboard 返回指定分组的统计，app 为空时返回总览。
func (s *DashboardService) Dashboard(ctx context.Context, app string) (*Dashboard, error) {
	if app == "" {
		app = DashboardOverview
	}
	title, ok := dashboardTitles[app]
	if !ok {
		return nil, ErrUnknownDashboard
	}

	key := dashboardCachePrefix + app
	if s.cache != nil {
		var cached Dashboard
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", "key", key, "error", err)
		} else if found {
			return &cached, nil
		}
	}

	cards, err := s.cards(app)
	if err != nil {
		return nil, err
	}
	dashboard := &Dashboard{App: app, Title: title, Cards: cards, GeneratedAt: s.now()}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, dashboard); err != nil {
			s.logger.Warn("dashboard cache write failed", "key", key, "error", err)
		}
	}
	return dashboard, nil
}

// Invalidate 清除全部仪表盘缓存。
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{dashboardCachePrefix + DashboardOverview}
	for _, app := range DashboardApps {
		keys = append(keys, dashboardCachePrefix+app)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", "error", err)
	}
}

func (s *DashboardService) cards(app string) ([]view.StatCard, error) {
	switch app {
	case DashboardBlog:
		return s.blogCards()
	case DashboardProjects:
		return s.projectCards()
	case DashboardCore:
		return s.coreCards()
	}

	var all []view.StatCard
	for _, build := range []func() ([]view.StatCard, error){s.blogCards, s.projectCards, s.coreCards} {
		cards, err := build()
		if err != nil {
			return nil, err
		}
		all = append(all, cards...)
	}
	return all, nil
}

func (s *DashboardService) blogCards() ([]view.StatCard, error) {
	var posts, published, drafts, categories, tags, series int64
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&posts, s.db.Model(&db.Post{})},
		{&published, s.db.Model(&db.Post{}).Where("status = ?", db.PostStatusPublished)},
		{&drafts, s.db.Model(&db.Post{}).Where("status = ?", db.PostStatusDraft)},
		{&categories, s.db.Model(&db.Category{})},
		{&tags, s.db.Model(&db.Tag{})},
		{&series, s.db.Model(&db.Series{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var views uint64
	if err := s.db.Model(&db.PostStatistic{}).Select("COALESCE(SUM(page_views), 0)").Scan(&views).Error; err != nil {
		return nil, err
	}
	var avgReading float64
	if err := s.db.Model(&db.Post{}).Select("COALESCE(AVG(reading_time), 0)").Scan(&avgReading).Error; err != nil {
		return nil, err
	}

	return []view.StatCard{
		{Key: "posts", Label: "文章", Value: formatCount(posts), Icon: "terminal", Hint: fmt.Sprintf("已发布 %d / 草稿 %d", published, drafts)},
		{Key: "categories", Label: "分类", Value: formatCount(categories), Icon: "database"},
		{Key: "tags", Label: "标签", Value: formatCount(tags), Icon: "code"},
		{Key: "series", Label: "系列", Value: formatCount(series), Icon: "website"},
		{Key: "page_views", Label: "浏览量", Value: strconv.FormatUint(views, 10), Icon: "cloud"},
		{Key: "reading_time", Label: "平均阅读时长", Value: fmt.Sprintf("%.1f 分钟", avgReading)},
	}, nil
}

func (s *DashboardService) projectCards() ([]view.StatCard, error) {
	var modules, deployed, features int64
	if err := s.db.Model(&db.SystemModule{}).Count(&modules).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.SystemModule{}).Where("status = ?", db.SystemStatusDeployed).Count(&deployed).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.SystemFeature{}).Count(&features).Error; err != nil {
		return nil, err
	}

	var avgCompletion float64
	if err := s.db.Model(&db.SystemModule{}).Select("COALESCE(AVG(completion_percent), 0)").Scan(&avgCompletion).Error; err != nil {
		return nil, err
	}
	var commits int64
	if err := s.db.Model(&db.CommitSnapshot{}).Select("COALESCE(SUM(commits), 0)").Scan(&commits).Error; err != nil {
		return nil, err
	}

	return []view.StatCard{
		{Key: "systems", Label: "系统模块", Value: formatCount(modules), Icon: "database", Hint: fmt.Sprintf("已部署 %d", deployed)},
		{Key: "completion", Label: "平均完成度", Value: fmt.Sprintf("%.0f%%", avgCompletion)},
		{Key: "features", Label: "功能点", Value: formatCount(features)},
		{Key: "commits", Label: "提交数", Value: formatCount(commits), Icon: "github"},
	}, nil
}

func (s *DashboardService) coreCards() ([]view.StatCard, error) {
	var skills, technologies, education, experience int64
	for dest, model := range map[*int64]any{
		&skills:       &db.Skill{},
		&technologies: &db.Technology{},
		&education:    &db.Education{},
		&experience:   &db.Experience{},
	} {
		if err := s.db.Model(model).Count(dest).Error; err != nil {
			return nil, err
		}
	}

	var avgProficiency float64
	if err := s.db.Model(&db.Skill{}).Select("COALESCE(AVG(proficiency), 0)").Scan(&avgProficiency).Error; err != nil {
		return nil, err
	}

	return []view.StatCard{
		{Key: "skills", Label: "技能", Value: formatCount(skills), Icon: "code", Hint: fmt.Sprintf("平均熟练度 %.1f", avgProficiency)},
		{Key: "technologies", Label: "技术", Value: formatCount(technologies), Icon: "terminal"},
		{Key: "education", Label: "教育经历", Value: formatCount(education)},
		{Key: "experience", Label: "工作经历", Value: formatCount(experience)},
	}, nil
}

func formatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}
