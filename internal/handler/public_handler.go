package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/markdown"
	"github.com/aurafolio/internal/service"
	"github.com/aurafolio/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	visitorCookieName   = "aura_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
	datalogsPerPage     = 10
	archivePath         = "/datalogs/archive"
)

// ShowHome 渲染首页：精选文章、最新文章、进行中的项目与核心技能。
func (a *API) ShowHome(c *gin.Context) {
	featured, err := a.posts.Featured(3)
	if err != nil {
		a.renderPublicError(c, "home.html", "首页", "获取文章失败", err)
		return
	}
	latest, err := a.posts.Latest(5)
	if err != nil {
		a.renderPublicError(c, "home.html", "首页", "获取文章失败", err)
		return
	}
	systems, err := a.systems.List(db.SystemStatusInDevelopment)
	if err != nil {
		c.Error(err)
		systems = nil
	}
	skills, err := a.profiles.FeaturedSkills(6)
	if err != nil {
		c.Error(err)
		skills = nil
	}

	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"title":    "首页",
		"featured": featured,
		"latest":   latest,
		"systems":  systems,
		"skills":   skills,
	})
}

// ShowDataLogs 渲染文章列表，支持搜索与分页。
func (a *API) ShowDataLogs(c *gin.Context) {
	a.renderPostList(c, service.PublicFilter{}, gin.H{"title": "DataLogs"})
}

// ShowCategory 渲染某分类下的文章。
func (a *API) ShowCategory(c *gin.Context) {
	category, err := a.taxonomy.CategoryBySlug(c.Param("slug"))
	if err != nil {
		a.respondPublicLookup(c, err, service.ErrCategoryNotFound)
		return
	}
	a.renderPostList(c, service.PublicFilter{CategorySlug: category.Slug}, gin.H{
		"title":    category.Name,
		"category": category,
	})
}

// ShowTag 渲染某标签下的文章。
func (a *API) ShowTag(c *gin.Context) {
	tag, err := a.taxonomy.TagBySlug(c.Param("slug"))
	if err != nil {
		a.respondPublicLookup(c, err, service.ErrTagNotFound)
		return
	}
	a.renderPostList(c, service.PublicFilter{TagSlug: tag.Slug}, gin.H{
		"title": "#" + tag.Name,
		"tag":   tag,
	})
}

func (a *API) renderPostList(c *gin.Context, filter service.PublicFilter, data gin.H) {
	search := strings.TrimSpace(c.Query("search"))
	filter.Search = search
	filter.Page = parsePositiveInt(c.DefaultQuery("page", "1"), 1)
	filter.PerPage = datalogsPerPage

	result, err := a.posts.ListPublished(filter)
	if err != nil {
		a.renderPublicError(c, "datalogs.html", "DataLogs", "获取文章失败", err)
		return
	}
	categories, err := a.taxonomy.Categories()
	if err != nil {
		c.Error(err)
	}
	tags, err := a.taxonomy.Tags()
	if err != nil {
		c.Error(err)
	}

	data["posts"] = result.Posts
	data["total"] = result.Total
	data["search"] = search
	data["queryParams"] = buildQueryParams(search)
	data["pagination"] = view.NewPagination(result.Page, result.TotalPages)
	data["categories"] = categories
	data["tags"] = tags
	a.renderHTML(c, http.StatusOK, "datalogs.html", data)
}

// ShowArchive 渲染归档页；超出 [起始月份, 当前月份] 或格式错误时重定向到归档首页。
func (a *API) ShowArchive(c *gin.Context) {
	now := a.now()
	year, month, ok := parseArchivePeriod(c.Param("year"), c.Param("month"))
	if !ok {
		c.Redirect(http.StatusFound, archivePath)
		return
	}

	if year == 0 {
		years, err := a.archive.Years(now)
		if err != nil {
			a.renderPublicError(c, "archive.html", "归档", "获取归档失败", err)
			return
		}
		a.renderHTML(c, http.StatusOK, "archive.html", gin.H{
			"title": "归档",
			"years": years,
		})
		return
	}

	if err := a.archive.Validate(year, month, now); err != nil {
		if errors.Is(err, service.ErrArchiveOutOfRange) {
			c.Redirect(http.StatusFound, archivePath)
			return
		}
		a.renderPublicError(c, "archive.html", "归档", "获取归档失败", err)
		return
	}

	months, err := a.archive.Months(year, now)
	if err != nil {
		a.renderPublicError(c, "archive.html", "归档", "获取归档失败", err)
		return
	}
	result, err := a.posts.ListPublished(service.PublicFilter{
		Year:    year,
		Month:   month,
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: 50,
	})
	if err != nil {
		a.renderPublicError(c, "archive.html", "归档", "获取归档失败", err)
		return
	}

	title := fmt.Sprintf("%d 年归档", year)
	if month > 0 {
		title = fmt.Sprintf("%d 年 %d 月归档", year, month)
	}
	a.renderHTML(c, http.StatusOK, "archive.html", gin.H{
		"title":        title,
		"archiveYear":  year,
		"archiveMonth": month,
		"months":       months,
		"posts":        result.Posts,
		"pagination":   view.NewPagination(result.Page, result.TotalPages),
	})
}

// parseArchivePeriod 解析 URL 中的年月，未提供时为 0。
func parseArchivePeriod(rawYear, rawMonth string) (int, int, bool) {
	if rawYear == "" {
		return 0, 0, true
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil || year <= 0 {
		return 0, 0, false
	}
	if rawMonth == "" {
		return year, 0, true
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// ShowPostDetail 渲染文章详情，记录浏览并附带目录、相关文章与系列导航。
func (a *API) ShowPostDetail(c *gin.Context) {
	post, err := a.posts.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		a.respondPublicLookup(c, err, service.ErrPostNotFound)
		return
	}

	doc, err := markdown.Render(post.Content)
	if err != nil {
		a.renderPublicError(c, "post_detail.html", post.Title, "渲染内容失败", err)
		return
	}

	visitorID := a.ensureVisitorID(c)
	var pageViews, uniqueVisitors uint64
	if stats, recordErr := a.analytics.RecordPostView(post.ID, visitorID, c.Request.Referer(), a.now()); recordErr == nil {
		pageViews = stats.PageViews
		uniqueVisitors = stats.UniqueVisitors
		if a.opts.Metrics != nil {
			a.opts.Metrics.PostViewed()
		}
	} else {
		c.Error(recordErr) // 不中断渲染
	}

	related, err := a.posts.Related(post, 3)
	if err != nil {
		c.Error(err)
	}
	navigation, err := a.series.Navigation(post.ID)
	if err != nil {
		c.Error(err)
	}

	a.renderHTML(c, http.StatusOK, "post_detail.html", gin.H{
		"title":          post.Title,
		"post":           post,
		"content":        doc.HTML,
		"toc":            doc.TOC,
		"related":        related,
		"series":         navigation,
		"pageViews":      pageViews,
		"uniqueVisitors": uniqueVisitors,
	})
}

// ShowSystems 渲染项目列表，可按 status 过滤。
func (a *API) ShowSystems(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	systems, err := a.systems.List(status)
	if err != nil {
		a.renderPublicError(c, "systems.html", "Systems", "获取项目失败", err)
		return
	}
	a.renderHTML(c, http.StatusOK, "systems.html", gin.H{
		"title":   "Systems",
		"systems": systems,
		"status":  status,
	})
}

// ShowSystemDetail 渲染项目详情与最近 30 天的提交活动。
func (a *API) ShowSystemDetail(c *gin.Context) {
	module, err := a.systems.GetBySlug(c.Param("slug"))
	if err != nil {
		a.respondPublicLookup(c, err, service.ErrSystemNotFound)
		return
	}

	activity, err := a.systems.CommitActivity(module.ID, 30, a.now())
	if err != nil {
		c.Error(err)
	}
	total := 0
	for _, day := range activity {
		total += day.Commits
	}

	var content any
	if module.Description != "" {
		if doc, renderErr := markdown.Render(module.Description); renderErr == nil {
			content = doc.HTML
		} else {
			c.Error(renderErr)
		}
	}

	a.renderHTML(c, http.StatusOK, "system_detail.html", gin.H{
		"title":        module.Title,
		"system":       module,
		"content":      content,
		"activity":     activity,
		"totalCommits": total,
	})
}

// ShowAbout 渲染关于页。
func (a *API) ShowAbout(c *gin.Context) {
	about, err := a.profiles.About()
	if err != nil {
		a.renderPublicError(c, "about.html", "About", "获取关于页面失败", err)
		return
	}

	data := gin.H{
		"title":        "About",
		"skillGroups":  about.SkillGroups,
		"technologies": about.Technologies,
		"education":    about.Education,
		"experience":   about.Experience,
		"contacts":     about.Contacts,
	}
	if about.Page != nil {
		data["title"] = about.Page.Title
		doc, err := markdown.Render(about.Page.Content)
		if err != nil {
			a.renderPublicError(c, "about.html", "About", "渲染内容失败", err)
			return
		}
		data["content"] = doc.HTML
		data["updatedAt"] = about.Page.UpdatedAt.In(time.Local).Format("2006-01-02 15:04")
	}

	a.renderHTML(c, http.StatusOK, "about.html", data)
}

func (a *API) respondPublicLookup(c *gin.Context, err error, notFound error) {
	if errors.Is(err, notFound) {
		a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{"title": "页面不存在"})
		return
	}
	a.renderPublicError(c, "not_found.html", "出错了", "加载失败，请稍后再试", err)
}

func (a *API) renderPublicError(c *gin.Context, template, title, message string, err error) {
	c.Error(err)
	a.renderHTML(c, http.StatusInternalServerError, template, gin.H{
		"title": title,
		"error": message,
	})
}

func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	secure := c.Request.TLS != nil

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   visitorCookieMaxAge,
		Expires:  a.now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})

	return visitorID
}
