package handler

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/aurafolio/internal/admin"
	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 后台分组
const (
	sectionBlog     = "blog"
	sectionProjects = "projects"
	sectionCore     = "core"
)

const dateLayout = "2006-01-02"

// RegisterResources 在 group 下挂载所有模型的通用 CRUD 接口。
func (a *API) RegisterResources(group *gin.RouterGroup) {
	onChange := func(ctx context.Context) { a.dashboard.Invalidate(ctx) }

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Category]{
		Name: "分类", Plural: "分类", Section: sectionBlog, SectionLabel: "博客", Path: "categories",
		SearchColumns: []string{"name", "description"},
		Order:         "name asc",
		BeforeDelete: func(tx *gorm.DB, item *db.Category) error {
			return tx.Table("posts").Where("category_id = ?", item.ID).Update("category_id", nil).Error
		},
		OnChange: onChange,
	}), admin.BindJSON(bindCategory)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Tag]{
		Name: "标签", Plural: "标签", Section: sectionBlog, SectionLabel: "博客", Path: "tags",
		SearchColumns: []string{"name"},
		Order:         "name asc",
		OnChange:      onChange,
	}), admin.BindJSON(bindTag)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Post]{
		Name: "文章", Plural: "文章", Section: sectionBlog, SectionLabel: "博客", Path: "posts",
		SearchColumns: []string{"title", "content", "excerpt"},
		StatusColumn:  "status",
		Order:         "created_at desc",
		Preloads:      []string{"Category", "Tags"},
		AfterSave: func(tx *gorm.DB, item *db.Post) error {
			if item.TagIDs == nil {
				return nil
			}
			if err := service.ReplacePostTags(tx, item, item.TagIDs); err != nil {
				if errors.Is(err, service.ErrTagNotFound) {
					return admin.Invalid("标签不存在")
				}
				return err
			}
			return nil
		},
		OnChange: onChange,
	}), admin.BindJSON(bindPost)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Series]{
		Name: "系列", Plural: "系列", Section: sectionBlog, SectionLabel: "博客", Path: "series",
		SearchColumns: []string{"title", "description"},
		StatusColumn:  "status",
		Order:         "title asc",
		OnChange:      onChange,
	}), admin.BindJSON(bindSeries)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.SystemModule]{
		Name: "项目", Plural: "项目", Section: sectionProjects, SectionLabel: "项目", Path: "systems",
		SearchColumns: []string{"title", "summary", "description"},
		StatusColumn:  "status",
		Order:         "featured desc, priority asc, title asc",
		Preloads:      []string{"Features", "Metrics"},
		OnChange:      onChange,
	}), admin.BindJSON(bindSystem)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.SystemFeature]{
		Name: "功能点", Plural: "功能点", Section: sectionProjects, SectionLabel: "项目", Path: "features",
		SearchColumns: []string{"title", "description"},
		StatusColumn:  "status",
		FilterColumns: []string{"system_module_id"},
		Order:         "system_module_id asc, position asc, id asc",
		AfterSave: func(tx *gorm.DB, item *db.SystemFeature) error {
			return requireSystemModule(tx, item.SystemModuleID)
		},
	}), admin.BindJSON(bindFeature)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.SystemImage]{
		Name: "项目截图", Plural: "项目截图", Section: sectionProjects, SectionLabel: "项目", Path: "images",
		SearchColumns: []string{"caption", "url"},
		FilterColumns: []string{"system_module_id"},
		Order:         "system_module_id asc, position asc, id asc",
		AfterSave: func(tx *gorm.DB, item *db.SystemImage) error {
			return requireSystemModule(tx, item.SystemModuleID)
		},
	}), admin.BindJSON(bindImage)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.SystemMetric]{
		Name: "项目指标", Plural: "项目指标", Section: sectionProjects, SectionLabel: "项目", Path: "metrics",
		SearchColumns: []string{"name"},
		FilterColumns: []string{"system_module_id"},
		Order:         "system_module_id asc, recorded_at desc",
		AfterSave: func(tx *gorm.DB, item *db.SystemMetric) error {
			return requireSystemModule(tx, item.SystemModuleID)
		},
	}), admin.BindJSON(a.bindMetric)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Skill]{
		Name: "技能", Plural: "技能", Section: sectionCore, SectionLabel: "个人资料", Path: "skills",
		SearchColumns: []string{"name", "category", "description"},
		Order:         "category asc, proficiency desc, name asc",
		AfterSave: func(tx *gorm.DB, item *db.Skill) error {
			_, err := service.EnsureTagTx(tx, item.Name)
			return err
		},
		OnChange: onChange,
	}), admin.BindJSON(bindSkill)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Technology]{
		Name: "技术", Plural: "技术", Section: sectionCore, SectionLabel: "个人资料", Path: "technologies",
		SearchColumns: []string{"name", "category", "description"},
		Order:         "category asc, name asc",
		AfterSave: func(tx *gorm.DB, item *db.Technology) error {
			_, err := service.EnsureTagTx(tx, item.Name)
			return err
		},
		OnChange: onChange,
	}), admin.BindJSON(bindTechnology)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Education]{
		Name: "教育经历", Plural: "教育经历", Section: sectionCore, SectionLabel: "个人资料", Path: "education",
		SearchColumns: []string{"institution", "degree", "field_of_study"},
		Order:         "is_current desc, start_date desc",
		OnChange:      onChange,
	}), admin.BindJSON(bindEducation)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.Experience]{
		Name: "工作经历", Plural: "工作经历", Section: sectionCore, SectionLabel: "个人资料", Path: "experience",
		SearchColumns: []string{"company", "title", "location"},
		Order:         "is_current desc, start_date desc",
		OnChange:      onChange,
	}), admin.BindJSON(bindExperience)))

	admin.Register(group, admin.NewHandlers(admin.NewResource(a.db, admin.Config[db.ContactLink]{
		Name: "联系方式", Plural: "联系方式", Section: sectionCore, SectionLabel: "个人资料", Path: "contacts",
		SearchColumns: []string{"platform", "label"},
		Order:         "sort asc, id asc",
	}), admin.BindJSON(bindContact)))
}

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

func bindCategory(req *categoryRequest, item *db.Category) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return admin.Invalid("分类名称不能为空")
	}
	item.Name = name
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		item.Slug = slug
	}
	item.Description = strings.TrimSpace(req.Description)
	if color := strings.TrimSpace(req.Color); color != "" {
		item.Color = color
	}
	item.Icon = strings.TrimSpace(req.Icon)
	return nil
}

type tagRequest struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func bindTag(req *tagRequest, item *db.Tag) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return admin.Invalid("标签名称不能为空")
	}
	item.Name = name
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		item.Slug = slug
	}
	if color := strings.TrimSpace(req.Color); color != "" {
		item.Color = color
	}
	item.Icon = strings.TrimSpace(req.Icon)
	return nil
}

type postRequest struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	Status     string `json:"status"`
	Featured   bool   `json:"featured"`
	CategoryID *uint  `json:"categoryId"`
	TagIDs     []uint `json:"tagIds"`
}

func bindPost(req *postRequest, item *db.Post) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return admin.Invalid("文章标题不能为空")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = db.PostStatusDraft
	}
	if status != db.PostStatusDraft && status != db.PostStatusPublished {
		return admin.Invalid("文章状态不合法")
	}

	item.Title = title
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		item.Slug = slug
	}
	item.Content = req.Content
	item.Excerpt = strings.TrimSpace(req.Excerpt)
	item.Status = status
	item.Featured = req.Featured
	item.CategoryID = req.CategoryID
	if item.CategoryID != nil && *item.CategoryID == 0 {
		item.CategoryID = nil
	}
	// tagIds 缺省时保留原有标签，传空数组时清空。
	item.TagIDs = req.TagIDs
	return nil
}

type seriesRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func bindSeries(req *seriesRequest, item *db.Series) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return admin.Invalid("系列标题不能为空")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = db.PostStatusDraft
	}
	if status != db.PostStatusDraft && status != db.PostStatusPublished {
		return admin.Invalid("系列状态不合法")
	}
	item.Title = title
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		item.Slug = slug
	}
	item.Description = req.Description
	item.Status = status
	return nil
}

type systemRequest struct {
	Title             string   `json:"title"`
	Slug              string   `json:"slug"`
	Summary           string   `json:"summary"`
	Description       string   `json:"description"`
	Status            string   `json:"status"`
	CompletionPercent int      `json:"completionPercent"`
	Priority          int      `json:"priority"`
	Featured          bool     `json:"featured"`
	RepositoryURL     string   `json:"repositoryUrl"`
	DemoURL           string   `json:"demoUrl"`
	TechStack         []string `json:"techStack"`
	StartedAt         string   `json:"startedAt"`
}

func bindSystem(req *systemRequest, item *db.SystemModule) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return admin.Invalid("项目名称不能为空")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = db.SystemStatusPlanning
	}
	if !slices.Contains(db.SystemStatuses, status) {
		return admin.Invalid("项目状态不合法")
	}
	if req.CompletionPercent < 0 || req.CompletionPercent > 100 {
		return admin.Invalid("完成度需在 0 到 100 之间")
	}
	started, err := parseOptionalDate(req.StartedAt)
	if err != nil {
		return admin.Invalid("开始日期格式应为 YYYY-MM-DD")
	}

	stack := make(datatypes.JSONSlice[string], 0, len(req.TechStack))
	for _, name := range req.TechStack {
		if trimmed := strings.TrimSpace(name); trimmed != "" && !slices.Contains(stack, trimmed) {
			stack = append(stack, trimmed)
		}
	}

	item.Title = title
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		item.Slug = slug
	}
	item.Summary = strings.TrimSpace(req.Summary)
	item.Description = req.Description
	item.Status = status
	item.CompletionPercent = req.CompletionPercent
	item.Priority = req.Priority
	if item.Priority <= 0 {
		item.Priority = 2
	}
	item.Featured = req.Featured
	item.RepositoryURL = strings.TrimSpace(req.RepositoryURL)
	item.DemoURL = strings.TrimSpace(req.DemoURL)
	item.TechStack = stack
	item.StartedAt = started
	return nil
}

// requireSystemModule 确认子记录指向的项目存在，否则回滚本次保存。
func requireSystemModule(tx *gorm.DB, moduleID uint) error {
	var count int64
	if err := tx.Model(&db.SystemModule{}).Where("id = ?", moduleID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return admin.Invalid("项目不存在")
	}
	return nil
}

type featureRequest struct {
	SystemModuleID uint   `json:"systemModuleId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	Position       int    `json:"position"`
}

func bindFeature(req *featureRequest, item *db.SystemFeature) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return admin.Invalid("功能点名称不能为空")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = db.FeatureStatuses[0]
	}
	if !slices.Contains(db.FeatureStatuses, status) {
		return admin.Invalid("功能点状态不合法")
	}
	if req.SystemModuleID != 0 {
		item.SystemModuleID = req.SystemModuleID
	}
	item.Title = title
	item.Description = req.Description
	item.Status = status
	item.Position = req.Position
	return nil
}

type imageRequest struct {
	SystemModuleID uint   `json:"systemModuleId"`
	URL            string `json:"url"`
	Caption        string `json:"caption"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Position       int    `json:"position"`
}

func bindImage(req *imageRequest, item *db.SystemImage) error {
	src := strings.TrimSpace(req.URL)
	if src == "" {
		return admin.Invalid("图片地址不能为空")
	}
	if req.Width < 0 || req.Height < 0 {
		return admin.Invalid("图片尺寸不能为负数")
	}
	if req.SystemModuleID != 0 {
		item.SystemModuleID = req.SystemModuleID
	}
	item.URL = src
	item.Caption = strings.TrimSpace(req.Caption)
	item.Width = req.Width
	item.Height = req.Height
	item.Position = req.Position
	return nil
}

type metricRequest struct {
	SystemModuleID uint    `json:"systemModuleId"`
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	RecordedAt     string  `json:"recordedAt"`
}

// bindMetric 未填写记录日期时取当前时间。
func (a *API) bindMetric(req *metricRequest, item *db.SystemMetric) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return admin.Invalid("指标名称不能为空")
	}
	recorded, err := parseOptionalDate(req.RecordedAt)
	if err != nil {
		return admin.Invalid("记录日期格式应为 YYYY-MM-DD")
	}
	if req.SystemModuleID != 0 {
		item.SystemModuleID = req.SystemModuleID
	}
	item.Name = name
	item.Value = req.Value
	item.Unit = strings.TrimSpace(req.Unit)
	switch {
	case recorded != nil:
		item.RecordedAt = *recorded
	case item.RecordedAt.IsZero():
		item.RecordedAt = a.now().UTC()
	}
	return nil
}

type skillRequest struct {
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	Category        string  `json:"category"`
	Proficiency     int     `json:"proficiency"`
	YearsExperience float64 `json:"yearsExperience"`
	Featured        bool    `json:"featured"`
	Description     string  `json:"description"`
	Icon            string  `json:"icon"`
	Color           string  `json:"color"`
}

func bindSkill(req *skillRequest, item *db.Skill) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return admin.Invalid("技能名称不能为空")
	}
	if req.Proficiency != 0 && (req.Proficiency < db.MinProficiency || req.Proficiency > db.MaxProficiency) {
		return admin.Invalid("熟练度需在 1 到 5 之间")
	}
	if req.YearsExperience < 0 {
		return admin.Invalid("经验年限不能为负数")
	}
	item.Name = name
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		item.Slug = slug
	}
	item.Category = strings.TrimSpace(req.Category)
	item.Proficiency = req.Proficiency
	if item.Proficiency == 0 {
		item.Proficiency = 3
	}
	item.YearsExperience = req.YearsExperience
	item.Featured = req.Featured
	item.Description = req.Description
	item.Icon = strings.TrimSpace(req.Icon)
	item.Color = strings.TrimSpace(req.Color)
	return nil
}

type technologyRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Category    string `json:"category"`
	Proficiency int    `json:"proficiency"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

func bindTechnology(req *technologyRequest, item *db.Technology) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return admin.Invalid("技术名称不能为空")
	}
	if req.Proficiency != 0 && (req.Proficiency < db.MinProficiency || req.Proficiency > db.MaxProficiency) {
		return admin.Invalid("熟练度需在 1 到 5 之间")
	}
	item.Name = name
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		item.Slug = slug
	}
	item.Category = strings.TrimSpace(req.Category)
	item.Proficiency = req.Proficiency
	if item.Proficiency == 0 {
		item.Proficiency = 3
	}
	item.Description = req.Description
	item.Icon = strings.TrimSpace(req.Icon)
	item.Color = strings.TrimSpace(req.Color)
	return nil
}

type educationRequest struct {
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy string  `json:"fieldOfStudy"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	Current      bool    `json:"current"`
	GPA          float64 `json:"gpa"`
	Description  string  `json:"description"`
}

func bindEducation(req *educationRequest, item *db.Education) error {
	institution := strings.TrimSpace(req.Institution)
	if institution == "" {
		return admin.Invalid("学校名称不能为空")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate, req.Current)
	if err != nil {
		return err
	}
	item.Institution = institution
	item.Degree = strings.TrimSpace(req.Degree)
	item.FieldOfStudy = strings.TrimSpace(req.FieldOfStudy)
	item.StartDate = start
	item.EndDate = end
	item.Current = req.Current
	item.GPA = req.GPA
	item.Description = req.Description
	return nil
}

type experienceRequest struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

func bindExperience(req *experienceRequest, item *db.Experience) error {
	company := strings.TrimSpace(req.Company)
	title := strings.TrimSpace(req.Title)
	if company == "" || title == "" {
		return admin.Invalid("公司与职位不能为空")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate, req.Current)
	if err != nil {
		return err
	}
	item.Company = company
	item.Title = title
	item.Location = strings.TrimSpace(req.Location)
	item.StartDate = start
	item.EndDate = end
	item.Current = req.Current
	item.Description = req.Description
	item.Position = req.Position
	return nil
}

type contactRequest struct {
	Platform string `json:"platform"`
	Label    string `json:"label"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
	Sort     int    `json:"sort"`
	Visible  *bool  `json:"visible"`
}

func bindContact(req *contactRequest, item *db.ContactLink) error {
	platform := strings.TrimSpace(req.Platform)
	label := strings.TrimSpace(req.Label)
	if platform == "" || label == "" {
		return admin.Invalid("平台与名称不能为空")
	}
	item.Platform = platform
	item.Label = label
	item.URL = strings.TrimSpace(req.URL)
	item.Icon = strings.TrimSpace(req.Icon)
	item.Sort = req.Sort
	if req.Visible != nil {
		item.Visible = *req.Visible
	} else if item.ID == 0 {
		item.Visible = true
	}
	return nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseDateRange 校验起止日期，在读/在职时忽略结束日期。
func parseDateRange(startRaw, endRaw string, current bool) (time.Time, *time.Time, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(startRaw))
	if err != nil {
		return time.Time{}, nil, admin.Invalid("开始日期格式应为 YYYY-MM-DD")
	}
	if current {
		return start, nil, nil
	}
	end, err := parseOptionalDate(endRaw)
	if err != nil {
		return time.Time{}, nil, admin.Invalid("结束日期格式应为 YYYY-MM-DD")
	}
	if end != nil && end.Before(start) {
		return time.Time{}, nil, admin.Invalid("结束日期不能早于开始日期")
	}
	return start, end, nil
}
