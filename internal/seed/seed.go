// Package seed 生成开发与演示用的示例数据。
// 所有实体按名称去重，重复运行只补齐缺失的数据。
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/service"
	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yaml
var catalogYAML []byte

// SeedUsername 是示例文章与项目的作者。
const SeedUsername = "aura-seed"

// Catalog 是生成数据时使用的固定词表。
type Catalog struct {
	Categories    []CatalogCategory  `yaml:"categories"`
	Skills        []CatalogItem      `yaml:"skills"`
	Technologies  []CatalogItem      `yaml:"technologies"`
	Education     []CatalogEducation `yaml:"education"`
	Relationships []string           `yaml:"relationships"`
	Topics        []string           `yaml:"topics"`
}

type CatalogCategory struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

type CatalogItem struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Icon     string `yaml:"icon"`
}

type CatalogEducation struct {
	Institution string `yaml:"institution"`
	Degree      string `yaml:"degree"`
	Field       string `yaml:"field"`
	StartYear   int    `yaml:"start_year"`
	EndYear     int    `yaml:"end_year"`
}

// LoadCatalog 解析内置的 catalog.yaml。
func LoadCatalog() (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	if len(catalog.Topics) == 0 || len(catalog.Relationships) == 0 {
		return nil, errors.New("seed catalog is missing topics or relationships")
	}
	return &catalog, nil
}

// Options 控制生成的数据量。
type Options struct {
	Posts   int
	Systems int
	Days    int
	// Seed 固定随机种子，相同种子生成相同的标题，从而可重复运行。
	Seed uint64
	Now  time.Time
}

// Report 统计本次新建的记录数。
type Report struct {
	Categories   int
	Posts        int
	Series       int
	Systems      int
	Skills       int
	Technologies int
	Education    int
	Experience   int
	Links        int
	AnalyticDays int
}

// Generator 把 Catalog 与 gofakeit 生成的内容写入数据库。
type Generator struct {
	db       *gorm.DB
	seed     uint64
	faker    *gofakeit.Faker
	catalog  *Catalog
	logger   *slog.Logger
	profiles *service.ProfileService
	series   *service.SeriesService
	systems  *service.SystemService
}

// New 创建 Generator。
func New(gdb *gorm.DB, catalog *Catalog, seed uint64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		db:       gdb,
		seed:     seed,
		faker:    gofakeit.New(seed),
		catalog:  catalog,
		logger:   logger,
		profiles: service.NewProfileService(gdb),
		series:   service.NewSeriesService(gdb),
		systems:  service.NewSystemService(gdb),
	}
}

// Run 生成示例数据。
func Run(ctx context.Context, gdb *gorm.DB, opts Options, logger *slog.Logger) (*Report, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}
	return New(gdb, catalog, opts.Seed, logger).Run(ctx, opts)
}

// Run 依次生成分类、技能、文章、系列、项目、履历与流量数据。
func (g *Generator) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if opts.Days <= 0 {
		opts.Days = 30
	}
	report := &Report{}

	author, err := g.ensureAuthor()
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"categories", func() error { return g.seedCategories(report) }},
		{"skills", func() error { return g.seedSkills(report) }},
		{"technologies", func() error { return g.seedTechnologies(report) }},
		{"posts", func() error { return g.seedPosts(author, opts, report) }},
		{"series", func() error { return g.seedSeries(report) }},
		{"systems", func() error { return g.seedSystems(author, opts, report) }},
		{"education", func() error { return g.seedEducation(report) }},
		{"experience", func() error { return g.seedExperience(opts, report) }},
		{"relationships", func() error { return g.seedRelationships(report) }},
		{"analytics", func() error { return g.seedAnalytics(opts, report) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := step.run(); err != nil {
			return report, fmt.Errorf("seed %s: %w", step.name, err)
		}
	}

	g.logger.Info("sample data generated",
		"posts", report.Posts,
		"systems", report.Systems,
		"skills", report.Skills,
		"analytic_days", report.AnalyticDays,
	)
	return report, nil
}

func (g *Generator) ensureAuthor() (*db.User, error) {
	password := g.faker.Password(true, true, true, false, false, 16)
	if err := db.EnsureUser(g.db, SeedUsername, password); err != nil {
		return nil, err
	}
	var user db.User
	if err := g.db.Where("username = ?", SeedUsername).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// reseed 为第 i 个实体派生独立的随机序列，使已存在的实体被跳过时不影响后续实体的取值。
// seed 为 0 时保持随机。
func (g *Generator) reseed(kind string, i int) {
	if g.seed == 0 {
		return
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d:%d", kind, g.seed, i)
	g.faker = gofakeit.New(h.Sum64() | 1)
}

// firstOrCreate 按 where 条件查找，不存在时创建 item，返回是否新建。
func firstOrCreate[T any](gdb *gorm.DB, item *T, query string, args ...any) (bool, error) {
	err := gdb.Where(query, args...).First(item).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := gdb.Omit(clause.Associations).Create(item).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (g *Generator) seedCategories(report *Report) error {
	for _, item := range g.catalog.Categories {
		category := db.Category{Name: item.Name, Color: item.Color, Icon: item.Icon, Description: g.faker.HackerPhrase()}
		created, err := firstOrCreate(g.db, &category, "name = ?", item.Name)
		if err != nil {
			return err
		}
		if created {
			report.Categories++
		}
	}
	return nil
}

func (g *Generator) seedSkills(report *Report) error {
	for _, item := range g.catalog.Skills {
		var existing int64
		if err := g.db.Model(&db.Skill{}).Where("name = ?", item.Name).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			continue
		}
		skill := db.Skill{
			Name:            item.Name,
			Category:        item.Category,
			Icon:            item.Icon,
			Proficiency:     g.faker.IntRange(db.MinProficiency, db.MaxProficiency),
			YearsExperience: float64(g.faker.IntRange(1, 20)) / 2,
			Featured:        g.faker.Bool(),
			Description:     g.faker.HackerPhrase(),
		}
		if err := g.profiles.SaveSkill(&skill); err != nil {
			return err
		}
		report.Skills++
	}
	return nil
}

func (g *Generator) seedTechnologies(report *Report) error {
	for _, item := range g.catalog.Technologies {
		var existing int64
		if err := g.db.Model(&db.Technology{}).Where("name = ?", item.Name).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			continue
		}
		technology := db.Technology{
			Name:        item.Name,
			Category:    item.Category,
			Icon:        item.Icon,
			Proficiency: g.faker.IntRange(db.MinProficiency, db.MaxProficiency),
			Description: g.faker.HackerPhrase(),
		}
		if err := g.profiles.SaveTechnology(&technology); err != nil {
			return err
		}
		report.Technologies++
	}
	return nil
}

func (g *Generator) seedPosts(author *db.User, opts Options, report *Report) error {
	var categories []db.Category
	if err := g.db.Find(&categories).Error; err != nil {
		return err
	}
	var tags []db.Tag
	if err := g.db.Find(&tags).Error; err != nil {
		return err
	}

	for i := 0; i < opts.Posts; i++ {
		g.reseed("post", i)
		title := g.postTitle()
		// 发布时间分散在过去一年内，便于归档页展示。
		published := opts.Now.AddDate(0, 0, -g.faker.IntRange(0, 364))
		status := db.PostStatusPublished
		if g.faker.IntRange(1, 5) == 1 {
			status = db.PostStatusDraft
		}

		post := db.Post{
			Title:    title,
			Content:  g.postContent(),
			Status:   status,
			Featured: g.faker.IntRange(1, 6) == 1,
			AuthorID: author.ID,
		}
		if status == db.PostStatusPublished {
			post.PublishedAt = &published
		}
		if len(categories) > 0 {
			categoryID := categories[g.faker.IntRange(0, len(categories)-1)].ID
			post.CategoryID = &categoryID
		}

		var created bool
		err := g.db.Transaction(func(tx *gorm.DB) error {
			var err error
			created, err = firstOrCreate(tx, &post, "title = ?", title)
			if err != nil || !created || len(tags) == 0 {
				return err
			}
			return service.ReplacePostTags(tx, &post, g.sampleTagIDs(tags, 3))
		})
		if err != nil {
			return err
		}
		if created {
			report.Posts++
		}
	}
	return nil
}

func (g *Generator) postTitle() string {
	topic := g.catalog.Topics[g.faker.IntRange(0, len(g.catalog.Topics)-1)]
	return fmt.Sprintf("%s: %s", strings.ToUpper(topic[:1])+topic[1:], g.faker.AppName())
}

func (g *Generator) postContent() string {
	var b strings.Builder
	sections := g.faker.IntRange(2, 4)
	for i := 0; i < sections; i++ {
		fmt.Fprintf(&b, "## %s\n\n", g.faker.AppName())
		for p := 0; p < g.faker.IntRange(2, 4); p++ {
			sentences := make([]string, 0, 5)
			for s := 0; s < g.faker.IntRange(3, 5); s++ {
				sentences = append(sentences, g.faker.HackerPhrase())
			}
			b.WriteString(strings.Join(sentences, " "))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (g *Generator) sampleTagIDs(tags []db.Tag, limit int) []uint {
	count := g.faker.IntRange(1, min(limit, len(tags)))
	picked := make([]uint, 0, count)
	for _, idx := range g.sample(len(tags), count) {
		picked = append(picked, tags[idx].ID)
	}
	return picked
}

// sample 从 [0, n) 中不重复地抽取 k 个下标。
func (g *Generator) sample(n, k int) []int {
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	k = min(k, n)
	for i := 0; i < k; i++ {
		j := g.faker.IntRange(i, n-1)
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}
	return indexes[:k]
}

func (g *Generator) seedSeries(report *Report) error {
	series := db.Series{
		Title:       "Building AURA",
		Description: "A running log of how this portfolio was designed and shipped.",
		Status:      db.PostStatusPublished,
	}
	created, err := firstOrCreate(g.db, &series, "title = ?", series.Title)
	if err != nil {
		return err
	}
	if created {
		report.Series++
	}

	var posts []db.Post
	if err := g.db.Where("status = ?", db.PostStatusPublished).
		Order("published_at asc").Limit(3).Find(&posts).Error; err != nil {
		return err
	}
	for _, post := range posts {
		if _, err := g.series.AddPost(series.ID, post.ID); err != nil && !errors.Is(err, service.ErrSeriesPostExists) {
			return err
		}
	}
	return nil
}

func (g *Generator) seedSystems(author *db.User, opts Options, report *Report) error {
	var technologies []db.Technology
	if err := g.db.Find(&technologies).Error; err != nil {
		return err
	}
	var posts []db.Post
	if err := g.db.Where("status = ?", db.PostStatusPublished).Find(&posts).Error; err != nil {
		return err
	}

	for i := 0; i < opts.Systems; i++ {
		g.reseed("system", i)
		title := g.faker.AppName() + " Platform"
		status := db.SystemStatuses[g.faker.IntRange(0, len(db.SystemStatuses)-1)]
		started := opts.Now.AddDate(0, -g.faker.IntRange(1, 24), 0)

		stack := make(datatypes.JSONSlice[string], 0, 3)
		if len(technologies) > 0 {
			for _, idx := range g.sample(len(technologies), 3) {
				stack = append(stack, technologies[idx].Name)
			}
		}

		module := db.SystemModule{
			Title:             title,
			Summary:           g.faker.HackerPhrase(),
			Description:       g.postContent(),
			Status:            status,
			CompletionPercent: g.faker.IntRange(0, 100),
			Priority:          g.faker.IntRange(1, 4),
			Featured:          g.faker.IntRange(1, 3) == 1,
			RepositoryURL:     g.faker.URL(),
			TechStack:         stack,
			StartedAt:         &started,
			AuthorID:          author.ID,
		}
		created, err := firstOrCreate(g.db, &module, "title = ?", title)
		if err != nil {
			return err
		}
		if !created {
			continue
		}
		report.Systems++

		if err := g.seedSystemDetails(&module, opts); err != nil {
			return err
		}
		if len(posts) > 0 {
			post := posts[g.faker.IntRange(0, len(posts)-1)]
			input := service.LinkInput{
				ConnectionType: db.ConnectionTypes[g.faker.IntRange(0, len(db.ConnectionTypes)-1)],
				Priority:       db.LogPriorities[g.faker.IntRange(0, len(db.LogPriorities)-1)],
				Impact:         db.LogImpacts[g.faker.IntRange(0, len(db.LogImpacts)-1)],
			}
			if _, err := g.systems.Link(module.ID, post.ID, input); err != nil {
				return err
			}
			report.Links++
		}
	}
	return nil
}

func (g *Generator) seedSystemDetails(module *db.SystemModule, opts Options) error {
	features := make([]db.SystemFeature, 0, 3)
	for i := 0; i < 3; i++ {
		features = append(features, db.SystemFeature{
			SystemModuleID: module.ID,
			Title:          g.faker.HackerPhrase(),
			Status:         db.FeatureStatuses[g.faker.IntRange(0, len(db.FeatureStatuses)-1)],
			Position:       i + 1,
		})
	}
	if err := g.db.Create(&features).Error; err != nil {
		return err
	}

	metrics := []db.SystemMetric{
		{SystemModuleID: module.ID, Name: "p95 latency", Value: g.faker.Float64Range(20, 400), Unit: "ms", RecordedAt: opts.Now},
		{SystemModuleID: module.ID, Name: "uptime", Value: g.faker.Float64Range(97, 100), Unit: "%", RecordedAt: opts.Now},
	}
	if err := g.db.Create(&metrics).Error; err != nil {
		return err
	}

	for day := 0; day < opts.Days; day++ {
		commits := g.faker.IntRange(0, 12)
		if commits == 0 {
			continue
		}
		if err := g.systems.RecordCommits(module.ID, opts.Now.AddDate(0, 0, -day), commits); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) seedEducation(report *Report) error {
	for _, item := range g.catalog.Education {
		end := time.Date(item.EndYear, time.June, 30, 0, 0, 0, 0, time.UTC)
		education := db.Education{
			Institution:  item.Institution,
			Degree:       item.Degree,
			FieldOfStudy: item.Field,
			StartDate:    time.Date(item.StartYear, time.September, 1, 0, 0, 0, 0, time.UTC),
			EndDate:      &end,
			GPA:          float64(g.faker.IntRange(30, 40)) / 10,
			Description:  g.faker.HackerPhrase(),
		}
		created, err := firstOrCreate(g.db, &education, "institution = ? AND degree = ?", item.Institution, item.Degree)
		if err != nil {
			return err
		}
		if created {
			report.Education++
		}
	}
	return nil
}

func (g *Generator) seedExperience(opts Options, report *Report) error {
	var existing int64
	if err := g.db.Model(&db.Experience{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	start := opts.Now.AddDate(-6, 0, 0)
	for i := 0; i < 3; i++ {
		current := i == 2
		end := start.AddDate(2, 0, 0)
		experience := db.Experience{
			Company:     g.faker.Company(),
			Title:       g.faker.JobTitle(),
			Location:    g.faker.City(),
			StartDate:   start,
			Current:     current,
			Description: g.faker.HackerPhrase(),
			Position:    3 - i,
		}
		if !current {
			experience.EndDate = &end
		}
		if err := g.db.Create(&experience).Error; err != nil {
			return err
		}
		report.Experience++
		start = end
	}
	return nil
}

// seedRelationships 随机抽样技能与技术、技能与教育经历之间的关联。
func (g *Generator) seedRelationships(report *Report) error {
	var skills []db.Skill
	if err := g.db.Find(&skills).Error; err != nil {
		return err
	}
	var technologies []db.Technology
	if err := g.db.Find(&technologies).Error; err != nil {
		return err
	}
	var education []db.Education
	if err := g.db.Find(&education).Error; err != nil {
		return err
	}

	for _, skill := range skills {
		if len(technologies) > 0 {
			for _, idx := range g.sample(len(technologies), 2) {
				relationship := g.catalog.Relationships[g.faker.IntRange(0, len(g.catalog.Relationships)-1)]
				if _, err := g.profiles.LinkSkillTechnology(skill.ID, technologies[idx].ID, relationship, g.faker.IntRange(1, 5)); err != nil {
					return err
				}
				report.Links++
			}
		}
		if len(education) > 0 && g.faker.Bool() {
			target := education[g.faker.IntRange(0, len(education)-1)]
			if _, err := g.profiles.LinkSkillEducation(skill.ID, target.ID, g.faker.HackerPhrase(), g.faker.IntRange(1, 3)); err != nil {
				return err
			}
			report.Links++
		}
	}
	return nil
}

// seedAnalytics 生成按天的流量，已存在的日期保持不变。
func (g *Generator) seedAnalytics(opts Options, report *Report) error {
	referrers := []string{"google.com", "news.ycombinator.com", "github.com", "twitter.com"}
	for day := 0; day < opts.Days; day++ {
		date := opts.Now.AddDate(0, 0, -day)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		visitors := uint64(g.faker.IntRange(5, 200))

		breakdown := datatypes.JSONMap{}
		for _, host := range referrers {
			breakdown[host] = g.faker.IntRange(0, int(visitors))
		}
		row := db.DailyAnalytics{
			Date:      datatypes.Date(date),
			Visitors:  visitors,
			PageViews: visitors * uint64(g.faker.IntRange(1, 4)),
			Referrers: breakdown,
		}
		result := g.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoNothing: true,
		}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			report.AnalyticDays++
		}
	}
	return nil
}
