package db

import (
	"slices"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SystemModule 状态取值。
const (
	SystemStatusPlanning      = "planning"
	SystemStatusInDevelopment = "in_development"
	SystemStatusTesting       = "testing"
	SystemStatusDeployed      = "deployed"
	SystemStatusMaintenance   = "maintenance"
	SystemStatusArchived      = "archived"
)

// SystemStatuses 列出全部合法状态，顺序即后台展示顺序。
var SystemStatuses = []string{
	SystemStatusPlanning,
	SystemStatusInDevelopment,
	SystemStatusTesting,
	SystemStatusDeployed,
	SystemStatusMaintenance,
	SystemStatusArchived,
}

// SystemModule 是作品集中的项目。
type SystemModule struct {
	gorm.Model
	Title             string `gorm:"size:200;not null"`
	Slug              string `gorm:"uniqueIndex;size:200;not null"`
	Summary           string
	Description       string `gorm:"type:text"`
	Status            string `gorm:"size:30;default:planning;index"`
	CompletionPercent int    `gorm:"default:0"`
	Priority          int    `gorm:"default:2"`
	Featured          bool   `gorm:"default:false"`
	RepositoryURL     string
	DemoURL           string
	TechStack         datatypes.JSONSlice[string]
	StartedAt         *time.Time
	AuthorID          uint
	Author            User
	Features          []SystemFeature  `gorm:"foreignKey:SystemModuleID"`
	Images            []SystemImage    `gorm:"foreignKey:SystemModuleID"`
	Metrics           []SystemMetric   `gorm:"foreignKey:SystemModuleID"`
	CommitSnapshots   []CommitSnapshot `gorm:"foreignKey:SystemModuleID"`
	LogEntries        []SystemLogEntry `gorm:"foreignKey:SystemModuleID"`
}

func (m *SystemModule) SlugSource() string  { return m.Title }
func (m *SystemModule) GetSlug() string     { return m.Slug }
func (m *SystemModule) SetSlug(v string)    { m.Slug = v }
func (m *SystemModule) GetAuthorID() uint   { return m.AuthorID }
func (m *SystemModule) SetAuthorID(id uint) { m.AuthorID = id }
func (m *SystemModule) DisplayName() string { return m.Title }

// BeforeSave 补全 slug 并把完成度限制在 0~100。
func (m *SystemModule) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(m)
	if m.Status == "" || !slices.Contains(SystemStatuses, m.Status) {
		m.Status = SystemStatusPlanning
	}
	m.CompletionPercent = clamp(m.CompletionPercent, 0, 100)
	return nil
}

// FeatureStatuses 功能点状态
var FeatureStatuses = []string{"planned", "in_progress", "done"}

// SystemFeature 项目功能点
type SystemFeature struct {
	ID             uint   `gorm:"primaryKey"`
	SystemModuleID uint   `gorm:"index;not null"`
	Title          string `gorm:"size:200;not null"`
	Description    string
	Status         string `gorm:"size:20;default:planned"`
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (f *SystemFeature) DisplayName() string { return f.Title }

// SystemImage 项目截图
type SystemImage struct {
	ID             uint   `gorm:"primaryKey"`
	SystemModuleID uint   `gorm:"index;not null"`
	URL            string `gorm:"not null"`
	Caption        string
	Width          int
	Height         int
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (i *SystemImage) DisplayName() string {
	if i.Caption != "" {
		return i.Caption
	}
	return i.URL
}

// SystemMetric 项目的性能或业务指标
type SystemMetric struct {
	ID             uint   `gorm:"primaryKey"`
	SystemModuleID uint   `gorm:"index;not null"`
	Name           string `gorm:"size:100;not null"`
	Value          float64
	Unit           string `gorm:"size:20"`
	RecordedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (m *SystemMetric) DisplayName() string { return m.Name }

// CommitSnapshot 按天记录的提交数，(module, date) 唯一。
type CommitSnapshot struct {
	ID             uint           `gorm:"primaryKey"`
	SystemModuleID uint           `gorm:"uniqueIndex:idx_module_day;not null"`
	Date           datatypes.Date `gorm:"uniqueIndex:idx_module_day;not null"`
	Commits        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SystemLogEntry 连接类型、优先级与影响范围取值。
var (
	ConnectionTypes = []string{"implementation", "documentation", "bug_fix", "feature", "analysis", "reference"}
	LogPriorities   = []string{"low", "medium", "high", "critical"}
	LogImpacts      = []string{"minor", "moderate", "major", "breaking"}
)

// SystemLogEntry 是文章与项目之间的关联，携带连接元数据。
type SystemLogEntry struct {
	ID             uint `gorm:"primaryKey"`
	PostID         uint `gorm:"uniqueIndex:idx_post_system;not null"`
	Post           Post
	SystemModuleID uint `gorm:"uniqueIndex:idx_post_system;index;not null"`
	SystemModule   SystemModule
	ConnectionType string `gorm:"size:30;default:reference"`
	Priority       string `gorm:"size:20;default:medium"`
	Impact         string `gorm:"size:20;default:minor"`
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
