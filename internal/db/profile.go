package db

import (
	"time"

	"gorm.io/gorm"
)

// 熟练度范围
const (
	MinProficiency = 1
	MaxProficiency = 5
)

// ClampProficiency 把熟练度限制在 1~5。
func ClampProficiency(v int) int {
	return clamp(v, MinProficiency, MaxProficiency)
}

// Skill 技能
type Skill struct {
	gorm.Model
	Name            string `gorm:"uniqueIndex;size:100;not null"`
	Slug            string `gorm:"uniqueIndex;size:120;not null"`
	Category        string `gorm:"size:50;index"`
	Proficiency     int    `gorm:"default:3"`
	YearsExperience float64
	Featured        bool
	Description     string
	Icon            string            `gorm:"size:50"`
	Color           string            `gorm:"size:20"`
	Technologies    []SkillTechnology `gorm:"foreignKey:SkillID"`
	Education       []SkillEducation  `gorm:"foreignKey:SkillID"`
}

func (s *Skill) SlugSource() string  { return s.Name }
func (s *Skill) GetSlug() string     { return s.Slug }
func (s *Skill) SetSlug(v string)    { s.Slug = v }
func (s *Skill) DisplayName() string { return s.Name }

func (s *Skill) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(s)
	s.Proficiency = ClampProficiency(s.Proficiency)
	return nil
}

// Technology 技术/工具
type Technology struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;size:100;not null"`
	Slug        string `gorm:"uniqueIndex;size:120;not null"`
	Category    string `gorm:"size:50;index"`
	Proficiency int    `gorm:"default:3"`
	Description string
	Icon        string            `gorm:"size:50"`
	Color       string            `gorm:"size:20"`
	Skills      []SkillTechnology `gorm:"foreignKey:TechnologyID"`
}

func (t *Technology) SlugSource() string  { return t.Name }
func (t *Technology) GetSlug() string     { return t.Slug }
func (t *Technology) SetSlug(v string)    { t.Slug = v }
func (t *Technology) DisplayName() string { return t.Name }

func (t *Technology) BeforeSave(tx *gorm.DB) error {
	EnsureSlug(t)
	t.Proficiency = ClampProficiency(t.Proficiency)
	return nil
}

// SkillTechnology 技能与技术之间的关联
type SkillTechnology struct {
	ID           uint `gorm:"primaryKey"`
	SkillID      uint `gorm:"uniqueIndex:idx_skill_technology;not null"`
	Skill        Skill
	TechnologyID uint `gorm:"uniqueIndex:idx_skill_technology;index;not null"`
	Technology   Technology
	Relationship string `gorm:"size:50;default:uses"`
	Strength     int    `gorm:"default:3"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Education 教育经历
type Education struct {
	gorm.Model
	Institution  string `gorm:"size:200;not null"`
	Degree       string `gorm:"size:200"`
	FieldOfStudy string `gorm:"size:200"`
	StartDate    time.Time
	EndDate      *time.Time
	Current      bool `gorm:"column:is_current"`
	GPA          float64
	Description  string
	Skills       []SkillEducation `gorm:"foreignKey:EducationID"`
}

func (e *Education) DisplayName() string {
	if e.Degree == "" {
		return e.Institution
	}
	return e.Degree + " · " + e.Institution
}

// SkillEducation 技能与教育经历之间的关联
type SkillEducation struct {
	ID                uint `gorm:"primaryKey"`
	SkillID           uint `gorm:"uniqueIndex:idx_skill_education;not null"`
	Skill             Skill
	EducationID       uint `gorm:"uniqueIndex:idx_skill_education;index;not null"`
	Education         Education
	Context           string
	ProficiencyGained int `gorm:"default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Experience 工作经历
type Experience struct {
	gorm.Model
	Company     string `gorm:"size:200;not null"`
	Title       string `gorm:"size:200;not null"`
	Location    string
	StartDate   time.Time
	EndDate     *time.Time
	Current     bool   `gorm:"column:is_current"`
	Description string `gorm:"type:text"`
	Position    int
}

func (e *Experience) DisplayName() string {
	return e.Title + " @ " + e.Company
}

// BeforeSave 在职经历不保留结束时间。
func (e *Experience) BeforeSave(tx *gorm.DB) error {
	if e.Current {
		e.EndDate = nil
	}
	return nil
}
