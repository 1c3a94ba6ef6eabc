package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aurafolio/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSkillNotFound      = errors.New("skill not found")
	ErrTechnologyNotFound = errors.New("technology not found")
	ErrEducationNotFound  = errors.New("education not found")
)

// ProfileService 负责关于页的技能、技术、教育与工作经历。
type ProfileService struct {
	db    *gorm.DB
	pages *PageService
}

// SkillGroup 是同一分类下的技能。
type SkillGroup struct {
	Category string
	Skills   []db.Skill
}

// AboutData 汇总关于页需要的全部内容。
type AboutData struct {
	Page         *db.Page
	SkillGroups  []SkillGroup
	Technologies []db.Technology
	Education    []db.Education
	Experience   []db.Experience
	Contacts     []db.ContactLink
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{db: gdb, pages: NewPageService(gdb)}
}

// SaveSkill 保存技能，并在同一事务内确保存在同名标签。
func (s *ProfileService) SaveSkill(skill *db.Skill) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(skill).Error; err != nil {
			return err
		}
		_, err := EnsureTagTx(tx, skill.Name)
		return err
	})
}

// SaveTechnology 保存技术，并在同一事务内确保存在同名标签。
func (s *ProfileService) SaveTechnology(technology *db.Technology) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(technology).Error; err != nil {
			return err
		}
		_, err := EnsureTagTx(tx, technology.Name)
		return err
	})
}

// SkillGroups 按分类分组返回技能，组内按熟练度降序。
func (s *ProfileService) SkillGroups() ([]SkillGroup, error) {
	var skills []db.Skill
	if err := s.db.Order("category asc, proficiency desc, name asc").Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}

	groups := make([]SkillGroup, 0)
	for _, skill := range skills {
		category := strings.TrimSpace(skill.Category)
		if category == "" {
			category = "general"
		}
		if len(groups) == 0 || groups[len(groups)-1].Category != category {
			groups = append(groups, SkillGroup{Category: category})
		}
		groups[len(groups)-1].Skills = append(groups[len(groups)-1].Skills, skill)
	}
	return groups, nil
}

// FeaturedSkills 返回精选技能。
func (s *ProfileService) FeaturedSkills(limit int) ([]db.Skill, error) {
	var skills []db.Skill
	err := s.db.
		Where("featured = ?", true).
		Order("proficiency desc, years_experience desc, name asc").
		Limit(positive(limit, 6)).
		Find(&skills).Error
	return skills, err
}

// Technologies 返回全部技术，按分类与名称排序。
func (s *ProfileService) Technologies() ([]db.Technology, error) {
	var technologies []db.Technology
	err := s.db.Order("category asc, name asc").Find(&technologies).Error
	return technologies, err
}

// Education 返回教育经历，最近的在前。
func (s *ProfileService) Education() ([]db.Education, error) {
	var education []db.Education
	err := s.db.
		Preload("Skills.Skill").
		Order("is_current desc, start_date desc").
		Find(&education).Error
	return education, err
}

// Experience 返回工作经历，在职的在前。
func (s *ProfileService) Experience() ([]db.Experience, error) {
	var experience []db.Experience
	err := s.db.Order("is_current desc, start_date desc, position asc").Find(&experience).Error
	return experience, err
}

// ListContacts 返回联系信息，默认按照排序值升序。
func (s *ProfileService) ListContacts(includeHidden bool) ([]db.ContactLink, error) {
	query := s.db.Model(&db.ContactLink{})
	if !includeHidden {
		query = query.Where("visible = ?", true)
	}

	var items []db.ContactLink
	if err := query.Order("sort ASC, id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list contact links: %w", err)
	}
	return items, nil
}

// LinkSkillTechnology 创建或更新技能与技术之间的关联。
func (s *ProfileService) LinkSkillTechnology(skillID, technologyID uint, relationship string, strength int) (*db.SkillTechnology, error) {
	link := db.SkillTechnology{
		SkillID:      skillID,
		TechnologyID: technologyID,
		Relationship: defaultString(relationship, "uses"),
		Strength:     db.ClampProficiency(strength),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&db.Skill{}, skillID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSkillNotFound
			}
			return err
		}
		if err := tx.Select("id").First(&db.Technology{}, technologyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTechnologyNotFound
			}
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "skill_id"}, {Name: "technology_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"relationship", "strength", "updated_at"}),
		}).Create(&link).Error
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// LinkSkillEducation 创建或更新技能与教育经历之间的关联。
func (s *ProfileService) LinkSkillEducation(skillID, educationID uint, context string, gained int) (*db.SkillEducation, error) {
	link := db.SkillEducation{
		SkillID:           skillID,
		EducationID:       educationID,
		Context:           strings.TrimSpace(context),
		ProficiencyGained: db.ClampProficiency(gained),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&db.Skill{}, skillID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSkillNotFound
			}
			return err
		}
		if err := tx.Select("id").First(&db.Education{}, educationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEducationNotFound
			}
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "skill_id"}, {Name: "education_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"context", "proficiency_gained", "updated_at"}),
		}).Create(&link).Error
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// About 汇总关于页内容；关于页正文不存在时 Page 为 nil。
func (s *ProfileService) About() (*AboutData, error) {
	data := &AboutData{}

	page, err := s.pages.GetBySlug(AboutPageSlug)
	switch {
	case err == nil:
		data.Page = page
	case !errors.Is(err, ErrPageNotFound):
		return nil, err
	}

	if data.SkillGroups, err = s.SkillGroups(); err != nil {
		return nil, err
	}
	if data.Technologies, err = s.Technologies(); err != nil {
		return nil, err
	}
	if data.Education, err = s.Education(); err != nil {
		return nil, err
	}
	if data.Experience, err = s.Experience(); err != nil {
		return nil, err
	}
	if data.Contacts, err = s.ListContacts(false); err != nil {
		return nil, err
	}
	return data, nil
}
