package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// spec 描述一个可导入模型：用哪些列定位已有记录，以及如何把一行写入模型。
type spec[T any] struct {
	keys      []string
	apply     func(row Row, item *T, creating bool)
	afterSave func(tx *gorm.DB, item *T) error
}

func (s spec[T]) requiredColumns() []string {
	return s.keys
}

func (s spec[T]) importRow(tx *gorm.DB, row Row, update bool) (outcome, error) {
	query := tx
	for _, key := range s.keys {
		value := row.Get(key)
		if value == "" {
			return outcomeSkipped, fmt.Errorf("缺少 %s", key)
		}
		query = query.Where(clause.Eq{Column: clause.Column{Name: key}, Value: value})
	}

	var item T
	err := query.First(&item).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return outcomeSkipped, err
	}
	if exists && !update {
		return outcomeSkipped, nil
	}

	s.apply(row, &item, !exists)
	if err := tx.Omit(clause.Associations).Save(&item).Error; err != nil {
		return outcomeSkipped, err
	}
	if s.afterSave != nil {
		if err := s.afterSave(tx, &item); err != nil {
			return outcomeSkipped, err
		}
	}

	if exists {
		return outcomeUpdated, nil
	}
	return outcomeCreated, nil
}

// set 在列存在（新建时）或列非空（更新时）时写入，避免更新时清空 CSV 未提供的字段。
func set(row Row, column string, creating bool, assign func(value string)) {
	if !row.Has(column) {
		return
	}
	value := row.Get(column)
	if value == "" && !creating {
		return
	}
	assign(value)
}

func defaultSpecs() map[string]modelSpec {
	return map[string]modelSpec{
		"categories":   categorySpec(),
		"tags":         tagSpec(),
		"skills":       skillSpec(),
		"technologies": technologySpec(),
		"education":    educationSpec(),
		"experience":   experienceSpec(),
	}
}

func categorySpec() spec[db.Category] {
	return spec[db.Category]{
		keys: []string{"name"},
		apply: func(row Row, item *db.Category, creating bool) {
			item.Name = row.Get("name")
			set(row, "slug", creating, func(v string) { item.Slug = v })
			set(row, "description", creating, func(v string) { item.Description = v })
			set(row, "color", creating, func(v string) { item.Color = v })
			set(row, "icon", creating, func(v string) { item.Icon = v })
		},
	}
}

func tagSpec() spec[db.Tag] {
	return spec[db.Tag]{
		keys: []string{"name"},
		apply: func(row Row, item *db.Tag, creating bool) {
			item.Name = row.Get("name")
			set(row, "slug", creating, func(v string) { item.Slug = v })
			set(row, "color", creating, func(v string) { item.Color = v })
			set(row, "icon", creating, func(v string) { item.Icon = v })
		},
	}
}

func skillSpec() spec[db.Skill] {
	return spec[db.Skill]{
		keys: []string{"name"},
		apply: func(row Row, item *db.Skill, creating bool) {
			item.Name = row.Get("name")
			set(row, "slug", creating, func(v string) { item.Slug = v })
			set(row, "category", creating, func(v string) { item.Category = v })
			set(row, "proficiency", creating, func(v string) { item.Proficiency = ParseInt(v, 3) })
			set(row, "years_experience", creating, func(v string) { item.YearsExperience = ParseFloat(v, 0) })
			set(row, "is_featured", creating, func(v string) { item.Featured = ParseBool(v, false) })
			set(row, "description", creating, func(v string) { item.Description = v })
			set(row, "icon", creating, func(v string) { item.Icon = v })
			set(row, "color", creating, func(v string) { item.Color = v })
			if creating && item.Proficiency == 0 {
				item.Proficiency = 3
			}
		},
		afterSave: func(tx *gorm.DB, item *db.Skill) error {
			_, err := service.EnsureTagTx(tx, item.Name)
			return err
		},
	}
}

func technologySpec() spec[db.Technology] {
	return spec[db.Technology]{
		keys: []string{"name"},
		apply: func(row Row, item *db.Technology, creating bool) {
			item.Name = row.Get("name")
			set(row, "slug", creating, func(v string) { item.Slug = v })
			set(row, "category", creating, func(v string) { item.Category = v })
			set(row, "proficiency", creating, func(v string) { item.Proficiency = ParseInt(v, 3) })
			set(row, "description", creating, func(v string) { item.Description = v })
			set(row, "icon", creating, func(v string) { item.Icon = v })
			set(row, "color", creating, func(v string) { item.Color = v })
			if creating && item.Proficiency == 0 {
				item.Proficiency = 3
			}
		},
		afterSave: func(tx *gorm.DB, item *db.Technology) error {
			_, err := service.EnsureTagTx(tx, item.Name)
			return err
		},
	}
}

func educationSpec() spec[db.Education] {
	return spec[db.Education]{
		keys: []string{"institution", "degree"},
		apply: func(row Row, item *db.Education, creating bool) {
			item.Institution = row.Get("institution")
			item.Degree = row.Get("degree")
			set(row, "field_of_study", creating, func(v string) { item.FieldOfStudy = v })
			set(row, "start_date", creating, func(v string) { item.StartDate = ParseDate(v, item.StartDate) })
			set(row, "end_date", creating, func(v string) { item.EndDate = parseOptionalDate(v) })
			set(row, "is_current", creating, func(v string) { item.Current = ParseBool(v, false) })
			set(row, "gpa", creating, func(v string) { item.GPA = ParseFloat(v, 0) })
			set(row, "description", creating, func(v string) { item.Description = v })
			if item.Current {
				item.EndDate = nil
			}
		},
	}
}

func experienceSpec() spec[db.Experience] {
	return spec[db.Experience]{
		keys: []string{"company", "title"},
		apply: func(row Row, item *db.Experience, creating bool) {
			item.Company = row.Get("company")
			item.Title = row.Get("title")
			set(row, "location", creating, func(v string) { item.Location = v })
			set(row, "start_date", creating, func(v string) { item.StartDate = ParseDate(v, time.Time{}) })
			set(row, "end_date", creating, func(v string) { item.EndDate = parseOptionalDate(v) })
			set(row, "is_current", creating, func(v string) { item.Current = ParseBool(v, false) })
			set(row, "description", creating, func(v string) { item.Description = v })
			set(row, "order", creating, func(v string) { item.Position = ParseInt(v, 0) })
		},
	}
}
