// Package view 提供模板使用的类型化视图模型，替代直接拼接 HTML 的模板函数。
package view

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Badge 是带色调的标签。
type Badge struct {
	Label string
	Tone  string
}

// Progress 表示进度条。
type Progress struct {
	Percent int
	Tone    string
}

// Breadcrumb 面包屑导航中的一项，最后一项 URL 为空。
type Breadcrumb struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// StatCard 是仪表盘上的统计卡片。
type StatCard struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// Pagination 列表页分页信息。
type Pagination struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
	Pages      []int
}

var statusTones = map[string]string{
	"published":      "success",
	"draft":          "muted",
	"planning":       "info",
	"in_development": "accent",
	"testing":        "warning",
	"deployed":       "success",
	"maintenance":    "warning",
	"archived":       "muted",
	"low":            "muted",
	"medium":         "info",
	"high":           "warning",
	"critical":       "danger",
	"minor":          "muted",
	"moderate":       "info",
	"major":          "warning",
	"breaking":       "danger",
}

// StatusBadge 把状态/优先级/影响取值映射为展示标签。
func StatusBadge(status string) Badge {
	key := strings.ToLower(strings.TrimSpace(status))
	tone, ok := statusTones[key]
	if !ok {
		tone = "muted"
	}
	return Badge{Label: Humanize(key), Tone: tone}
}

// NewProgress 将百分比限制在 0~100 并按区间着色。
func NewProgress(percent float64) Progress {
	p := int(math.Round(percent))
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = 100
	}

	tone := "danger"
	switch {
	case p >= 80:
		tone = "success"
	case p >= 50:
		tone = "info"
	case p >= 25:
		tone = "warning"
	}
	return Progress{Percent: p, Tone: tone}
}

// ProficiencyDots 把 1~5 熟练度展开为实心/空心标记。
func ProficiencyDots(level int) []bool {
	dots := make([]bool, 5)
	for i := range dots {
		dots[i] = i < level
	}
	return dots
}

// NewPagination 生成页码列表，总页数至少为 1。
func NewPagination(page, totalPages int) Pagination {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	pages := make([]int, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		pages = append(pages, i)
	}
	return Pagination{
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
		Pages:      pages,
	}
}

// Humanize 把 snake_case 取值转成首字母大写的空格分隔文本。
func Humanize(value string) string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '_' || r == '-' })
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// FormatDate 格式化日期，零值返回空字符串。
func FormatDate(t any) string {
	switch v := t.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("Jan 2, 2006")
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Format("Jan 2, 2006")
	case datatypes.Date:
		return FormatDate(time.Time(v))
	}
	return ""
}

// progressOf 让模板可以直接传入 int 或 float64。
func progressOf(value any) Progress {
	switch v := value.(type) {
	case int:
		return NewProgress(float64(v))
	case float64:
		return NewProgress(v)
	}
	return NewProgress(0)
}

// RelativeTime 返回中文相对时间，未来时间视为刚刚。
func RelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "刚刚"
	case diff < time.Hour:
		return fmt.Sprintf("%d分钟前", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d小时前", int(diff.Hours()))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%d天前", int(diff.Hours()/24))
	case diff < 365*24*time.Hour:
		return fmt.Sprintf("%d个月前", int(diff.Hours()/24/30))
	default:
		return fmt.Sprintf("%d年前", int(diff.Hours()/24/365))
	}
}

// FuncMapAt 返回注册到 gin 模板引擎的函数，相对时间以 now 为基准。
func FuncMapAt(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"badge":      StatusBadge,
		"progress":   progressOf,
		"dots":       ProficiencyDots,
		"humanize":   Humanize,
		"date":       FormatDate,
		"icon":       IconSVG,
		"monthName":  func(m int) string { return time.Month(m).String() },
		"percentStr": func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
		"timeAgo": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				return RelativeTime(now(), v)
			case *time.Time:
				if v == nil {
					return ""
				}
				return RelativeTime(now(), *v)
			}
			return ""
		},
	}
}
