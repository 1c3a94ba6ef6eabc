package importer

import (
	"strconv"
	"strings"
	"time"
)

// ParseBool 接受 TRUE/1/YES/Y（不区分大小写）为真，空值返回 fallback，其余为假。
func ParseBool(raw string, fallback bool) bool {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return fallback
	}
	switch value {
	case "TRUE", "1", "YES", "Y":
		return true
	}
	return false
}

// ParseInt 解析整数，允许 "3.0" 这样的写法，失败时返回 fallback。
func ParseInt(raw string, fallback int) int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int(f)
	}
	return fallback
}

// ParseFloat 解析浮点数，失败时返回 fallback。
func ParseFloat(raw string, fallback float64) float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

var dateLayouts = []string{"2006-01-02", "01/02/2006"}

// ParseDate 接受 YYYY-MM-DD 或 MM/DD/YYYY，失败时返回 fallback。
func ParseDate(raw string, fallback time.Time) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}

// parseOptionalDate 与 ParseDate 相同，但空值或无法解析时返回 nil。
func parseOptionalDate(raw string) *time.Time {
	t := ParseDate(raw, time.Time{})
	if t.IsZero() {
		return nil
	}
	return &t
}
