package view

import (
	"strings"
	"testing"
	"time"
)

func TestNewProgressClampsAndColors(t *testing.T) {
	tests := []struct {
		in      float64
		percent int
		tone    string
	}{
		{in: -5, percent: 0, tone: "danger"},
		{in: 30, percent: 30, tone: "warning"},
		{in: 64.6, percent: 65, tone: "info"},
		{in: 180, percent: 100, tone: "success"},
	}
	for _, tt := range tests {
		got := NewProgress(tt.in)
		if got.Percent != tt.percent || got.Tone != tt.tone {
			t.Fatalf("NewProgress(%v) = %+v, want %d/%s", tt.in, got, tt.percent, tt.tone)
		}
	}
}

func TestStatusBadge(t *testing.T) {
	if got := StatusBadge("in_development"); got.Label != "In Development" || got.Tone != "accent" {
		t.Fatalf("unexpected badge %+v", got)
	}
	if got := StatusBadge("mystery"); got.Tone != "muted" {
		t.Fatalf("unknown status should be muted, got %+v", got)
	}
}

func TestNewPaginationBounds(t *testing.T) {
	p := NewPagination(7, 3)
	if p.Page != 3 || p.HasNext || !p.HasPrev || len(p.Pages) != 3 {
		t.Fatalf("unexpected pagination %+v", p)
	}
	empty := NewPagination(1, 0)
	if empty.TotalPages != 1 || empty.HasPrev || empty.HasNext {
		t.Fatalf("unexpected empty pagination %+v", empty)
	}
}

func TestIconSVGFallsBackToDefault(t *testing.T) {
	if NormalizeIconKey(" GitHub ") != "github" {
		t.Fatalf("expected github key")
	}
	if !strings.Contains(string(IconSVG("unknown")), "<circle") {
		t.Fatalf("unknown icon should render default svg")
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{name: "zero", input: time.Time{}, expected: ""},
		{name: "seconds", input: now.Add(-30 * time.Second), expected: "刚刚"},
		{name: "minutes", input: now.Add(-5 * time.Minute), expected: "5分钟前"},
		{name: "hours", input: now.Add(-2 * time.Hour), expected: "2小时前"},
		{name: "days", input: now.Add(-72 * time.Hour), expected: "3天前"},
		{name: "months", input: now.Add(-60 * 24 * time.Hour), expected: "2个月前"},
		{name: "years", input: now.Add(-3 * 365 * 24 * time.Hour), expected: "3年前"},
		{name: "future", input: now.Add(2 * time.Minute), expected: "刚刚"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeTime(now, tt.input)
			if got != tt.expected {
				t.Fatalf("RelativeTime() = %q, want %q", got, tt.expected)
			}
		})
	}
}
