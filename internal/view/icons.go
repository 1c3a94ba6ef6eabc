package view

import (
	"html/template"
	"strings"
)

// IconOption describes a selectable icon for contact links and categories.
type IconOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type iconAsset struct {
	Key   string
	Label string
	SVG   string
}

const svgOpen = `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true">`

var (
	iconDefinitions = []iconAsset{
		{Key: "github", Label: "GitHub", SVG: svgOpen + `<path d="M9 19c-4 1.5-4-2-6-2.5M15 21v-3.5c0-1 .1-1.4-.5-2 2.8-.3 5.5-1.4 5.5-6a4.6 4.6 0 0 0-1.3-3.2 4.2 4.2 0 0 0-.1-3.2s-1.1-.3-3.5 1.3a12 12 0 0 0-6.2 0C6.5 2.8 5.4 3.1 5.4 3.1a4.2 4.2 0 0 0-.1 3.2A4.6 4.6 0 0 0 4 9.5c0 4.6 2.7 5.7 5.5 6-.6.6-.6 1.2-.5 2V21"/></svg>`},
		{Key: "linkedin", Label: "LinkedIn", SVG: svgOpen + `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M8 11v5M8 8v.01M12 16v-5M16 16v-3a2 2 0 0 0-4 0"/></svg>`},
		{Key: "email", Label: "Email", SVG: svgOpen + `<rect x="3" y="5" width="18" height="14" rx="2"/><path d="m3 7 9 6 9-6"/></svg>`},
		{Key: "website", Label: "Website", SVG: svgOpen + `<circle cx="12" cy="12" r="9"/><path d="M3.6 9h16.8M3.6 15h16.8M12 3a15 15 0 0 1 0 18M12 3a15 15 0 0 0 0 18"/></svg>`},
		{Key: "code", Label: "Code", SVG: svgOpen + `<path d="m8 8-4 4 4 4M16 8l4 4-4 4M14 4l-4 16"/></svg>`},
		{Key: "database", Label: "Database", SVG: svgOpen + `<ellipse cx="12" cy="6" rx="8" ry="3"/><path d="M4 6v6c0 1.7 3.6 3 8 3s8-1.3 8-3V6M4 12v6c0 1.7 3.6 3 8 3s8-1.3 8-3v-6"/></svg>`},
		{Key: "cloud", Label: "Cloud", SVG: svgOpen + `<path d="M7 18a4.6 4.4 0 0 1 0-9 5 4.5 0 0 1 11 2h1a3.5 3.5 0 0 1 0 7z"/></svg>`},
		{Key: "terminal", Label: "Terminal", SVG: svgOpen + `<path d="m5 7 5 5-5 5M12 19h7"/></svg>`},
	}
	defaultIcon = iconAsset{Key: "default", Label: "Default", SVG: svgOpen + `<circle cx="12" cy="12" r="9"/></svg>`}
	iconLookup  = func() map[string]iconAsset {
		lookup := make(map[string]iconAsset, len(iconDefinitions)+1)
		for _, icon := range iconDefinitions {
			lookup[icon.Key] = icon
		}
		lookup[defaultIcon.Key] = defaultIcon
		return lookup
	}()
)

// IconOptions exposes the selectable icon metadata for the admin UI.
func IconOptions() []IconOption {
	options := make([]IconOption, 0, len(iconDefinitions))
	for _, icon := range iconDefinitions {
		options = append(options, IconOption{Key: icon.Key, Label: icon.Label})
	}
	return options
}

// NormalizeIconKey returns a known icon key, falling back to "default".
func NormalizeIconKey(key string) string {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if _, ok := iconLookup[normalized]; ok {
		return normalized
	}
	return defaultIcon.Key
}

// IconSVG returns the inline SVG markup for the icon key.
func IconSVG(key string) template.HTML {
	return template.HTML(iconLookup[NormalizeIconKey(key)].SVG)
}
