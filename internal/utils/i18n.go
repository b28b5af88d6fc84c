package utils

import "strings"

// Server-side strings for results. Question prompts are localised in the catalog.
var translations = map[string]map[string]string{
	"en": {
		"health.ok":         "ok",
		"category.healthy":  "Healthy",
		"category.unstable": "Unstable",
		"category.critical": "Critical",
		"affirmation":       "You are doing well. Keep up the routines that support you.",
	},
	"zh": {
		"health.ok":         "好的",
		"category.healthy":  "健康",
		"category.unstable": "不稳定",
		"category.critical": "需要关注",
		"affirmation":       "你状态不错，继续保持对你有帮助的习惯。",
	},
}

// T returns the translated string for key in locale; falls back to English,
// then to the key itself.
func T(locale, key string) string {
	if m, ok := translations[strings.ToLower(locale)]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
