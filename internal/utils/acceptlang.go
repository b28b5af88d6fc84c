package utils

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultLocale is used when nothing better matches.
const DefaultLocale = "en"

// SupportedLocales are the locales the server has strings for.
var SupportedLocales = []string{"en", "zh"}

type langPref struct {
	tag string
	q   float64
}

// parseAcceptLanguage splits an Accept-Language header into tags ordered by
// descending q. Entries with q=0 or an unparsable q are dropped.
func parseAcceptLanguage(header string) []langPref {
	var prefs []langPref
	for _, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == "*" {
			continue
		}
		q := 1.0
		if k, v, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(k) == "q" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			q = f
		}
		if q <= 0 {
			continue
		}
		prefs = append(prefs, langPref{tag: tag, q: q})
	}
	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].q > prefs[j].q })
	return prefs
}

// matchLocale returns the supported locale for tag, trying the base language
// when the region-qualified tag (zh-CN) is unknown.
func matchLocale(tag string, supported []string) (string, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "", false
	}
	base, _, _ := strings.Cut(tag, "-")
	for _, candidate := range []string{tag, base} {
		for _, s := range supported {
			if strings.EqualFold(s, candidate) {
				return strings.ToLower(s), true
			}
		}
	}
	return "", false
}

// DetermineLocale picks the response locale: an explicit query value wins,
// then Accept-Language by q, then def, then the first supported locale.
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	if l, ok := matchLocale(queryLang, supported); ok {
		return l
	}
	for _, p := range parseAcceptLanguage(acceptLang) {
		if l, ok := matchLocale(p.tag, supported); ok {
			return l
		}
	}
	if l, ok := matchLocale(def, supported); ok {
		return l
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}
