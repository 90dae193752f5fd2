package utils

import (
	"regexp"
	"strings"
)

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsProtocol    = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)

	sqlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|UNION|SCRIPT)\b`),
		regexp.MustCompile(`(--|#|/\*|\*/)`),
		regexp.MustCompile(`(?i)\b(OR|AND)\b.*=.*=`),
		regexp.MustCompile(`(?i)\b(OR|AND)\b.*\d+\s*=\s*\d+`),
	}
)

// SanitizeString trims s and strips markup and inline script vectors.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsProtocol.ReplaceAllString(s, "")
	return eventHandler.ReplaceAllString(s, "")
}

// DetectSQLInjection reports whether s looks like an injection attempt.
func DetectSQLInjection(s string) bool {
	for _, p := range sqlPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// SanitizeValue walks a decoded JSON value, sanitizing strings in place.
// It returns false as soon as a string looks like SQL injection. Keys in
// skip are left untouched and unchecked.
func SanitizeValue(v interface{}, skip map[string]bool) (interface{}, bool) {
	switch t := v.(type) {
	case string:
		s := SanitizeString(t)
		if DetectSQLInjection(s) {
			return nil, false
		}
		return s, true
	case map[string]interface{}:
		for k, inner := range t {
			if skip[k] {
				continue
			}
			clean, ok := SanitizeValue(inner, skip)
			if !ok {
				return nil, false
			}
			t[k] = clean
		}
		return t, true
	case []interface{}:
		for i, inner := range t {
			clean, ok := SanitizeValue(inner, skip)
			if !ok {
				return nil, false
			}
			t[i] = clean
		}
		return t, true
	default:
		return v, true
	}
}
