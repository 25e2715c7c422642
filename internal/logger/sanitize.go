package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Log field length limits
const (
	MaxPathLength          = 500
	MaxUserIDLength        = 128 // subjects from the identity provider, not only UUIDs
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	MaxCategoryNameLength  = 64
)

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString makes user-controlled text safe to log: invalid UTF-8 and
// control characters other than whitespace are dropped, and the result is cut
// to maxLength bytes on a rune boundary. A non-positive maxLength means
// MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) <= maxLength {
		return s
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeUserID sanitizes a user ID for safe logging
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// SanitizeCategoryName sanitizes a user-entered category name for safe logging
func SanitizeCategoryName(name string) string {
	return SanitizeString(name, MaxCategoryNameLength)
}
