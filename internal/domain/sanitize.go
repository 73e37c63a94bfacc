package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength caps sanitized message content, counted in runes so
// multibyte text gets the same budget as ASCII.
const MaxMessageLength = 5000

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	urlPattern        = regexp.MustCompile(`(?i)(https?://[\w-]+(\.[\w-]+)+(/[\w\-./?%&=]*)?)`)
	mentionPattern    = regexp.MustCompile(`@(\w+)`)
)

// SanitizeContent trims the message, collapses runs of whitespace into a
// single space, and truncates to MaxMessageLength runes. Truncation never
// splits a rune, so the result is always valid UTF-8.
func SanitizeContent(content string) string {
	sanitized := strings.TrimSpace(content)
	sanitized = whitespacePattern.ReplaceAllString(sanitized, " ")
	if utf8.RuneCountInString(sanitized) > MaxMessageLength {
		sanitized = string([]rune(sanitized)[:MaxMessageLength])
	}
	return sanitized
}

// IsValidContent reports whether the message is non-blank and within bounds.
func IsValidContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= MaxMessageLength
}

// ContainsURL reports whether the message contains an http(s) URL.
func ContainsURL(content string) bool {
	return urlPattern.MatchString(content)
}

// ExtractMentions returns the usernames @-mentioned in the message.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, m[1])
	}
	return mentions
}
