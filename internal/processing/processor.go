package processing

import (
	"html"
	"regexp"
	"strings"
	"time"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
)

// QueryPhrases are OR-joined into the upstream search query.
var QueryPhrases = []string{
	"glacier",
	"ice sheet",
	"melting glaciers",
	"climate change",
}

// RelevanceTerms is the allow-list a title or description must contain.
var RelevanceTerms = []string{
	"glacier",
	"ice",
	"ice sheet",
}

// IsRelevant reports whether title or description contains one of terms,
// ignoring case.
func IsRelevant(title, description string, terms []string) bool {
	haystack := strings.ToLower(title + " " + description)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// CleanText strips HTML tags and entities and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := htmlTag.ReplaceAllString(input, " ")
	decoded = html.UnescapeString(decoded)
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// ParseTimestamp accepts the layouts seen from upstream providers and
// returns the zero time when none match.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts.UTC()
		}
	}

	return time.Time{}
}
