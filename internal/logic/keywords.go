package logic

import (
	"strings"
)

// DefaultEndKeywords is used until an account configures its own list
const DefaultEndKeywords = "thank you,goodbye,end,done"

// ParseKeywords splits a comma separated keyword list into trimmed lower case keywords.
// Empty entries are dropped since an empty keyword would match every message.
func ParseKeywords(csv string) []string {
	if csv == "" {
		return []string{}
	}

	var keywords []string
	for _, kw := range strings.Split(csv, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	return keywords
}

// ContainsAny reports whether content contains any of the keywords (case-insensitive substring match)
func ContainsAny(content string, keywords []string) bool {
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// IsEndOfConversation checks a message against a comma separated end keyword list
func IsEndOfConversation(content, keywordsCSV string) bool {
	return ContainsAny(content, ParseKeywords(keywordsCSV))
}
