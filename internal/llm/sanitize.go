package llm

import "strings"

const fence = "```"

// Sanitize strips a leading code fence (with optional language tag) and a trailing
// code fence from raw model output, then trims whitespace. Either fence may be
// absent. Interior content is never touched. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := stripTrailingFence(stripLeadingFence(s))
		if next == s {
			return s
		}
		s = next
	}
}

func stripLeadingFence(s string) string {
	if !strings.HasPrefix(s, fence) {
		return s
	}
	rest := strings.TrimLeft(s, "`")
	// language tag runs to the end of the first line
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		if isLanguageTag(rest[:nl]) {
			rest = rest[nl+1:]
		}
	} else if isLanguageTag(rest) {
		rest = ""
	}
	return strings.TrimSpace(rest)
}

func stripTrailingFence(s string) string {
	if !strings.HasSuffix(s, fence) {
		return s
	}
	return strings.TrimSpace(strings.TrimRight(s, "`"))
}

// isLanguageTag accepts "", "json", "JSON", "csv", "text" and similar single words.
func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}
