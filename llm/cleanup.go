package llm

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \t]*\\n?(.*?)\\n?[ \t]*```$")

// StripCodeFence removes a markdown code fence wrapping the whole reply.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ExtractJSONObject strips fences and, when the reply does not start with '{',
// keeps the text between the first '{' and the last '}'.
func ExtractJSONObject(s string) (string, bool) {
	s = StripCodeFence(s)
	if strings.HasPrefix(s, "{") {
		return s, true
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// CleanReply reduces a short free-text reply to its first line without wrapping quotes.
func CleanReply(s string) string {
	s = StripCodeFence(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}
