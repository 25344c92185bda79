package llm

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
)

// ParseJSONArray parses a JSON array from an LLM into out. Prose around the
// array is ignored. It reports whether parsing succeeded.
func ParseJSONArray(text string, out any) bool {
	text = stripFences(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return false
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		logging.Debug().Err(err).Msg("Failed to parse LLM response as JSON array")
		return false
	}
	return true
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx <= 1 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}
