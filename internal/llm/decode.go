package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON extracts the first balanced JSON object from text that may
// contain extra prose. Models add explanations before and after the JSON
// despite instructions, and often wrap it in markdown fences; both are
// tolerated here.
func ExtractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // no object found, let the parser fail
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	// Unbalanced braces, return from start and let the parser fail
	return text[start:]
}

// DecodeJSON extracts the first balanced object from text and unmarshals it
// into v. Callers treat a non-nil error as "use the typed fallback": decode
// failure is an expected condition, never propagated past the call site.
func DecodeJSON(text string, v interface{}) error {
	return json.Unmarshal([]byte(ExtractJSON(text)), v)
}
