package runner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the verify specialist's machine-readable verdict.
type Verdict struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

// ParseVerdict extracts the JSON verdict from verifier output. Models
// sometimes wrap the object in a code fence or surrounding prose, so the
// parser scans for the first balanced JSON object rather than requiring
// clean output.
func ParseVerdict(text string) (Verdict, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return Verdict{}, err
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	if verdict.Feedback == "" && !verdict.Approved {
		return Verdict{}, fmt.Errorf("rejection verdict carries no feedback")
	}
	return verdict, nil
}

// extractJSONObject returns the first balanced top-level JSON object in
// the text. Braces inside JSON strings are handled.
func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Skip structural characters inside strings.
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in output")
}
