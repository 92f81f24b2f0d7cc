// internal/tester/parser.go
package tester

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// answerEnvelope is the JSON shape the testing prompt asks the model for.
type answerEnvelope struct {
	Answer json.RawMessage `json:"answer"`
}

var (
	assertedLetterPattern = regexp.MustCompile(`(?i)\banswer\s+(?:is|would be)\s*:?\s*[\("']?([a-z])[\)"'.,\s]`)
	quotedLetterPattern   = regexp.MustCompile(`["'(]([a-z])[")']`)
)

// ParseAnswer extracts an answer-key list from a raw model reply using
// layered fallbacks: direct JSON parse, balanced-brace extraction, then a
// single-letter heuristic. Keys are not validated against the choices here;
// NormalizeAnswer does that before scoring.
func ParseAnswer(response string) ([]string, ParsingStatus) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return nil, StatusParsingError
	}

	if keys, ok := decodeAnswer([]byte(trimmed)); ok {
		return keys, StatusSuccess
	}

	if candidate := extractJSONObject(trimmed); candidate != "" {
		if keys, ok := decodeAnswer([]byte(candidate)); ok {
			return keys, StatusRegexExtracted
		}
	}

	if letter, ok := assertedLetter(trimmed); ok {
		return []string{letter}, StatusRegexExtracted
	}

	return nil, StatusParsingError
}

// decodeAnswer parses a JSON object and pulls out its answer list. A bare
// string answer is promoted to a one-element list.
func decodeAnswer(data []byte) ([]string, bool) {
	var env answerEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Answer == nil {
		return nil, false
	}

	var list []string
	if err := json.Unmarshal(env.Answer, &list); err == nil {
		return list, true
	}
	var single string
	if err := json.Unmarshal(env.Answer, &single); err == nil && single != "" {
		return []string{single}, true
	}
	return nil, false
}

// extractJSONObject returns the first balanced {...} substring, falling
// back to the greedy first-to-last brace span when brace counting fails.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1]
	}
	return ""
}

// assertedLetter looks for exactly one clearly asserted choice letter, as
// in "The answer is (a)." Replies naming several distinct letters are
// ambiguous and rejected.
func assertedLetter(s string) (string, bool) {
	distinct := map[string]bool{}
	for _, m := range assertedLetterPattern.FindAllStringSubmatch(s+" ", -1) {
		distinct[strings.ToLower(m[1])] = true
	}
	if len(distinct) == 0 {
		for _, m := range quotedLetterPattern.FindAllStringSubmatch(s, -1) {
			distinct[strings.ToLower(m[1])] = true
		}
	}
	if len(distinct) != 1 {
		return "", false
	}
	for letter := range distinct {
		return letter, true
	}
	return "", false
}

// NormalizeAnswer lowercases, trims, de-duplicates and sorts the parsed
// keys, dropping any key that is not a known choice.
func NormalizeAnswer(keys []string, choices map[string]string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		if _, ok := choices[k]; !ok {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var refusalMarkers = []string{
	"i cannot answer",
	"i can't answer",
	"i am unable to",
	"i'm unable to",
	"cannot assist",
	"i refuse",
	"无法回答",
	"不能回答",
}

// IsRefusal reports whether an unparseable reply reads as an explicit
// refusal rather than a malformed answer.
func IsRefusal(response string) bool {
	lower := strings.ToLower(response)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
