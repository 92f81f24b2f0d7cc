// internal/question/loader.go
package question

import (
	"encoding/json"
	"fmt"

	"github.com/mwiater/hogbench/internal/fileio"
	"github.com/mwiater/hogbench/internal/logging"
)

// SetMetadata is the header record of a question-set file. Unknown keys are
// kept in Raw so they survive a rewrite.
type SetMetadata struct {
	Raw          map[string]any
	NovelSummary string
}

// Set is a loaded question set: the optional header plus every question
// line that passed schema validation.
type Set struct {
	Meta      *SetMetadata
	Questions []Question
	Skipped   int
}

// LoadSet reads a question-set JSONL file. Invalid lines are skipped with a
// counted warning rather than failing the load.
func LoadSet(path string) (*Set, error) {
	rawMeta, lines, err := fileio.ReadJSONL(path)
	if err != nil {
		return nil, err
	}

	set := &Set{}
	if rawMeta != nil {
		meta, err := parseMetadata(rawMeta)
		if err != nil {
			return nil, fmt.Errorf("parse question set metadata: %w", err)
		}
		set.Meta = meta
	}

	for i, line := range lines {
		var q Question
		if err := json.Unmarshal(line, &q); err != nil {
			logging.LogEvent("[LOADER] Skipping line %d: invalid JSON: %v", i+1, err)
			set.Skipped++
			continue
		}
		if err := q.Validate(); err != nil {
			logging.LogEvent("[LOADER] Skipping line %d: %v", i+1, err)
			set.Skipped++
			continue
		}
		set.Questions = append(set.Questions, q)
	}

	if set.Skipped > 0 {
		logging.LogEvent("[LOADER] Loaded %d questions from %s (%d skipped)", len(set.Questions), path, set.Skipped)
	} else {
		logging.LogEvent("[LOADER] Loaded %d questions from %s", len(set.Questions), path)
	}
	return set, nil
}

// NovelSummary returns the header's novel summary, or "" when absent.
func (s *Set) NovelSummary() string {
	if s.Meta == nil {
		return ""
	}
	return s.Meta.NovelSummary
}

func parseMetadata(raw json.RawMessage) (*SetMetadata, error) {
	var outer map[string]any
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, err
	}

	meta := &SetMetadata{Raw: outer}
	if summary, ok := outer["novel_summary"].(string); ok {
		meta.NovelSummary = summary
	}
	if inner, ok := outer["metadata"].(map[string]any); ok && meta.NovelSummary == "" {
		if summary, ok := inner["novel_summary"].(string); ok {
			meta.NovelSummary = summary
		}
	}
	return meta, nil
}
