// internal/question/question.go
// Package question defines the question-set data model, the JSONL loader,
// and the pre-check gate that runs before any model call.
package question

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/hogbench/internal/util"
)

// Kind tags the three supported question variants. The scorer dispatches on
// this tag instead of any inheritance between kinds.
type Kind string

const (
	SingleChoice     Kind = "single_choice"
	MultipleChoice   Kind = "multiple_choice"
	NegativeQuestion Kind = "negative_question"
)

// Position is the half-open token range in the source document where the
// evidence for a question lives.
type Position struct {
	StartPos int `json:"start_pos"`
	EndPos   int `json:"end_pos"`
}

// Validation carries the verdict attached by the validation stage.
type Validation struct {
	IsValid        bool     `json:"is_valid"`
	FailureReasons []string `json:"failure_reasons,omitempty"`
}

// Question is one multiple-choice record anchored at a token range.
type Question struct {
	Text       string            `json:"question"`
	Kind       Kind              `json:"question_type"`
	Choices    map[string]string `json:"choice"`
	Answer     []string          `json:"answer"`
	Position   Position          `json:"position"`
	Validation *Validation       `json:"validation,omitempty"`
}

// questionAlias accepts both the generator's wire names and the
// design-document names (text/kind/choices) on input.
type questionAlias struct {
	Text       string            `json:"question"`
	AltText    string            `json:"text"`
	Kind       Kind              `json:"question_type"`
	AltKind    Kind              `json:"kind"`
	Choices    map[string]string `json:"choice"`
	AltChoices map[string]string `json:"choices"`
	Answer     []string          `json:"answer"`
	Position   Position          `json:"position"`
	Validation *Validation       `json:"validation"`
}

// UnmarshalJSON folds alias field names into the canonical record.
func (q *Question) UnmarshalJSON(data []byte) error {
	var aux questionAlias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	q.Text = aux.Text
	if q.Text == "" {
		q.Text = aux.AltText
	}
	q.Kind = aux.Kind
	if q.Kind == "" {
		q.Kind = aux.AltKind
	}
	q.Choices = aux.Choices
	if len(q.Choices) == 0 {
		q.Choices = aux.AltChoices
	}
	q.Answer = aux.Answer
	q.Position = aux.Position
	q.Validation = aux.Validation
	return nil
}

// Preview returns a shortened question text for log lines.
func (q Question) Preview() string {
	return util.TruncateRunes(q.Text, 50)
}

// questionSchema validates the canonical shape of a question record.
var questionSchema = map[string]any{
	"type":     "object",
	"required": []string{"question", "question_type", "choice", "answer", "position"},
	"properties": map[string]any{
		"question": map[string]any{"type": "string", "minLength": 1},
		"question_type": map[string]any{
			"type": "string",
			"enum": []string{string(SingleChoice), string(MultipleChoice), string(NegativeQuestion)},
		},
		"choice": map[string]any{
			"type":                 "object",
			"minProperties":        2,
			"additionalProperties": map[string]any{"type": "string"},
		},
		"answer": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string"},
		},
		"position": map[string]any{
			"type":     "object",
			"required": []string{"start_pos", "end_pos"},
			"properties": map[string]any{
				"start_pos": map[string]any{"type": "integer", "minimum": 0},
				"end_pos":   map[string]any{"type": "integer", "minimum": 0},
			},
		},
	},
}

// Validate checks a question against the schema and the cross-field
// invariants the schema cannot express.
func (q Question) Validate() error {
	canonical, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(questionSchema),
		gojsonschema.NewBytesLoader(canonical),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid question record: %s", strings.Join(msgs, "; "))
	}

	if q.Position.StartPos >= q.Position.EndPos {
		return fmt.Errorf("invalid position: start_pos %d >= end_pos %d", q.Position.StartPos, q.Position.EndPos)
	}
	for _, key := range q.Answer {
		if _, ok := q.Choices[key]; !ok {
			return fmt.Errorf("answer key %q not present in choices", key)
		}
	}
	if q.Kind == MultipleChoice && len(q.Choices)-len(q.Answer) < 2 {
		return fmt.Errorf("multiple_choice requires at least two distractors, got %d", len(q.Choices)-len(q.Answer))
	}
	return nil
}

// ChoiceKeys returns the choice keys in sorted order.
func (q Question) ChoiceKeys() []string {
	keys := make([]string, 0, len(q.Choices))
	for k := range q.Choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
