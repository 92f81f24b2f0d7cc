// internal/prompts/prompts.go
// Package prompts manages the prompt templates used when driving the
// target model. Templates can be overridden from disk; placeholders
// {context}, {question} and {choices} are substituted literally.
package prompts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template is one prompt template as stored on disk.
type Template struct {
	System      string   `json:"system"`
	User        string   `json:"user"`
	Constraints []string `json:"constraints,omitempty"`
}

// Default testing template. The reply format instruction matches what the
// answer parser expects.
var defaultTesting = Template{
	System: "You are a careful reading-comprehension assistant. Read the provided " +
		"text and answer the question strictly from its content. Do not invent facts.",
	User: "Read the following text:\n\n{context}\n\n---\n\n" +
		"Question: {question}\n\nChoices:\n{choices}\n\n" +
		"Pick the correct choice(s) based only on the text. Reply with JSON of the form " +
		"{\"answer\": [\"a\"]} for a single choice or {\"answer\": [\"a\", \"c\"]} for " +
		"multiple choices. Output the JSON only, with no extra commentary.",
}

// Default question-generation template. Loaded for completeness; the
// evaluation engine never renders it.
var defaultGeneration = Template{
	System: "You are an expert test designer. Create structured comprehension " +
		"questions grounded in the provided text.",
	User: "Write one {question_type} question about the following text:\n\n{context}\n\n" +
		"Reply with JSON containing question, question_type, choice and answer fields.",
}

// Manager resolves templates by name, preferring disk overrides.
type Manager struct {
	testing    Template
	generation Template
}

// NewManager loads template overrides from dir (testing.json,
// question_generation.json) and falls back to the built-in defaults for
// anything missing. An empty dir uses defaults only.
func NewManager(dir string) (*Manager, error) {
	m := &Manager{testing: defaultTesting, generation: defaultGeneration}
	if dir == "" {
		return m, nil
	}

	if tpl, ok, err := loadTemplateFile(filepath.Join(dir, "testing.json")); err != nil {
		return nil, err
	} else if ok {
		m.testing = tpl
	}
	if tpl, ok, err := loadTemplateFile(filepath.Join(dir, "question_generation.json")); err != nil {
		return nil, err
	} else if ok {
		m.generation = tpl
	}
	return m, nil
}

func loadTemplateFile(path string) (Template, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Template{}, false, nil
		}
		return Template{}, false, fmt.Errorf("read template %s: %w", path, err)
	}
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return Template{}, false, fmt.Errorf("parse template %s: %w", path, err)
	}
	if tpl.System == "" || tpl.User == "" {
		return Template{}, false, fmt.Errorf("template %s must define system and user", path)
	}
	return tpl, true, nil
}

// TestingPrompt renders the testing template for one question.
func (m *Manager) TestingPrompt(context, question string, choices map[string]string) (system, user string) {
	user = m.testing.User
	user = strings.ReplaceAll(user, "{context}", context)
	user = strings.ReplaceAll(user, "{question}", question)
	user = strings.ReplaceAll(user, "{choices}", FormatChoices(choices))
	return m.testing.System, user
}

// GenerationTemplate exposes the question-generation template.
func (m *Manager) GenerationTemplate() Template { return m.generation }

// FormatChoices renders choices as "a. text" lines in key order.
func FormatChoices(choices map[string]string) string {
	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s. %s", k, choices[k])
	}
	return b.String()
}
