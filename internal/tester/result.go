// internal/tester/result.go
// Package tester implements the evaluation engine: answer parsing, scoring,
// depth-aware context construction, scheduling, recovery, and the
// concurrent execution pipeline.
package tester

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mwiater/hogbench/internal/question"
)

// ParsingStatus classifies how a result's model answer was obtained.
type ParsingStatus string

const (
	StatusSuccess           ParsingStatus = "success"
	StatusRegexExtracted    ParsingStatus = "regex_extracted"
	StatusParsingError      ParsingStatus = "parsing_error"
	StatusTimeout           ParsingStatus = "timeout"
	StatusError             ParsingStatus = "error"
	StatusRefused           ParsingStatus = "refused"
	StatusContextBuildError ParsingStatus = "context_build_error"
)

// IsFailure reports whether a status scores zero without consulting the
// model answer.
func (s ParsingStatus) IsFailure() bool {
	switch s {
	case StatusParsingError, StatusTimeout, StatusError, StatusRefused, StatusContextBuildError:
		return true
	}
	return false
}

// Succeeded reports whether a prior result can be kept during recovery.
func (s ParsingStatus) Succeeded() bool {
	return s == StatusSuccess || s == StatusRegexExtracted
}

// Test modes recorded on depth-aware results.
const (
	ModeWithReference = "with_reference"
	ModeNoReference   = "no_reference"
)

// Metrics holds the multi-choice precision/recall/F1 triple.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Result is the per-assignment outcome written to the result file.
type Result struct {
	Question          string            `json:"question"`
	Kind              question.Kind     `json:"question_type"`
	Choices           map[string]string `json:"choice"`
	CorrectAnswer     []string          `json:"correct_answer"`
	ModelAnswer       []string          `json:"model_answer"`
	ParsingStatus     ParsingStatus     `json:"parsing_status"`
	Position          question.Position `json:"position"`
	Score             float64           `json:"score"`
	Metrics           *Metrics          `json:"metrics,omitempty"`
	Depth             *float64          `json:"depth,omitempty"`
	DepthBin          string            `json:"depth_bin,omitempty"`
	TestContextLength int               `json:"test_context_length,omitempty"`
	TestMode          string            `json:"test_mode,omitempty"`
}

// RunMetadata is the leading metadata line of a result file.
type RunMetadata struct {
	TestedAt        string   `json:"tested_at"`
	RunID           string   `json:"run_id,omitempty"`
	ModelName       string   `json:"model_name"`
	NovelPath       string   `json:"novel_path,omitempty"`
	QuestionSetPath string   `json:"question_set_path"`
	ContextLength   int      `json:"context_length,omitempty"`
	ContextLengths  []int    `json:"context_lengths,omitempty"`
	DepthMode       string   `json:"depth_mode,omitempty"`
	DepthBins       []string `json:"depth_bins,omitempty"`
	PaddingSize     int      `json:"padding_size,omitempty"`
	TestMode        string   `json:"test_mode,omitempty"`
	TotalQuestions  int      `json:"total_questions,omitempty"`
	Encoding        string   `json:"encoding,omitempty"`
}

// Sink is the durable, append-only result writer shared by all workers.
// Each emit is flushed before the mutex is released so a crashed run can be
// resumed from the file.
type Sink struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// NewSink creates the result file, writing the metadata line first.
func NewSink(path string, meta *RunMetadata) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create result file %s: %w", path, err)
	}
	s := &Sink{f: f, w: bufio.NewWriter(f)}
	if meta != nil {
		if err := s.writeLine(map[string]*RunMetadata{"metadata": meta}); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

// Emit appends one result line and flushes it.
func (s *Sink) Emit(r Result) error {
	return s.writeLine(r)
}

func (s *Sink) writeLine(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := json.NewEncoder(s.w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return s.w.Flush()
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
