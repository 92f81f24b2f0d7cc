// internal/tester/recovery_test.go
package tester

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mwiater/hogbench/internal/question"
)

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func depthResult(text string, length int, bin string, status ParsingStatus) Result {
	return Result{
		Question:          text,
		Kind:              question.SingleChoice,
		CorrectAnswer:     []string{"a"},
		ModelAnswer:       []string{"a"},
		ParsingStatus:     status,
		Score:             1.0,
		DepthBin:          bin,
		TestContextLength: length,
		TestMode:          ModeWithReference,
	}
}

func TestPlanRecoveryKeepsSuccesses(t *testing.T) {
	t.Parallel()

	questions := make([]question.Question, 100)
	assignments := make([]Assignment, 100)
	prior := make([]Result, 100)
	for i := range questions {
		text := fmt.Sprintf("question %d", i)
		questions[i] = question.Question{Text: text}
		assignments[i] = Assignment{QuestionIndex: i, ContextLength: 2000, DepthBin: "50%"}
		status := StatusSuccess
		if i >= 90 {
			status = StatusTimeout
		}
		prior[i] = depthResult(text, 2000, "50%", status)
	}

	kept, pending := PlanRecovery(prior, assignments, questions, false)
	if len(kept) != 90 {
		t.Fatalf("kept %d results, want 90", len(kept))
	}
	if len(pending) != 10 {
		t.Fatalf("pending %d assignments, want 10", len(pending))
	}
	for _, a := range pending {
		if a.QuestionIndex < 90 {
			t.Fatalf("assignment %d rerun although its prior succeeded", a.QuestionIndex)
		}
	}
}

func TestPlanRecoveryIdempotent(t *testing.T) {
	t.Parallel()

	questions := make([]question.Question, 20)
	assignments := make([]Assignment, 20)
	prior := make([]Result, 20)
	for i := range questions {
		text := fmt.Sprintf("question %d", i)
		questions[i] = question.Question{Text: text}
		assignments[i] = Assignment{QuestionIndex: i, ContextLength: 4000, DepthBin: "0%"}
		prior[i] = depthResult(text, 4000, "0%", StatusSuccess)
	}

	kept, pending := PlanRecovery(prior, assignments, questions, false)
	if len(pending) != 0 {
		t.Fatalf("pending %d assignments, want 0 when every prior succeeded", len(pending))
	}
	if len(kept) != 20 {
		t.Fatalf("kept %d results, want 20", len(kept))
	}
	// Kept priors carry over verbatim.
	byText := map[string]Result{}
	for _, r := range prior {
		byText[r.Question] = r
	}
	for _, r := range kept {
		if !reflect.DeepEqual(r, byText[r.Question]) {
			t.Fatalf("kept result mutated: %+v", r)
		}
	}
}

func TestPlanRecoveryKeysOnCell(t *testing.T) {
	t.Parallel()

	questions := []question.Question{{Text: "q"}}
	// Same question, two cells; only one cell has a successful prior.
	assignments := []Assignment{
		{QuestionIndex: 0, ContextLength: 2000, DepthBin: "0%"},
		{QuestionIndex: 0, ContextLength: 8000, DepthBin: "0%"},
	}
	prior := []Result{depthResult("q", 2000, "0%", StatusSuccess)}

	kept, pending := PlanRecovery(prior, assignments, questions, false)
	if len(kept) != 1 || len(pending) != 1 {
		t.Fatalf("kept/pending = %d/%d, want 1/1", len(kept), len(pending))
	}
	if pending[0].ContextLength != 8000 {
		t.Fatalf("pending cell %d, want the 8000 cell", pending[0].ContextLength)
	}
}

func TestPlanRecoveryNoReference(t *testing.T) {
	t.Parallel()

	questions := []question.Question{{Text: "q1"}, {Text: "q2"}}
	assignments := []Assignment{{QuestionIndex: 0}, {QuestionIndex: 1}}
	prior := []Result{
		{Question: "q1", ParsingStatus: StatusSuccess, TestMode: ModeNoReference, Score: 1},
		{Question: "q2", ParsingStatus: StatusError, TestMode: ModeNoReference},
	}

	kept, pending := PlanRecovery(prior, assignments, questions, true)
	if len(kept) != 1 || len(pending) != 1 {
		t.Fatalf("kept/pending = %d/%d, want 1/1", len(kept), len(pending))
	}
	if pending[0].QuestionIndex != 1 {
		t.Fatalf("pending question %d, want 1", pending[0].QuestionIndex)
	}
}

func TestLoadPriorResultsSkipsJunk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.jsonl")
	content := `{"metadata":{"model_name":"m"}}
{"question":"q1","question_type":"single_choice","correct_answer":["a"],"model_answer":["a"],"parsing_status":"success","position":{"start_pos":0,"end_pos":10},"score":1.0}
{"not_a_result":true}
`
	if err := writeTestFile(path, content); err != nil {
		t.Fatalf("write: %v", err)
	}

	results, err := LoadPriorResults(path)
	if err != nil {
		t.Fatalf("LoadPriorResults error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("loaded %d results, want 1", len(results))
	}
	if results[0].Question != "q1" || !results[0].ParsingStatus.Succeeded() {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}
