// internal/tester/testtool_test.go
package tester

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mwiater/hogbench/internal/appconfig"
	"github.com/mwiater/hogbench/internal/fileio"
	"github.com/mwiater/hogbench/internal/llmclient"
	"github.com/mwiater/hogbench/internal/question"
)

func testConfig() appconfig.Config {
	return appconfig.Config{APIKey: "k", ModelName: "stub-model", Concurrency: 2}
}

// writeQuestionSet writes a set of valid single-choice questions, the first
// `unvalidated` of them without a validation block and the next `invalid`
// with is_valid=false.
func writeQuestionSet(t *testing.T, dir string, total, unvalidated, invalid int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(`{"metadata":{"novel_summary":"a short synopsis of the story"}}` + "\n")
	for i := 0; i < total; i++ {
		start := 1000 + i*100
		validation := `,"validation":{"is_valid":true}`
		if i < unvalidated {
			validation = ""
		} else if i < unvalidated+invalid {
			validation = `,"validation":{"is_valid":false,"failure_reasons":["evidence mismatch"]}`
		}
		fmt.Fprintf(&b, `{"question":"question %d","question_type":"single_choice","choice":{"a":"first","b":"second"},"answer":["a"],"position":{"start_pos":%d,"end_pos":%d}%s}`+"\n",
			i, start, start+50, validation)
	}

	path := filepath.Join(dir, "questions.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write question set: %v", err)
	}
	return path
}

func writeNovel(t *testing.T, dir string, sentences int) string {
	t.Helper()
	path := filepath.Join(dir, "novel.txt")
	if err := os.WriteFile(path, []byte(sentenceDoc(sentences)), 0o644); err != nil {
		t.Fatalf("write novel: %v", err)
	}
	return path
}

func TestRunTestsUniformEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	novelPath := writeNovel(t, dir, 2000)
	setPath := writeQuestionSet(t, dir, 10, 0, 0)
	outPath := filepath.Join(dir, "results.jsonl")

	results, _, err := RunTests(context.Background(), testConfig(), TestOptions{
		NovelPath:       novelPath,
		QuestionSetPath: setPath,
		OutputPath:      outPath,
		ContextLengths:  []int{1000, 2000},
		DepthMode:       ModeUniform,
		PaddingSize:     20,
		Invoker:         alwaysAnswer("a"),
		Tokenizer:       runeTokenizer(),
	})
	if err != nil {
		t.Fatalf("RunTests error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}
	for _, r := range results {
		if r.Score != 1.0 || r.ParsingStatus != StatusSuccess {
			t.Fatalf("unexpected result: %+v", r)
		}
	}

	meta, lines, err := fileio.ReadJSONL(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if meta == nil || len(lines) != 10 {
		t.Fatalf("output meta=%v lines=%d, want metadata and 10 lines", meta != nil, len(lines))
	}
}

func TestRunTestsValidationGate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	novelPath := writeNovel(t, dir, 2000)
	setPath := writeQuestionSet(t, dir, 50, 3, 0)
	outPath := filepath.Join(dir, "results.jsonl")

	base := TestOptions{
		NovelPath:       novelPath,
		QuestionSetPath: setPath,
		OutputPath:      outPath,
		ContextLengths:  []int{1000},
		DepthMode:       ModeFixed,
		Depth:           0.5,
		PaddingSize:     10,
		Invoker:         alwaysAnswer("a"),
		Tokenizer:       runeTokenizer(),
	}

	// Without skip-validation the run must fail before any model call.
	_, _, err := RunTests(context.Background(), testConfig(), base)
	var checkErr *question.CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("err = %v, want CheckError", err)
	}
	if len(checkErr.Missing) != 3 {
		t.Fatalf("reported %d missing, want 3", len(checkErr.Missing))
	}

	// With skip-validation all 50 run.
	withSkip := base
	withSkip.SkipValidation = true
	results, _, err := RunTests(context.Background(), testConfig(), withSkip)
	if err != nil {
		t.Fatalf("RunTests with skip error: %v", err)
	}
	if len(results) != 50 {
		t.Fatalf("got %d results, want 50", len(results))
	}
}

func TestRunTestsIgnoreInvalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	novelPath := writeNovel(t, dir, 2000)
	setPath := writeQuestionSet(t, dir, 50, 0, 3)
	outPath := filepath.Join(dir, "results.jsonl")

	results, _, err := RunTests(context.Background(), testConfig(), TestOptions{
		NovelPath:       novelPath,
		QuestionSetPath: setPath,
		OutputPath:      outPath,
		ContextLengths:  []int{1000},
		DepthMode:       ModeFixed,
		Depth:           0.0,
		PaddingSize:     10,
		IgnoreInvalid:   true,
		Invoker:         alwaysAnswer("a"),
		Tokenizer:       runeTokenizer(),
	})
	if err != nil {
		t.Fatalf("RunTests error: %v", err)
	}
	if len(results) != 47 {
		t.Fatalf("got %d results, want 47 after dropping 3 invalid", len(results))
	}
}

func TestRunTestsRecoverySkipsSuccesses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	novelPath := writeNovel(t, dir, 2000)
	setPath := writeQuestionSet(t, dir, 10, 0, 0)
	firstOut := filepath.Join(dir, "first.jsonl")
	secondOut := filepath.Join(dir, "second.jsonl")

	opts := TestOptions{
		NovelPath:       novelPath,
		QuestionSetPath: setPath,
		OutputPath:      firstOut,
		ContextLengths:  []int{1000},
		DepthMode:       ModeUniform,
		PaddingSize:     10,
		Tokenizer:       runeTokenizer(),
	}

	// First run: questions 0-6 succeed, the rest time out.
	var calls atomic.Int64
	opts.Invoker = stubInvoker{fn: func(system, user string) llmclient.Reply {
		calls.Add(1)
		for i := 7; i < 10; i++ {
			if strings.Contains(user, fmt.Sprintf("question %d", i)) {
				return llmclient.Reply{Status: llmclient.StatusTimeout}
			}
		}
		return llmclient.Reply{Status: llmclient.StatusOK, Text: `{"answer": ["a"]}`}
	}}
	if _, _, err := RunTests(context.Background(), testConfig(), opts); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if got := calls.Load(); got != 10 {
		t.Fatalf("first run made %d calls, want 10", got)
	}

	// Recovery run: only the 3 failures should reach the model.
	calls.Store(0)
	opts.OutputPath = secondOut
	opts.RecoveryPath = firstOut
	opts.Invoker = stubInvoker{fn: func(system, user string) llmclient.Reply {
		calls.Add(1)
		return llmclient.Reply{Status: llmclient.StatusOK, Text: `{"answer": ["a"]}`}
	}}
	results, _, err := RunTests(context.Background(), testConfig(), opts)
	if err != nil {
		t.Fatalf("recovery run error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("recovery made %d model calls, want 3", got)
	}
	if len(results) != 10 {
		t.Fatalf("recovery produced %d results, want 10", len(results))
	}
	success := 0
	for _, r := range results {
		if r.ParsingStatus.Succeeded() {
			success++
		}
	}
	if success != 10 {
		t.Fatalf("%d successes after recovery, want 10", success)
	}
}

func TestRunTestsLegacyInsufficientSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	novelPath := writeNovel(t, dir, 2000)
	setPath := writeQuestionSet(t, dir, 5, 0, 0)
	outPath := filepath.Join(dir, "results.jsonl")

	// Every question's evidence ends past the 500-token context.
	_, _, err := RunTests(context.Background(), testConfig(), TestOptions{
		NovelPath:       novelPath,
		QuestionSetPath: setPath,
		OutputPath:      outPath,
		DepthMode:       ModeLegacy,
		ContextLength:   500,
		PaddingSize:     100,
		Invoker:         alwaysAnswer("a"),
		Tokenizer:       runeTokenizer(),
	})
	if !errors.Is(err, ErrInsufficientSource) {
		t.Fatalf("err = %v, want ErrInsufficientSource", err)
	}
}

func TestRunTestsNoReferenceUsesSummary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	setPath := writeQuestionSet(t, dir, 4, 0, 0)
	outPath := filepath.Join(dir, "results.jsonl")

	var sawSummary atomic.Bool
	invoker := stubInvoker{fn: func(system, user string) llmclient.Reply {
		if strings.Contains(user, "a short synopsis of the story") {
			sawSummary.Store(true)
		}
		return llmclient.Reply{Status: llmclient.StatusOK, Text: `{"answer": ["a"]}`}
	}}

	results, _, err := RunTests(context.Background(), testConfig(), TestOptions{
		QuestionSetPath: setPath,
		OutputPath:      outPath,
		NoReference:     true,
		Invoker:         invoker,
		Tokenizer:       runeTokenizer(),
	})
	if err != nil {
		t.Fatalf("RunTests error: %v", err)
	}
	if !sawSummary.Load() {
		t.Fatal("no-reference run did not prompt with the novel summary")
	}
	for _, r := range results {
		if r.TestMode != ModeNoReference {
			t.Fatalf("test mode = %q, want no_reference", r.TestMode)
		}
	}
}
