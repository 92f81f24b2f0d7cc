// internal/tester/testtool.go
package tester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/hogbench/internal/appconfig"
	"github.com/mwiater/hogbench/internal/fileio"
	"github.com/mwiater/hogbench/internal/llmclient"
	"github.com/mwiater/hogbench/internal/logging"
	"github.com/mwiater/hogbench/internal/prompts"
	"github.com/mwiater/hogbench/internal/question"
	"github.com/mwiater/hogbench/internal/tokenizer"
)

// ErrNoTestableQuestions means every question was filtered out before any
// model call could be made.
var ErrNoTestableQuestions = errors.New("no testable questions remain")

// TestOptions configures one full evaluation run.
type TestOptions struct {
	NovelPath       string
	QuestionSetPath string
	OutputPath      string
	Concurrency     int
	ContextLength   int
	ContextLengths  []int
	DepthMode       DepthMode
	Depth           float64
	PaddingSize     int
	MaxQuestions    int
	RecoveryPath    string
	SkipValidation  bool
	IgnoreInvalid   bool
	NoReference     bool
	PromptDir       string

	// Invoker and Tokenizer override the defaults in tests.
	Invoker   llmclient.Invoker
	Tokenizer *tokenizer.Tokenizer
	OnResult  func(done, total int, r Result)
}

// RunTests executes the complete testing pipeline: load and tokenize the
// source, load and pre-check the question set, schedule assignments, merge
// a prior run when recovering, drive the model, and persist results.
func RunTests(ctx context.Context, cfg appconfig.Config, opts TestOptions) ([]Result, RunStats, error) {
	var stats RunStats

	tok := opts.Tokenizer
	if tok == nil {
		var err error
		tok, err = tokenizer.New(tokenizer.DefaultEncoding)
		if err != nil {
			return nil, stats, err
		}
	}

	set, err := question.LoadSet(opts.QuestionSetPath)
	if err != nil {
		return nil, stats, err
	}
	questions, _, err := question.Check(set.Questions, opts.SkipValidation, opts.IgnoreInvalid)
	if err != nil {
		return nil, stats, err
	}

	promptMgr, err := prompts.NewManager(opts.PromptDir)
	if err != nil {
		return nil, stats, err
	}

	run := RunOptions{
		Prompts:     promptMgr,
		Concurrency: cfg.WorkerCount(),
		PaddingSize: opts.PaddingSize,
		OnResult:    opts.OnResult,
	}
	if opts.Concurrency > 0 {
		run.Concurrency = opts.Concurrency
	}

	meta := &RunMetadata{
		TestedAt:        time.Now().Format(time.RFC3339),
		RunID:           uuid.NewString(),
		ModelName:       cfg.ModelName,
		NovelPath:       opts.NovelPath,
		QuestionSetPath: opts.QuestionSetPath,
		PaddingSize:     opts.PaddingSize,
		Encoding:        tok.EncodingName(),
	}

	var assignments []Assignment
	switch {
	case opts.NoReference:
		summary := set.NovelSummary()
		if summary == "" {
			return nil, stats, errors.New("no-reference mode requires a novel_summary in the question set metadata")
		}
		run.NoReference = true
		run.NovelSummary = summary
		meta.TestMode = ModeNoReference
		for _, qi := range sampleIndices(len(questions), opts.MaxQuestions) {
			assignments = append(assignments, Assignment{QuestionIndex: qi})
		}

	case opts.DepthMode == ModeLegacy:
		novelTokens, err := loadNovelTokens(tok, opts.NovelPath)
		if err != nil {
			return nil, stats, err
		}
		length := opts.ContextLength
		questions = filterForLegacy(questions, length, opts.PaddingSize)
		if len(questions) == 0 {
			return nil, stats, fmt.Errorf("%w: no questions fit context length %d with padding %d: %w",
				ErrNoTestableQuestions, length, opts.PaddingSize, ErrInsufficientSource)
		}
		run.Legacy = true
		run.LegacyContext = tok.Decode(novelTokens[:min(length, len(novelTokens))])
		meta.TestMode = ModeWithReference
		meta.ContextLength = length

		sched, err := NewScheduler(ModeLegacy, 0, []int{length})
		if err != nil {
			return nil, stats, err
		}
		assignments = sched.Schedule(len(questions), opts.MaxQuestions)

	default:
		novelTokens, err := loadNovelTokens(tok, opts.NovelPath)
		if err != nil {
			return nil, stats, err
		}
		run.Builder = NewContextBuilder(tok, novelTokens)
		meta.TestMode = ModeWithReference
		meta.ContextLengths = opts.ContextLengths
		meta.DepthMode = string(opts.DepthMode)
		meta.DepthBins = DepthLabels

		sched, err := NewScheduler(opts.DepthMode, opts.Depth, opts.ContextLengths)
		if err != nil {
			return nil, stats, err
		}
		assignments = sched.Schedule(len(questions), opts.MaxQuestions)
	}

	meta.TotalQuestions = len(assignments)
	run.Questions = questions
	run.Assignments = assignments

	var kept []Result
	if opts.RecoveryPath != "" {
		prior, err := LoadPriorResults(opts.RecoveryPath)
		if err != nil {
			return nil, stats, err
		}
		kept, run.Assignments = PlanRecovery(prior, assignments, questions, opts.NoReference)
	}

	sink, err := NewSink(opts.OutputPath, meta)
	if err != nil {
		return nil, stats, err
	}
	defer sink.Close()
	run.Sink = sink

	for _, r := range kept {
		if err := sink.Emit(r); err != nil {
			return nil, stats, err
		}
	}

	run.Invoker = opts.Invoker
	if run.Invoker == nil {
		run.Invoker = llmclient.New(cfg)
	}

	logging.LogEvent("[TEST] Executing %d assignments (%d recovered) with concurrency %d",
		len(run.Assignments), len(kept), run.Concurrency)

	results, stats, err := Run(ctx, run)
	if err != nil {
		return nil, stats, err
	}

	all := append(kept, results...)
	if exhausted := stats.ExhaustedLengths(); len(exhausted) > 0 {
		return all, stats, fmt.Errorf("%w: context length(s) %v unusable", ErrInsufficientSource, exhausted)
	}
	logging.LogEvent("[TEST] Results saved to %s", opts.OutputPath)
	return all, stats, nil
}

func loadNovelTokens(tok *tokenizer.Tokenizer, path string) ([]int, error) {
	text, err := fileio.ReadNovel(path)
	if err != nil {
		return nil, err
	}
	tokens := tok.Encode(text)
	logging.LogEvent("[TEST] Novel loaded: %d tokens", len(tokens))
	return tokens, nil
}

// filterForLegacy keeps questions whose evidence, plus padding, fits inside
// the shared first-L-tokens context.
func filterForLegacy(questions []question.Question, contextLength, padding int) []question.Question {
	var kept []question.Question
	for _, q := range questions {
		if q.Position.EndPos+padding <= contextLength {
			kept = append(kept, q)
		}
	}
	return kept
}
