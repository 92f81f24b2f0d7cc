// internal/tester/pipeline.go
package tester

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/hogbench/internal/llmclient"
	"github.com/mwiater/hogbench/internal/logging"
	"github.com/mwiater/hogbench/internal/prompts"
	"github.com/mwiater/hogbench/internal/question"
)

// RunOptions configures one pipeline execution.
type RunOptions struct {
	Questions   []question.Question
	Assignments []Assignment
	Builder     *ContextBuilder
	Prompts     *prompts.Manager
	Invoker     llmclient.Invoker
	Sink        *Sink
	Concurrency int
	PaddingSize int

	// Legacy evaluates every question against LegacyContext (the first L
	// tokens of the source) instead of building per-assignment contexts.
	Legacy        bool
	LegacyContext string

	// NoReference answers from the question set's novel summary; the
	// context builder is not consulted.
	NoReference  bool
	NovelSummary string

	// OnResult observes completions. Calls are serialized.
	OnResult func(done, total int, r Result)
}

// RunStats summarizes a pipeline execution for run-level error policy.
type RunStats struct {
	Total                int
	ByStatus             map[ParsingStatus]int
	AssignmentsByLength  map[int]int
	InsufficientByLength map[int]int
}

// ExhaustedLengths lists context lengths where every assignment failed for
// lack of source material; any entry makes the whole run report
// insufficient source.
func (s RunStats) ExhaustedLengths() []int {
	var out []int
	for length, failures := range s.InsufficientByLength {
		if failures > 0 && failures == s.AssignmentsByLength[length] {
			out = append(out, length)
		}
	}
	return out
}

// Run drives every assignment through build → invoke → parse → score →
// emit with a bounded worker pool. Each result is flushed to the sink as it
// completes; cancellation stops dispatch and preserves finished work.
func Run(ctx context.Context, opts RunOptions) ([]Result, RunStats, error) {
	total := len(opts.Assignments)
	stats := RunStats{
		Total:                total,
		ByStatus:             map[ParsingStatus]int{},
		AssignmentsByLength:  map[int]int{},
		InsufficientByLength: map[int]int{},
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, total)
		done    int
	)

	g := new(errgroup.Group)
	g.SetLimit(max(opts.Concurrency, 1))

	for _, a := range opts.Assignments {
		if ctx.Err() != nil {
			break
		}
		a := a
		g.Go(func() error {
			r, insufficient := executeAssignment(ctx, opts, a)

			if opts.Sink != nil {
				if err := opts.Sink.Emit(r); err != nil {
					return err
				}
			}

			mu.Lock()
			results = append(results, r)
			done++
			stats.ByStatus[r.ParsingStatus]++
			if !opts.Legacy && !opts.NoReference {
				stats.AssignmentsByLength[a.ContextLength]++
				if insufficient {
					stats.InsufficientByLength[a.ContextLength]++
				}
			}
			current := done
			if opts.OnResult != nil {
				opts.OnResult(current, total, r)
			}
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		logging.LogEvent("[PIPELINE] Run canceled after %d/%d assignments", done, total)
	}
	return results, stats, err
}

// executeAssignment runs the per-assignment stages. The bool reports an
// insufficient-source build failure for run-level accounting.
func executeAssignment(ctx context.Context, opts RunOptions, a Assignment) (Result, bool) {
	q := opts.Questions[a.QuestionIndex]

	r := Result{
		Question:      q.Text,
		Kind:          q.Kind,
		Choices:       q.Choices,
		CorrectAnswer: q.Answer,
		Position:      q.Position,
	}

	var contextText string
	switch {
	case opts.NoReference:
		r.TestMode = ModeNoReference
		contextText = opts.NovelSummary

	case opts.Legacy:
		r.TestContextLength = a.ContextLength
		contextText = opts.LegacyContext

	default:
		r.TestMode = ModeWithReference
		r.TestContextLength = a.ContextLength
		r.DepthBin = a.DepthBin

		build := opts.Builder.Build(q, a.TargetDepth, a.ContextLength, opts.PaddingSize)
		if !build.OK {
			logging.LogEvent("[PIPELINE] Context build failed for %q: %v", q.Preview(), build.Err)
			depth := a.TargetDepth
			r.Depth = &depth
			r.ParsingStatus = StatusContextBuildError
			r.ModelAnswer = []string{}
			r.Score, r.Metrics = Score(q.Kind, q.Answer, nil, StatusContextBuildError)
			return r, errors.Is(build.Err, ErrInsufficientSource)
		}
		depth := build.ActualDepth
		r.Depth = &depth
		contextText = build.Text
	}

	system, user := opts.Prompts.TestingPrompt(contextText, q.Text, q.Choices)

	reply := opts.Invoker.Call(ctx, system, user)
	switch reply.Status {
	case llmclient.StatusTimeout:
		r.ParsingStatus = StatusTimeout
	case llmclient.StatusRefused:
		r.ParsingStatus = StatusRefused
	case llmclient.StatusError:
		r.ParsingStatus = StatusError
	case llmclient.StatusOK:
		keys, status := ParseAnswer(reply.Text)
		if status == StatusParsingError && IsRefusal(reply.Text) {
			status = StatusRefused
		}
		r.ParsingStatus = status
		r.ModelAnswer = NormalizeAnswer(keys, q.Choices)
	}

	if r.ModelAnswer == nil {
		r.ModelAnswer = []string{}
	}
	r.Score, r.Metrics = Score(q.Kind, q.Answer, r.ModelAnswer, r.ParsingStatus)
	return r, false
}
