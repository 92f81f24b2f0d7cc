// internal/tester/scorer_test.go
package tester

import (
	"math"
	"testing"

	"github.com/mwiater/hogbench/internal/question"
)

func TestScoreSingleChoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model []string
		want  float64
	}{
		{name: "exact match", model: []string{"b"}, want: 1.0},
		{name: "wrong letter", model: []string{"a"}, want: 0.0},
		{name: "extra letter", model: []string{"a", "b"}, want: 0.0},
		{name: "empty", model: nil, want: 0.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			score, metrics := Score(question.SingleChoice, []string{"b"}, tt.model, StatusSuccess)
			if score != tt.want {
				t.Fatalf("score = %g, want %g", score, tt.want)
			}
			if metrics != nil {
				t.Fatalf("single choice must not record metrics, got %+v", metrics)
			}
		})
	}
}

func TestScoreMultiChoiceF1(t *testing.T) {
	t.Parallel()

	// correct {a,c}, model {a,b}: P = R = 0.5, F1 = 0.5.
	score, metrics := Score(question.MultipleChoice, []string{"a", "c"}, []string{"a", "b"}, StatusSuccess)
	if metrics == nil {
		t.Fatal("multi choice must record metrics")
	}
	if metrics.Precision != 0.5 || metrics.Recall != 0.5 {
		t.Fatalf("P/R = %g/%g, want 0.5/0.5", metrics.Precision, metrics.Recall)
	}
	if math.Abs(metrics.F1-0.5) > 1e-9 || math.Abs(score-0.5) > 1e-9 {
		t.Fatalf("F1 = %g score = %g, want 0.5", metrics.F1, score)
	}
}

func TestScoreMultiChoicePerfect(t *testing.T) {
	t.Parallel()

	score, metrics := Score(question.MultipleChoice, []string{"a", "c"}, []string{"c", "a"}, StatusSuccess)
	if score != 1.0 || metrics.F1 != 1.0 {
		t.Fatalf("score/F1 = %g/%g, want 1/1", score, metrics.F1)
	}
}

func TestScoreMultiChoiceDisjoint(t *testing.T) {
	t.Parallel()

	score, metrics := Score(question.MultipleChoice, []string{"a"}, []string{"b"}, StatusSuccess)
	if score != 0.0 || metrics.F1 != 0.0 {
		t.Fatalf("score/F1 = %g/%g, want 0/0", score, metrics.F1)
	}
}

func TestScoreMultiChoiceEmptyModel(t *testing.T) {
	t.Parallel()

	score, metrics := Score(question.MultipleChoice, []string{"a", "b"}, nil, StatusSuccess)
	if score != 0.0 {
		t.Fatalf("score = %g, want 0", score)
	}
	if metrics.Precision != 0.0 || metrics.Recall != 0.0 {
		t.Fatalf("P/R = %g/%g, want 0/0", metrics.Precision, metrics.Recall)
	}
}

func TestScoreNegativeQuestionUsesF1(t *testing.T) {
	t.Parallel()

	score, metrics := Score(question.NegativeQuestion, []string{"a", "c"}, []string{"a"}, StatusSuccess)
	if metrics == nil {
		t.Fatal("negative question must record metrics")
	}
	// P = 1, R = 0.5, F1 = 2/3.
	if math.Abs(score-2.0/3.0) > 1e-9 {
		t.Fatalf("score = %g, want 2/3", score)
	}
}

func TestScoreFailureStatuses(t *testing.T) {
	t.Parallel()

	for _, status := range []ParsingStatus{
		StatusParsingError, StatusTimeout, StatusError, StatusRefused, StatusContextBuildError,
	} {
		score, metrics := Score(question.MultipleChoice, []string{"a"}, []string{"a"}, status)
		if score != 0.0 {
			t.Fatalf("status %s: score = %g, want 0", status, score)
		}
		if metrics == nil || metrics.F1 != 0.0 {
			t.Fatalf("status %s: metrics must be zeroed, got %+v", status, metrics)
		}

		score, single := Score(question.SingleChoice, []string{"a"}, []string{"a"}, status)
		if score != 0.0 || single != nil {
			t.Fatalf("status %s: single score = %g metrics = %+v", status, score, single)
		}
	}
}
