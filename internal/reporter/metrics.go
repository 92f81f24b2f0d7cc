// internal/reporter/metrics.go
package reporter

import (
	"github.com/mwiater/hogbench/internal/question"
	"github.com/mwiater/hogbench/internal/tester"
)

// Summary aggregates one run's results for reporting.
type Summary struct {
	TotalQuestions int `json:"total_questions"`

	SingleChoiceCount     int `json:"single_choice_count"`
	MultipleChoiceCount   int `json:"multiple_choice_count"`
	NegativeQuestionCount int `json:"negative_question_count"`

	ByStatus map[tester.ParsingStatus]int `json:"by_status"`

	SingleChoiceAccuracy float64 `json:"single_choice_accuracy"`
	MultiChoicePrecision float64 `json:"multi_choice_precision"`
	MultiChoiceRecall    float64 `json:"multi_choice_recall"`
	MultiChoiceF1        float64 `json:"multi_choice_f1"`
	AverageScore         float64 `json:"average_score"`
}

// Summarize computes the run summary: per-status and per-kind counts,
// single-choice accuracy, macro-averaged multi-choice metrics, and the
// overall mean score.
func Summarize(results []tester.Result) Summary {
	s := Summary{
		TotalQuestions: len(results),
		ByStatus:       map[tester.ParsingStatus]int{},
	}
	if len(results) == 0 {
		return s
	}

	var (
		scoreSum      float64
		singleCorrect int
		precisionSum  float64
		recallSum     float64
		f1Sum         float64
		multiCount    int
	)

	for _, r := range results {
		s.ByStatus[r.ParsingStatus]++
		scoreSum += r.Score

		switch r.Kind {
		case question.SingleChoice:
			s.SingleChoiceCount++
			if r.Score == 1.0 {
				singleCorrect++
			}
		case question.MultipleChoice:
			s.MultipleChoiceCount++
		case question.NegativeQuestion:
			s.NegativeQuestionCount++
		}

		if r.Metrics != nil {
			precisionSum += r.Metrics.Precision
			recallSum += r.Metrics.Recall
			f1Sum += r.Metrics.F1
			multiCount++
		}
	}

	s.AverageScore = scoreSum / float64(len(results))
	if s.SingleChoiceCount > 0 {
		s.SingleChoiceAccuracy = float64(singleCorrect) / float64(s.SingleChoiceCount)
	}
	if multiCount > 0 {
		s.MultiChoicePrecision = precisionSum / float64(multiCount)
		s.MultiChoiceRecall = recallSum / float64(multiCount)
		s.MultiChoiceF1 = f1Sum / float64(multiCount)
	}
	return s
}
