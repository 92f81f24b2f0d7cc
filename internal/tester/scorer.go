// internal/tester/scorer.go
package tester

import "github.com/mwiater/hogbench/internal/question"

// Score computes the per-question score. Single-choice answers must match
// the correct set exactly; multiple-choice and negative questions score by
// F1 with the precision/recall pair recorded. Failure statuses score zero
// with zeroed metrics.
func Score(kind question.Kind, correct, model []string, status ParsingStatus) (float64, *Metrics) {
	if status.IsFailure() {
		if kind == question.MultipleChoice || kind == question.NegativeQuestion {
			return 0.0, &Metrics{}
		}
		return 0.0, nil
	}

	switch kind {
	case question.SingleChoice:
		if setEqual(correct, model) {
			return 1.0, nil
		}
		return 0.0, nil

	case question.MultipleChoice, question.NegativeQuestion:
		m := multiChoiceMetrics(correct, model)
		return m.F1, m

	default:
		return 0.0, nil
	}
}

func multiChoiceMetrics(correct, model []string) *Metrics {
	correctSet := toSet(correct)
	modelSet := toSet(model)

	overlap := 0
	for k := range modelSet {
		if correctSet[k] {
			overlap++
		}
	}

	precision := float64(overlap) / float64(max(len(modelSet), 1))
	recall := float64(overlap) / float64(max(len(correctSet), 1))

	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return &Metrics{Precision: precision, Recall: recall, F1: f1}
}

func setEqual(a, b []string) bool {
	as, bs := toSet(a), toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if !bs[k] {
			return false
		}
	}
	return true
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
