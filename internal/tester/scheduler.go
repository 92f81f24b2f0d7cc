// internal/tester/scheduler.go
package tester

import (
	"fmt"
	"math"
	"sort"
)

// DepthMode selects how questions are assigned to the evaluation matrix.
type DepthMode string

const (
	// ModeLegacy evaluates against the first L tokens of the source with
	// no depth placement. Kept for backward compatibility.
	ModeLegacy DepthMode = "legacy"
	// ModeUniform partitions questions evenly across the depth bins and
	// context lengths.
	ModeUniform DepthMode = "uniform"
	// ModeFixed tests every question at one depth, expanded across all
	// context lengths.
	ModeFixed DepthMode = "fixed"
)

// The five depth bins and their centroid labels.
var (
	DepthBins   = []float64{0.0, 0.25, 0.50, 0.75, 1.0}
	DepthLabels = []string{"0%", "25%", "50%", "75%", "100%"}
)

// Assignment maps one question onto one cell of the evaluation matrix.
type Assignment struct {
	QuestionIndex int
	TargetDepth   float64
	DepthBin      string
	ContextLength int
}

// Scheduler produces deterministic assignment lists.
type Scheduler struct {
	mode           DepthMode
	fixedDepth     float64
	contextLengths []int
}

// NewScheduler validates the mode/parameter combination.
func NewScheduler(mode DepthMode, fixedDepth float64, contextLengths []int) (*Scheduler, error) {
	switch mode {
	case ModeLegacy, ModeUniform, ModeFixed:
	default:
		return nil, fmt.Errorf("unknown depth mode %q", mode)
	}
	if len(contextLengths) == 0 {
		return nil, fmt.Errorf("depth mode %s requires at least one context length", mode)
	}
	for _, l := range contextLengths {
		if l <= 0 {
			return nil, fmt.Errorf("context length must be positive, got %d", l)
		}
	}
	if mode == ModeFixed && (fixedDepth < 0 || fixedDepth > 1) {
		return nil, fmt.Errorf("fixed depth must be between 0 and 1, got %g", fixedDepth)
	}
	return &Scheduler{mode: mode, fixedDepth: fixedDepth, contextLengths: contextLengths}, nil
}

// Schedule assigns numQuestions questions to matrix cells. maxQuestions,
// when positive and smaller than the question count, first samples evenly
// spaced question indices so depth coverage stays balanced.
func (s *Scheduler) Schedule(numQuestions, maxQuestions int) []Assignment {
	indices := sampleIndices(numQuestions, maxQuestions)
	if len(indices) == 0 {
		return nil
	}

	var assignments []Assignment
	switch s.mode {
	case ModeLegacy:
		for _, qi := range indices {
			assignments = append(assignments, Assignment{
				QuestionIndex: qi,
				ContextLength: s.contextLengths[0],
			})
		}

	case ModeFixed:
		bin := closestDepthLabel(s.fixedDepth)
		for _, length := range s.contextLengths {
			for _, qi := range indices {
				assignments = append(assignments, Assignment{
					QuestionIndex: qi,
					TargetDepth:   s.fixedDepth,
					DepthBin:      bin,
					ContextLength: length,
				})
			}
		}

	case ModeUniform:
		totalCells := len(DepthBins) * len(s.contextLengths)
		for i, qi := range indices {
			cell := i % totalCells
			depthIdx := cell % len(DepthBins)
			lengthIdx := cell / len(DepthBins)
			assignments = append(assignments, Assignment{
				QuestionIndex: qi,
				TargetDepth:   DepthBins[depthIdx],
				DepthBin:      DepthLabels[depthIdx],
				ContextLength: s.contextLengths[lengthIdx],
			})
		}
	}

	sortAssignments(assignments)
	return assignments
}

// Mode reports the scheduling mode.
func (s *Scheduler) Mode() DepthMode { return s.mode }

// ContextLengths reports the configured lengths.
func (s *Scheduler) ContextLengths() []int { return s.contextLengths }

// sampleIndices returns every index, or maxQuestions evenly spaced ones.
func sampleIndices(total, maxQuestions int) []int {
	if total <= 0 {
		return nil
	}
	if maxQuestions <= 0 || maxQuestions >= total {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	indices := make([]int, maxQuestions)
	for i := range indices {
		indices[i] = i * total / maxQuestions
	}
	return indices
}

// closestDepthLabel maps an arbitrary depth to the nearest bin label.
func closestDepthLabel(depth float64) string {
	best := 0
	bestDiff := math.Inf(1)
	for i, bin := range DepthBins {
		if diff := math.Abs(depth - bin); diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return DepthLabels[best]
}

// depthLabelIndex orders bins for the deterministic assignment sort.
func depthLabelIndex(label string) int {
	for i, l := range DepthLabels {
		if l == label {
			return i
		}
	}
	return len(DepthLabels)
}

// sortAssignments orders by (context_length, depth_bin, question_index) so
// reruns over the same inputs replay identically.
func sortAssignments(assignments []Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.ContextLength != b.ContextLength {
			return a.ContextLength < b.ContextLength
		}
		if ai, bi := depthLabelIndex(a.DepthBin), depthLabelIndex(b.DepthBin); ai != bi {
			return ai < bi
		}
		return a.QuestionIndex < b.QuestionIndex
	})
}
