// internal/reporter/heatmap.go
// Package reporter reduces questions and results into heatmap bins and
// renders run summaries. The reductions are pure: no I/O, no randomness.
package reporter

import (
	"fmt"
	"sort"

	"github.com/mwiater/hogbench/internal/question"
	"github.com/mwiater/hogbench/internal/tester"
)

// PositionBin is one cell of the 1-D position heatmaps. Accuracy is nil
// when no question starts inside the bin.
type PositionBin struct {
	StartPos int      `json:"start_pos"`
	EndPos   int      `json:"end_pos"`
	Coverage float64  `json:"coverage"`
	Accuracy *float64 `json:"accuracy"`
	Count    int      `json:"count"`
}

// DepthCell is one cell of the 2-D depth × context-length heatmap.
type DepthCell struct {
	ContextLength int      `json:"context_length"`
	DepthBin      string   `json:"depth_bin"`
	Accuracy      *float64 `json:"accuracy"`
	Count         int      `json:"count"`
}

// PositionBins computes the 1-D coverage and accuracy maps over a source of
// totalTokens tokens split into numBins equal bins.
//
// Coverage adds each question's proportional span overlap to every bin it
// touches and then divides by the total question count, so one question's
// contributions across all bins sum to exactly 1. Accuracy is the mean
// score of the results whose span starts inside the bin.
func PositionBins(questions []question.Position, results []tester.Result, totalTokens, numBins int) ([]PositionBin, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("num bins must be positive, got %d", numBins)
	}
	if totalTokens <= 0 {
		return nil, fmt.Errorf("total tokens must be positive, got %d", totalTokens)
	}

	bins := make([]PositionBin, numBins)
	for i := range bins {
		bins[i].StartPos = i * totalTokens / numBins
		bins[i].EndPos = (i + 1) * totalTokens / numBins
	}
	bins[numBins-1].EndPos = totalTokens

	if len(questions) > 0 {
		for _, pos := range questions {
			span := pos.EndPos - pos.StartPos
			if span <= 0 {
				continue
			}
			for i := range bins {
				overlapStart := max(pos.StartPos, bins[i].StartPos)
				overlapEnd := min(pos.EndPos, bins[i].EndPos)
				if overlap := overlapEnd - overlapStart; overlap > 0 {
					bins[i].Coverage += float64(overlap) / float64(span)
				}
			}
		}
		for i := range bins {
			bins[i].Coverage /= float64(len(questions))
		}
	}

	sums := make([]float64, numBins)
	for _, r := range results {
		start := r.Position.StartPos
		if start < 0 || start >= totalTokens {
			continue
		}
		// First bin whose end lies past the span start; truncated bin
		// boundaries make a plain start*B/N off by one at the seams.
		idx := sort.Search(numBins, func(i int) bool { return bins[i].EndPos > start })
		if idx >= numBins {
			idx = numBins - 1
		}
		sums[idx] += r.Score
		bins[idx].Count++
	}
	for i := range bins {
		if bins[i].Count > 0 {
			acc := sums[i] / float64(bins[i].Count)
			bins[i].Accuracy = &acc
		}
	}

	return bins, nil
}

// DepthCells reduces depth-aware results into the full
// |contextLengths| × |DepthLabels| matrix, including empty cells.
func DepthCells(results []tester.Result, contextLengths []int) []DepthCell {
	type cellKey struct {
		length int
		bin    string
	}
	sums := map[cellKey]float64{}
	counts := map[cellKey]int{}

	for _, r := range results {
		if r.TestMode != tester.ModeWithReference || r.DepthBin == "" {
			continue
		}
		key := cellKey{length: r.TestContextLength, bin: r.DepthBin}
		sums[key] += r.Score
		counts[key]++
	}

	cells := make([]DepthCell, 0, len(contextLengths)*len(tester.DepthLabels))
	for _, length := range contextLengths {
		for _, label := range tester.DepthLabels {
			key := cellKey{length: length, bin: label}
			cell := DepthCell{ContextLength: length, DepthBin: label, Count: counts[key]}
			if cell.Count > 0 {
				acc := sums[key] / float64(cell.Count)
				cell.Accuracy = &acc
			}
			cells = append(cells, cell)
		}
	}
	return cells
}

// ResultContextLengths lists the distinct context lengths present in
// depth-aware results, in ascending order.
func ResultContextLengths(results []tester.Result) []int {
	seen := map[int]bool{}
	var lengths []int
	for _, r := range results {
		if r.TestMode != tester.ModeWithReference || r.TestContextLength == 0 {
			continue
		}
		if !seen[r.TestContextLength] {
			seen[r.TestContextLength] = true
			lengths = append(lengths, r.TestContextLength)
		}
	}
	sort.Ints(lengths)
	return lengths
}
