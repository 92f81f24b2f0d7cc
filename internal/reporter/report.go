// internal/reporter/report.go
package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mwiater/hogbench/internal/tester"
)

// PrintSummary renders the run summary to a terminal.
func PrintSummary(out io.Writer, s Summary) {
	header := color.New(color.Bold, color.FgCyan)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	header.Fprintln(out, "Test Summary")
	fmt.Fprintf(out, "  Questions tested:   %d\n", s.TotalQuestions)
	fmt.Fprintf(out, "    single choice:    %d\n", s.SingleChoiceCount)
	fmt.Fprintf(out, "    multiple choice:  %d\n", s.MultipleChoiceCount)
	fmt.Fprintf(out, "    negative:         %d\n", s.NegativeQuestionCount)

	fmt.Fprintln(out, "  Parsing status:")
	for _, status := range []tester.ParsingStatus{
		tester.StatusSuccess, tester.StatusRegexExtracted, tester.StatusParsingError,
		tester.StatusTimeout, tester.StatusError, tester.StatusRefused, tester.StatusContextBuildError,
	} {
		count := s.ByStatus[status]
		if count == 0 {
			continue
		}
		line := fmt.Sprintf("    %-20s %d", string(status)+":", count)
		if status.Succeeded() {
			good.Fprintln(out, line)
		} else {
			bad.Fprintln(out, line)
		}
	}

	fmt.Fprintf(out, "  Average score:      %.4f\n", s.AverageScore)
	if s.SingleChoiceCount > 0 {
		fmt.Fprintf(out, "  Single accuracy:    %.4f\n", s.SingleChoiceAccuracy)
	}
	if s.MultipleChoiceCount+s.NegativeQuestionCount > 0 {
		fmt.Fprintf(out, "  Multi P/R/F1:       %.4f / %.4f / %.4f\n",
			s.MultiChoicePrecision, s.MultiChoiceRecall, s.MultiChoiceF1)
	}
}

// HeatmapReport bundles everything the heatmap command writes out.
type HeatmapReport struct {
	TotalTokens  int           `json:"total_tokens"`
	NumBins      int           `json:"num_bins"`
	PositionBins []PositionBin `json:"position_bins,omitempty"`
	DepthCells   []DepthCell   `json:"depth_cells,omitempty"`
	Summary      *Summary      `json:"summary,omitempty"`
}

// RenderMarkdown renders the report as markdown tables. Chart HTML is left
// to external tooling; these tables are the portable form of the data.
func (r HeatmapReport) RenderMarkdown() string {
	var b strings.Builder

	b.WriteString("# Long-Context Benchmark Report\n\n")

	if len(r.PositionBins) > 0 {
		b.WriteString("## Position bins\n\n")
		b.WriteString("| Range | Coverage | Accuracy | Count |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, bin := range r.PositionBins {
			acc := "-"
			if bin.Accuracy != nil {
				acc = fmt.Sprintf("%.3f", *bin.Accuracy)
			}
			fmt.Fprintf(&b, "| %d–%d | %.3f | %s | %d |\n", bin.StartPos, bin.EndPos, bin.Coverage, acc, bin.Count)
		}
		b.WriteString("\n")
	}

	if len(r.DepthCells) > 0 {
		b.WriteString("## Depth × context length\n\n")
		b.WriteString("| Context length | Depth bin | Accuracy | Count |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, cell := range r.DepthCells {
			acc := "-"
			if cell.Accuracy != nil {
				acc = fmt.Sprintf("%.3f", *cell.Accuracy)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %d |\n", cell.ContextLength, cell.DepthBin, acc, cell.Count)
		}
		b.WriteString("\n")
	}

	if r.Summary != nil {
		b.WriteString("## Run summary\n\n")
		fmt.Fprintf(&b, "- Questions: %d\n", r.Summary.TotalQuestions)
		fmt.Fprintf(&b, "- Average score: %.4f\n", r.Summary.AverageScore)
		if r.Summary.SingleChoiceCount > 0 {
			fmt.Fprintf(&b, "- Single-choice accuracy: %.4f\n", r.Summary.SingleChoiceAccuracy)
		}
		if r.Summary.MultipleChoiceCount+r.Summary.NegativeQuestionCount > 0 {
			fmt.Fprintf(&b, "- Multi-choice F1: %.4f\n", r.Summary.MultiChoiceF1)
		}
	}

	return b.String()
}
