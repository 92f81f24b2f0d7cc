// internal/commands/heatmap.go
package hogbench

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/hogbench/internal/fileio"
	"github.com/mwiater/hogbench/internal/question"
	"github.com/mwiater/hogbench/internal/reporter"
	"github.com/mwiater/hogbench/internal/tester"
	"github.com/mwiater/hogbench/internal/tokenizer"
	"github.com/mwiater/hogbench/internal/util"
)

type heatmapOptions struct {
	questions   string
	results     string
	novel       string
	novelTokens int
	bins        int
	output      string
	markdown    string
}

var heatmapOpts heatmapOptions

// heatmapCmd reduces a question set and/or result file into position bins
// and the depth × context-length matrix.
var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Aggregate questions and results into heatmap bins",
	Long: `Compute the 1-D coverage/accuracy position bins and the 2-D depth by
context-length accuracy matrix from a question set and a result file, and
write them as JSON and markdown tables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if heatmapOpts.questions == "" && heatmapOpts.results == "" {
			return usageErrorf("at least one of --questions or --results is required")
		}
		if heatmapOpts.novel == "" && heatmapOpts.novelTokens <= 0 {
			return usageErrorf("either --novel or --novel-tokens is required to size the position bins")
		}

		totalTokens := heatmapOpts.novelTokens
		if totalTokens <= 0 {
			tok, err := tokenizer.New(tokenizer.DefaultEncoding)
			if err != nil {
				return err
			}
			text, err := fileio.ReadNovel(heatmapOpts.novel)
			if err != nil {
				return err
			}
			totalTokens = tok.Count(text)
		}

		var positions []question.Position
		if heatmapOpts.questions != "" {
			set, err := question.LoadSet(heatmapOpts.questions)
			if err != nil {
				return err
			}
			for _, q := range set.Questions {
				positions = append(positions, q.Position)
			}
		}

		var results []tester.Result
		if heatmapOpts.results != "" {
			prior, err := tester.LoadPriorResults(heatmapOpts.results)
			if err != nil {
				return err
			}
			results = prior
			if len(positions) == 0 {
				for _, r := range results {
					positions = append(positions, r.Position)
				}
			}
		}

		bins, err := reporter.PositionBins(positions, results, totalTokens, heatmapOpts.bins)
		if err != nil {
			return err
		}

		report := reporter.HeatmapReport{
			TotalTokens:  totalTokens,
			NumBins:      heatmapOpts.bins,
			PositionBins: bins,
		}
		if len(results) > 0 {
			if lengths := reporter.ResultContextLengths(results); len(lengths) > 0 {
				report.DepthCells = reporter.DepthCells(results, lengths)
			}
			summary := reporter.Summarize(results)
			report.Summary = &summary
		}

		if heatmapOpts.output != "" {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			if err := util.WriteFile(heatmapOpts.output, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Heatmap data written to %s\n", heatmapOpts.output)
		}

		markdown := report.RenderMarkdown()
		if heatmapOpts.markdown != "" {
			if err := util.WriteFile(heatmapOpts.markdown, []byte(markdown)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Markdown report written to %s\n", heatmapOpts.markdown)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), markdown)
		}
		return nil
	},
}

func init() {
	heatmapCmd.Flags().StringVar(&heatmapOpts.questions, "questions", "", "question set JSONL for coverage bins")
	heatmapCmd.Flags().StringVar(&heatmapOpts.results, "results", "", "result JSONL for accuracy bins and depth cells")
	heatmapCmd.Flags().StringVar(&heatmapOpts.novel, "novel", "", "novel file used to size the position bins")
	heatmapCmd.Flags().IntVar(&heatmapOpts.novelTokens, "novel-tokens", 0, "novel length in tokens (skips tokenizing --novel)")
	heatmapCmd.Flags().IntVar(&heatmapOpts.bins, "bins", 50, "number of position bins")
	heatmapCmd.Flags().StringVar(&heatmapOpts.output, "output", "", "write heatmap data JSON to this path")
	heatmapCmd.Flags().StringVar(&heatmapOpts.markdown, "markdown", "", "write the markdown report to this path")

	rootCmd.AddCommand(heatmapCmd)
}
