// internal/commands/precheck.go
package hogbench

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/hogbench/internal/question"
)

type precheckOptions struct {
	dataSet        string
	skipValidation bool
	ignoreInvalid  bool
}

var precheckOpts precheckOptions

// precheckCmd runs the validation gate without issuing any model calls.
var precheckCmd = &cobra.Command{
	Use:   "precheck",
	Short: "Verify a question set is ready for testing",
	Long: `Load a question set and apply the same validation gate the test command
uses, so misconfigured data is caught before any paid model call.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := question.LoadSet(precheckOpts.dataSet)
		if err != nil {
			return err
		}

		valid, _, err := question.Check(set.Questions, precheckOpts.skipValidation, precheckOpts.ignoreInvalid)
		if err != nil {
			return err
		}

		good := color.New(color.FgGreen)
		good.Fprintf(cmd.OutOrStdout(), "Pre-check passed: %d/%d questions ready", len(valid), len(set.Questions))
		fmt.Fprintln(cmd.OutOrStdout())
		if set.Skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "(%d malformed lines were skipped at load)\n", set.Skipped)
		}
		return nil
	},
}

func init() {
	precheckCmd.Flags().StringVar(&precheckOpts.dataSet, "data_set", "", "path to the question set JSONL file (required)")
	precheckCmd.Flags().BoolVar(&precheckOpts.skipValidation, "skip-validation", false, "allow questions without validation metadata")
	precheckCmd.Flags().BoolVar(&precheckOpts.ignoreInvalid, "ignore-invalid", false, "drop questions with is_valid=false instead of failing")

	_ = precheckCmd.MarkFlagRequired("data_set")

	rootCmd.AddCommand(precheckCmd)
}
