// internal/commands/test.go
package hogbench

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mwiater/hogbench/internal/reporter"
	"github.com/mwiater/hogbench/internal/tester"
)

type testOptions struct {
	novel          string
	dataSet        string
	output         string
	concurrency    int
	contextLength  int
	contextLengths []int
	depthMode      string
	depth          float64
	paddingSize    int
	maxQuestions   int
	recovery       string
	skipValidation bool
	ignoreInvalid  bool
	noReference    bool
	promptDir      string
	noTUI          bool
}

var testOpts testOptions

// testCmd executes the question set against the target model.
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the question set against the target model",
	Long: `Load a validated question set, build contexts that place each question's
evidence at scheduled depths inside scheduled context lengths, drive the
target model concurrently, and write scored results as JSONL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateTestFlags(cmd); err != nil {
			return err
		}

		cfg := *GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.Debug {
			appconfigShow(cmd)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := tester.TestOptions{
			NovelPath:       testOpts.novel,
			QuestionSetPath: testOpts.dataSet,
			OutputPath:      testOpts.output,
			Concurrency:     testOpts.concurrency,
			ContextLength:   testOpts.contextLength,
			ContextLengths:  testOpts.contextLengths,
			DepthMode:       tester.DepthMode(testOpts.depthMode),
			Depth:           testOpts.depth,
			PaddingSize:     testOpts.paddingSize,
			MaxQuestions:    testOpts.maxQuestions,
			RecoveryPath:    testOpts.recovery,
			SkipValidation:  testOpts.skipValidation,
			IgnoreInvalid:   testOpts.ignoreInvalid,
			NoReference:     testOpts.noReference,
			PromptDir:       testOpts.promptDir,
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var monitor *tuiMonitor
		if !testOpts.noTUI && isatty.IsTerminal(os.Stdout.Fd()) {
			monitor = newTUIMonitor(cfg.ModelName, cancel)
			opts.OnResult = monitor.observe
		}

		results, _, err := tester.RunTests(ctx, cfg, opts)
		if monitor != nil {
			monitor.finish()
		}

		if err != nil {
			if errors.Is(err, tester.ErrInsufficientSource) {
				printPartialSummary(cmd, results)
				return &ExitError{Code: ExitInsufficientSource, Err: err}
			}
			return err
		}

		reporter.PrintSummary(cmd.OutOrStdout(), reporter.Summarize(results))
		return nil
	},
}

func printPartialSummary(cmd *cobra.Command, results []tester.Result) {
	if len(results) > 0 {
		reporter.PrintSummary(cmd.OutOrStdout(), reporter.Summarize(results))
	}
}

// validateTestFlags rejects invalid flag combinations before anything is
// loaded.
func validateTestFlags(cmd *cobra.Command) error {
	mode := tester.DepthMode(testOpts.depthMode)

	if testOpts.noReference {
		if len(testOpts.contextLengths) > 0 {
			return usageErrorf("--no-reference cannot be combined with --context-lengths")
		}
		if cmd.Flags().Changed("depth-mode") || cmd.Flags().Changed("depth") {
			return usageErrorf("--no-reference cannot be combined with depth flags")
		}
		return nil
	}

	if testOpts.novel == "" {
		return usageErrorf("--novel is required unless --no-reference is set")
	}

	switch mode {
	case tester.ModeLegacy:
		if testOpts.contextLength <= 0 {
			return usageErrorf("--depth-mode legacy requires --context_length")
		}
		if len(testOpts.contextLengths) > 0 {
			return usageErrorf("--depth-mode legacy uses --context_length, not --context-lengths")
		}
	case tester.ModeUniform, tester.ModeFixed:
		if len(testOpts.contextLengths) == 0 {
			return usageErrorf("--depth-mode %s requires --context-lengths", mode)
		}
		if mode == tester.ModeFixed && !cmd.Flags().Changed("depth") {
			return usageErrorf("--depth-mode fixed requires --depth")
		}
		if testOpts.depth < 0 || testOpts.depth > 1 {
			return usageErrorf("--depth must be between 0 and 1, got %g", testOpts.depth)
		}
	default:
		return usageErrorf("unknown --depth-mode %q", testOpts.depthMode)
	}
	return nil
}

func init() {
	testCmd.Flags().StringVar(&testOpts.novel, "novel", "", "path to the source novel text file")
	testCmd.Flags().StringVar(&testOpts.dataSet, "data_set", "", "path to the question set JSONL file (required)")
	testCmd.Flags().StringVar(&testOpts.output, "output", "", "output path for test results (required)")
	testCmd.Flags().IntVar(&testOpts.concurrency, "concurrency", 0, "worker pool size (defaults to config)")
	testCmd.Flags().IntVar(&testOpts.contextLength, "context_length", 0, "context length in tokens (legacy mode)")
	testCmd.Flags().IntSliceVar(&testOpts.contextLengths, "context-lengths", nil, "comma-separated context lengths for depth-aware testing")
	testCmd.Flags().StringVar(&testOpts.depthMode, "depth-mode", string(tester.ModeLegacy), "depth scheduling mode: legacy, uniform, or fixed")
	testCmd.Flags().Float64Var(&testOpts.depth, "depth", 0, "evidence depth in [0,1] for fixed mode")
	testCmd.Flags().IntVar(&testOpts.paddingSize, "padding_size", 500, "padding tokens around the evidence span")
	testCmd.Flags().IntVar(&testOpts.maxQuestions, "max-questions", 0, "cap the number of questions tested (0 = all)")
	testCmd.Flags().StringVar(&testOpts.recovery, "recovery", "", "prior result file to resume from")
	testCmd.Flags().BoolVar(&testOpts.skipValidation, "skip-validation", false, "allow questions without validation metadata")
	testCmd.Flags().BoolVar(&testOpts.ignoreInvalid, "ignore-invalid", false, "drop questions with is_valid=false instead of failing")
	testCmd.Flags().BoolVar(&testOpts.noReference, "no-reference", false, "answer from the question set's novel summary instead of built contexts")
	testCmd.Flags().StringVar(&testOpts.promptDir, "prompts", "", "directory with prompt template overrides")
	testCmd.Flags().BoolVar(&testOpts.noTUI, "no-tui", false, "disable the live progress view")

	_ = testCmd.MarkFlagRequired("data_set")
	_ = testCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(testCmd)
}
