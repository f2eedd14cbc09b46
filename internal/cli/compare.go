package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mkarpov/signwise/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	compareJSON    string
	compareMD      string
	compareTimeout time.Duration
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <fileA> <fileB>",
	Short: "Compare two contracts head to head",
	Long: `Compare runs two complete reviews concurrently and arbitrates their
verdicts into a relative risk analysis. It never names a winner; the output
is a set of risk observations for your own decision.

Example:
  signwise compare offer-a.pdf offer-b.pdf
  signwise compare lease-1.txt lease-2.txt --json comparison.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareJSON, "json", "comparison.json", "output JSON path")
	compareCmd.Flags().StringVar(&compareMD, "md", "", "output Markdown path (optional)")
	compareCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	compareCmd.Flags().DurationVar(&compareTimeout, "timeout", 20*time.Minute, "overall comparison timeout")
	addProviderFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), compareTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	docA, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	docB, err := loadDocument(args[1])
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Comparing: %s vs %s\n\n", docA.Name, docB.Name)
	}

	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}

	report, err := pipeline.NewComparator(runner).Compare(ctx, docA, docB)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if compareJSON != "" {
		if err := renderer.RenderComparisonJSON(report, compareJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if compareMD != "" {
		if err := renderer.RenderComparisonMarkdown(report, compareMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	renderer.RenderComparisonSummary(report)
	return nil
}
