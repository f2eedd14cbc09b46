package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkarpov/signwise/internal/pipeline"
	"github.com/mkarpov/signwise/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchDraft   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Review every contract in a directory in parallel",
	Long: `Batch reviews the supported contract files in a directory:
- Process files in parallel with a configurable worker count
- Generate an individual JSON and Markdown report per contract
- Capability calls share one rate limiter across all workers

Example:
  signwise batch ./contracts
  signwise batch ./contracts --concurrency 8 --output-dir ./reports
  signwise batch ./contracts --draft`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent reviews")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./signwise-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 60*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchDraft, "draft", false, "draft a negotiation email per verdict")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	addProviderFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.BatchWorkers = concurrency

	fmt.Fprintf(os.Stderr, "Batch review\n")
	fmt.Fprintf(os.Stderr, "  Input dir:   %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Workers:     %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:  %s\n\n", outputDir)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(runner, concurrency, batchDraft)
	results, err := processor.ProcessDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("process directory: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	succeeded, failed := 0, 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", result.Path, result.Error)
			continue
		}

		slug := reportSlug(result.Path)
		if err := renderer.RenderJSON(result.Report, filepath.Join(outputDir, slug+".json")); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, filepath.Join(outputDir, slug+".md")); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: write Markdown: %v\n", result.Path, err)
			continue
		}

		succeeded++
		if result.Report.Rejection != nil {
			fmt.Fprintf(os.Stderr, "SKIP %s: %s\n", result.Path, result.Report.Rejection.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "OK   %s: %s (%d/100)\n", result.Path,
				result.Report.Verdict.Label.Display(), result.Report.Verdict.RiskScore)
		}
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d total, %d succeeded, %d failed. Reports in %s\n",
		len(results), succeeded, failed, outputDir)
	return nil
}

// reportSlug derives a report file name from a contract path
func reportSlug(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	slug := replacer.Replace(base)
	if len(slug) > 100 {
		slug = slug[:100]
	}
	return slug
}
