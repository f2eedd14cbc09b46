package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkarpov/signwise/internal/model"
	"github.com/mkarpov/signwise/internal/pipeline"
	"github.com/mkarpov/signwise/internal/worker"
	"github.com/spf13/cobra"
)

var (
	outJSON      string
	outMD        string
	timeout      time.Duration
	noFooter     bool
	withDraft    bool
	draftTone    string
	llmProvider  string
	auditorModel string
	workerModel  string
	judgeModel   string
	maxIter      int
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <file>",
	Short: "Review a single contract and generate a risk report",
	Long: `Review analyzes one contract document:
- Verify the document is a contract and extract its fact sheet
- Hunt for risky and missing terms, research defending context
- Ground every finding against the document text
- Calculate a deterministic risk score and issue a final verdict
- Optionally draft a negotiation email

Example:
  signwise review lease.pdf
  signwise review nda.txt --json report.json --md report.md
  signwise review contract.pdf --draft --tone firm`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	// Output flags
	reviewCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	reviewCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	reviewCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Review flags
	reviewCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall review timeout")
	reviewCmd.Flags().BoolVar(&withDraft, "draft", false, "draft a negotiation email from the verdict")
	reviewCmd.Flags().StringVar(&draftTone, "tone", "", "drafting tone (e.g. firm, collaborative)")
	reviewCmd.Flags().IntVar(&maxIter, "max-verify-rounds", 2, "verification loop iteration ceiling")

	// Provider flags
	addProviderFlags(reviewCmd)
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&llmProvider, "provider", "openai", "capability provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&auditorModel, "auditor-model", "gpt-4o", "model for ingestion and extraction")
	cmd.Flags().StringVar(&workerModel, "worker-model", "gpt-4o-mini", "model for analysis, verification, drafting")
	cmd.Flags().StringVar(&judgeModel, "judge-model", "gpt-4o", "model for arbitration and comparison")
}

// buildConfig assembles the runtime configuration from flags and environment
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = llmProvider
	cfg.LLM.AuditorModel = auditorModel
	cfg.LLM.WorkerModel = workerModel
	cfg.LLM.JudgeModel = judgeModel
	cfg.Verify.MaxIterations = maxIter
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	cfg.Output.DraftTone = draftTone

	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	default:
		return nil, fmt.Errorf("unknown provider: %s", llmProvider)
	}

	return cfg, nil
}

// loadDocument reads a contract file into a pipeline document
func loadDocument(path string) (pipeline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	mime := worker.DetectMIME(path)
	if mime == "" {
		return pipeline.Document{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	return pipeline.Document{
		Name: filepath.Base(path),
		Data: data,
		MIME: mime,
	}, nil
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Reviewing: %s\n", doc.Name)
		fmt.Fprintf(os.Stderr, "Provider: %s\n\n", cfg.LLM.Provider)
	}

	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}

	report, err := runner.Review(ctx, doc, withDraft)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	if err := runner.RenderReport(report, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
