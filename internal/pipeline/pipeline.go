// Package pipeline orchestrates the complete contract review: ingestion,
// parallel analysis, the verification loop, deterministic scoring plus
// arbitration, and optional drafting. Stage outputs propagate through the
// case store; each stage writes its key before the next stage starts.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mkarpov/signwise/internal/capability"
	"github.com/mkarpov/signwise/internal/casestore"
	"github.com/mkarpov/signwise/internal/llm"
	"github.com/mkarpov/signwise/internal/model"
	"github.com/mkarpov/signwise/internal/score"
	"github.com/mkarpov/signwise/internal/verify"
)

// Document is one contract file submitted for review
type Document struct {
	Name string
	Data []byte
	MIME string
}

// text reports whether the document can be inlined into the prompt
func (d Document) text() (string, bool) {
	if d.MIME == "" || strings.HasPrefix(d.MIME, "text/") || d.MIME == "application/json" {
		return string(d.Data), true
	}
	return "", false
}

// Runner drives one case through the review stages
type Runner struct {
	invoker  *capability.Invoker
	store    casestore.Store
	scorer   *score.Scorer
	renderer *Renderer
	config   *model.Config
}

// NewRunner creates a runner with the given configuration
func NewRunner(cfg *model.Config) (*Runner, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize provider: %w", err)
	}
	store := casestore.NewMemoryStore(cfg.Store.TTL, cfg.Store.CleanupInterval)
	return newRunner(capability.NewInvoker(provider, store, cfg), store, cfg), nil
}

func newRunner(invoker *capability.Invoker, store casestore.Store, cfg *model.Config) *Runner {
	return &Runner{
		invoker:  invoker,
		store:    store,
		scorer:   score.NewScorer(),
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		config:   cfg,
	}
}

// Review runs the full pipeline over one document and assembles the report.
// Ingestion rejection is a designed terminal outcome: the report carries a
// rejection record and no later stage executes. Drafting failure degrades to
// a report without a draft.
func (r *Runner) Review(ctx context.Context, doc Document, withDraft bool) (*model.Report, error) {
	c := model.NewCase("local")
	defer r.cleanup(c.ID)

	report := &model.Report{
		CaseID:     c.ID,
		FileName:   doc.Name,
		ReviewedAt: time.Now().UTC(),
	}

	r.logf("[%s] ingesting %s", c.ID, doc.Name)
	ingestion, err := r.RunIngestion(ctx, c.ID, doc)
	if err != nil {
		return nil, err
	}
	if rejected, reason := ingestion.Rejected(); rejected {
		r.logf("[%s] rejected: %s", c.ID, reason)
		report.Rejection = &model.Rejection{
			CaseID: c.ID,
			Reason: reason,
			Unsafe: ingestion.IsContract && !ingestion.IsSafe,
		}
		return report, nil
	}
	report.ContractType = ingestion.ContractType
	report.FactSheet = ingestion.FactSheet

	r.logf("[%s] analyzing", c.ID)
	evidence, err := r.RunAnalysis(ctx, c.ID, ingestion.FactSheet, ingestion.FullText)
	if err != nil {
		return nil, err
	}

	r.logf("[%s] verifying %d risks, %d counters", c.ID, len(evidence.Claims), len(evidence.Counters))
	verified, err := r.RunVerification(ctx, c.ID, evidence, ingestion.FullText)
	if err != nil {
		return nil, err
	}
	report.Evidence = &verified

	breakdown := r.scorer.Score(verified.Claims, verified.Counters)
	report.Breakdown = &breakdown

	r.logf("[%s] arbitrating (baseline score %d)", c.ID, breakdown.Score)
	verdict, err := r.RunArbitration(ctx, c.ID, ingestion.FactSheet, verified)
	if err != nil {
		return nil, err
	}
	report.Verdict = verdict

	if withDraft {
		r.logf("[%s] drafting", c.ID)
		draft, err := r.RunDrafting(ctx, c.ID, verdict, r.config.Output.DraftTone)
		if err != nil {
			// The verdict stands without the toolkit
			fmt.Fprintf(os.Stderr, "Warning: drafting failed: %v\n", err)
		} else {
			report.Draft = draft
		}
	}

	return report, nil
}

// RunIngestion verifies the document is a reviewable contract and extracts
// its full text and fact sheet. Ingestion has no fallback: an unusable reply
// after retries is a pipeline-level failure.
func (r *Runner) RunIngestion(ctx context.Context, caseID string, doc Document) (*model.IngestionResult, error) {
	msg := capability.Message{Text: "Analyze the attached document."}
	if inline, ok := doc.text(); ok {
		msg = capability.Message{Text: "Analyze this document:\n\n" + inline}
	} else {
		msg.Attachment = doc.Data
		msg.AttachmentMIME = doc.MIME
	}

	output, err := r.invoker.Invoke(ctx, caseID, capability.Auditor, nil, msg)
	if err != nil {
		return nil, stageErr(caseID, "ingestion", err)
	}
	if len(output) == 0 {
		return nil, stageErr(caseID, "ingestion", fmt.Errorf("no usable output"))
	}

	var result model.IngestionResult
	if err := capability.DecodeInto(output, &result); err != nil {
		return nil, stageErr(caseID, "ingestion", fmt.Errorf("decode output: %w", err))
	}
	if result.FactSheet == nil {
		result.FactSheet = &model.FactSheet{}
	}
	result.FactSheet.FillMissing()
	return &result, nil
}

// RunAnalysis fans out the risk-finding and counter-research capabilities
// over the same fact sheet and fans in by waiting for both. The merge does
// not depend on finish order. Either side failing after retries fails the
// stage; a malformed reply on either side degrades to an empty list.
func (r *Runner) RunAnalysis(ctx context.Context, caseID string, factSheet *model.FactSheet, fullText string) (model.Evidence, error) {
	facts, err := json.Marshal(factSheet)
	if err != nil {
		return model.Evidence{}, stageErr(caseID, "analysis", err)
	}

	initial := map[string]any{
		"fact_sheet": string(facts),
		"full_text":  fullText,
	}
	prompt := fmt.Sprintf("FACT SHEET:\n%s\n\nFULL TEXT:\n%s", string(facts), fullText)

	var (
		wg                     sync.WaitGroup
		claimsOut, countersOut map[string]any
		claimsErr, countersErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		claimsOut, claimsErr = r.invoker.Invoke(ctx, caseID, capability.Skeptic, initial, capability.Message{Text: prompt})
	}()
	go func() {
		defer wg.Done()
		countersOut, countersErr = r.invoker.Invoke(ctx, caseID, capability.Advocate, initial, capability.Message{Text: prompt})
	}()
	wg.Wait()

	if claimsErr != nil {
		return model.Evidence{}, stageErr(caseID, "risk analysis", claimsErr)
	}
	if countersErr != nil {
		return model.Evidence{}, stageErr(caseID, "counter research", countersErr)
	}

	var evidence model.Evidence
	if len(claimsOut) > 0 {
		var claims model.Evidence
		if err := capability.DecodeInto(claimsOut, &claims); err == nil {
			evidence.Claims = claims.Claims
		}
	}
	if len(countersOut) > 0 {
		var counters model.Evidence
		if err := capability.DecodeInto(countersOut, &counters); err == nil {
			evidence.Counters = counters.Counters
		}
	}
	return evidence, nil
}

// RunVerification grounds the evidence against the source text through the
// bounded checker/corrector loop
func (r *Runner) RunVerification(ctx context.Context, caseID string, evidence model.Evidence, sourceText string) (model.Evidence, error) {
	if evidence.Empty() {
		return evidence, nil
	}

	controller := verify.NewController(
		verify.NewCapabilityChecker(r.invoker, caseID),
		verify.NewCapabilityCorrector(r.invoker, caseID),
		r.config.Verify.MaxIterations,
		r.config.Output.Verbose,
	)
	verified, err := controller.Run(ctx, evidence, sourceText)
	if err != nil {
		return evidence, stageErr(caseID, "verification", err)
	}
	return verified, nil
}

// RunArbitration obtains the final verdict, with the deterministic score
// breakdown as baseline, and enforces the label/score consistency rule:
// REJECT never carries a score at or above 60 (clamped below 60), ACCEPT
// never carries a score at or below 70 (one retry, then deterministic
// fallback).
func (r *Runner) RunArbitration(ctx context.Context, caseID string, factSheet *model.FactSheet, evidence model.Evidence) (*model.Verdict, error) {
	breakdown := r.scorer.Score(evidence.Claims, evidence.Counters)

	facts, _ := json.Marshal(factSheet)
	args, _ := json.Marshal(evidence)
	baseline, _ := json.Marshal(breakdown)

	prompt := fmt.Sprintf("FACT SHEET:\n%s\n\nARGUMENTS:\n%s\n\nDETERMINISTIC SCORE BASELINE:\n%s\n\nIssue the final verdict.",
		string(facts), string(args), string(baseline))

	verdict, err := r.invokeArbiter(ctx, caseID, prompt)
	if err != nil {
		return nil, stageErr(caseID, "arbitration", err)
	}

	if verdict == nil {
		return fallbackVerdict(breakdown), nil
	}

	if verdict.Label == model.VerdictReject && verdict.RiskScore >= 60 {
		verdict.RiskScore = clampRejectScore(breakdown.Score)
		return verdict, nil
	}

	if verdict.Label == model.VerdictAccept && verdict.RiskScore <= 70 {
		retryPrompt := fmt.Sprintf("Your previous verdict was ACCEPT with risk_score %d. An ACCEPT verdict requires a risk_score above 70. Re-evaluate and return a consistent verdict.\n\n%s",
			verdict.RiskScore, prompt)
		retried, err := r.invokeArbiter(ctx, caseID, retryPrompt)
		if err != nil {
			return nil, stageErr(caseID, "arbitration", err)
		}
		if retried == nil || (retried.Label == model.VerdictAccept && retried.RiskScore <= 70) {
			return fallbackVerdict(breakdown), nil
		}
		verdict = retried
		if verdict.Label == model.VerdictReject && verdict.RiskScore >= 60 {
			verdict.RiskScore = clampRejectScore(breakdown.Score)
		}
	}

	return verdict, nil
}

// invokeArbiter runs one arbitration call. A malformed or unrecognizable
// reply returns nil, nil: the caller's fallback policy decides what that
// means.
func (r *Runner) invokeArbiter(ctx context.Context, caseID, prompt string) (*model.Verdict, error) {
	output, err := r.invoker.Invoke(ctx, caseID, capability.Arbiter, nil, capability.Message{Text: prompt})
	if err != nil {
		return nil, err
	}
	if len(output) == 0 {
		return nil, nil
	}

	var verdict model.Verdict
	if err := capability.DecodeInto(output, &verdict); err != nil {
		return nil, nil
	}
	switch verdict.Label {
	case model.VerdictAccept, model.VerdictCaution, model.VerdictReject:
	default:
		return nil, nil
	}
	if verdict.RiskScore < 0 {
		verdict.RiskScore = 0
	}
	if verdict.RiskScore > 100 {
		verdict.RiskScore = 100
	}
	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 100 {
		verdict.Confidence = 100
	}
	return &verdict, nil
}

// RunDrafting generates the negotiation toolkit for a verdict. Tone is an
// optional instruction like "firm" or "collaborative".
func (r *Runner) RunDrafting(ctx context.Context, caseID string, verdict *model.Verdict, tone string) (*model.Draft, error) {
	v, err := json.Marshal(verdict)
	if err != nil {
		return nil, stageErr(caseID, "drafting", err)
	}

	prompt := fmt.Sprintf("FINAL VERDICT:\n%s\n\nGenerate the negotiation toolkit.", string(v))
	if tone != "" {
		prompt += "\nTONE: " + tone
	}

	output, err := r.invoker.Invoke(ctx, caseID, capability.Drafter, nil, capability.Message{Text: prompt})
	if err != nil {
		return nil, stageErr(caseID, "drafting", err)
	}

	var draft model.Draft
	if len(output) == 0 || capability.DecodeInto(output, &draft) != nil || draft.EmailBody == "" {
		return nil, stageErr(caseID, "drafting", fmt.Errorf("no usable output"))
	}
	return &draft, nil
}

// RenderReport writes the report to the requested outputs and prints the
// verdict summary to stdout
func (r *Runner) RenderReport(report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := r.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		r.logf("wrote JSON: %s", jsonPath)
	}
	if mdPath != "" {
		if err := r.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		r.logf("wrote Markdown: %s", mdPath)
	}
	r.renderer.RenderSummary(report)
	return nil
}

// cleanup tears down every capability scope owned by a completed case
func (r *Runner) cleanup(caseID string) {
	for _, cap := range []capability.Capability{
		capability.Auditor, capability.Skeptic, capability.Advocate,
		capability.Checker, capability.Corrector, capability.Arbiter,
		capability.Drafter,
	} {
		_ = r.invoker.Reset(caseID, cap)
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// stageErr attaches case id and stage name to a pipeline-level failure
func stageErr(caseID, stage string, err error) error {
	return fmt.Errorf("case %s: %s: %w", caseID, stage, err)
}

// clampRejectScore keeps a REJECT verdict's score below 60, preferring the
// deterministic baseline when it is already there
func clampRejectScore(baseline int) int {
	if baseline < 60 {
		return baseline
	}
	return 59
}

// fallbackVerdict builds a verdict directly from the deterministic breakdown
// when arbitration produces nothing usable
func fallbackVerdict(b model.ScoreBreakdown) *model.Verdict {
	factors := make([]string, 0, len(b.Ledger))
	points := make([]string, 0, len(b.Ledger))
	for _, entry := range b.Ledger {
		factors = append(factors, fmt.Sprintf("%s (%s)", entry.Headline, entry.Reason))
		if entry.Penalty < 0 {
			points = append(points, "Address: "+entry.Headline)
		}
	}
	return &model.Verdict{
		Label:      b.RecommendedVerdict,
		RiskScore:  b.Score,
		Confidence: b.Confidence,
		Summary: fmt.Sprintf("Deterministic assessment: safety score %d/100, recommendation %s.",
			b.Score, b.RecommendedVerdict.Display()),
		KeyFactors:        factors,
		NegotiationPoints: points,
	}
}
