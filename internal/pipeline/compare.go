package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mkarpov/signwise/internal/capability"
	"github.com/mkarpov/signwise/internal/model"
)

// Comparator runs two complete pipelines concurrently and arbitrates their
// terminal verdicts. Each side owns a disjoint case; the only
// synchronization point is awaiting both verdicts.
type Comparator struct {
	runner *Runner
}

// NewComparator creates a comparator over an existing runner
func NewComparator(runner *Runner) *Comparator {
	return &Comparator{runner: runner}
}

// Compare reviews both documents and produces the comparative report.
// A side rejected on safety grounds feeds the worst-case synthetic verdict
// into the comparison instead of aborting it; a side that is not a contract
// at all fails the comparison, since there is nothing to compare.
func (c *Comparator) Compare(ctx context.Context, docA, docB Document) (*model.ComparisonReport, error) {
	type side struct {
		report *model.Report
		err    error
	}
	var (
		wg   sync.WaitGroup
		a, b side
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.report, a.err = c.runner.Review(ctx, docA, false)
	}()
	go func() {
		defer wg.Done()
		b.report, b.err = c.runner.Review(ctx, docB, false)
	}()
	wg.Wait()

	if a.err != nil {
		return nil, fmt.Errorf("contract A: %w", a.err)
	}
	if b.err != nil {
		return nil, fmt.Errorf("contract B: %w", b.err)
	}

	verdictA, err := sideVerdict(a.report)
	if err != nil {
		return nil, fmt.Errorf("contract A: %w", err)
	}
	verdictB, err := sideVerdict(b.report)
	if err != nil {
		return nil, fmt.Errorf("contract B: %w", err)
	}

	result, err := c.CompareVerdicts(ctx, verdictA, verdictB)
	if err != nil {
		return nil, err
	}

	report := &model.ComparisonReport{
		CaseIDA:    a.report.CaseID,
		CaseIDB:    b.report.CaseID,
		ReviewedAt: time.Now().UTC(),
		VerdictA:   verdictA,
		VerdictB:   verdictB,
		Result:     result,
	}

	draft, err := c.draftBrief(ctx, result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: comparison drafting failed: %v\n", err)
	} else {
		report.Draft = draft
	}

	return report, nil
}

// CompareVerdicts arbitrates two terminal verdicts into a relative risk
// judgment. An unusable arbitration reply degrades to the deterministic
// score comparison.
func (c *Comparator) CompareVerdicts(ctx context.Context, a, b *model.Verdict) (*model.ComparisonResult, error) {
	caseID := model.NewCase("comparison").ID
	defer func() {
		_ = c.runner.invoker.Reset(caseID, capability.Comparator)
	}()

	va, _ := json.Marshal(a)
	vb, _ := json.Marshal(b)
	prompt := fmt.Sprintf("CONTRACT A VERDICT:\n%s\n\nCONTRACT B VERDICT:\n%s\n\nProvide the comparative analysis.",
		string(va), string(vb))

	output, err := c.runner.invoker.Invoke(ctx, caseID, capability.Comparator, nil, capability.Message{Text: prompt})
	if err != nil {
		return nil, stageErr(caseID, "comparison", err)
	}

	var result model.ComparisonResult
	if len(output) == 0 || capability.DecodeInto(output, &result) != nil || result.LowerRiskSide == "" {
		return deterministicComparison(a, b), nil
	}
	return &result, nil
}

// draftBrief generates the decision brief for a comparison result
func (c *Comparator) draftBrief(ctx context.Context, result *model.ComparisonResult) (*model.Draft, error) {
	caseID := model.NewCase("comparison").ID
	defer func() {
		_ = c.runner.invoker.Reset(caseID, capability.ComparisonDrafter)
	}()

	res, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("COMPARISON RESULT:\n%s\n\nGenerate the decision brief.", string(res))

	output, err := c.runner.invoker.Invoke(ctx, caseID, capability.ComparisonDrafter, nil, capability.Message{Text: prompt})
	if err != nil {
		return nil, err
	}

	var draft model.Draft
	if len(output) == 0 || capability.DecodeInto(output, &draft) != nil || draft.EmailBody == "" {
		return nil, fmt.Errorf("no usable output")
	}
	return &draft, nil
}

// sideVerdict resolves one side's verdict for comparison. Safety rejections
// carry the worst-case synthetic verdict forward so the other side's
// analysis is not wasted.
func sideVerdict(report *model.Report) (*model.Verdict, error) {
	if report.Rejection != nil {
		if report.Rejection.Unsafe {
			return model.SyntheticRejectVerdict(report.Rejection.Reason), nil
		}
		return nil, fmt.Errorf("cannot compare: %s", report.Rejection.Reason)
	}
	if report.Verdict == nil {
		return nil, fmt.Errorf("review produced no verdict")
	}
	return report.Verdict, nil
}

// deterministicComparison falls back to the numeric scores. A REJECT side
// is the higher-risk option regardless of its score.
func deterministicComparison(a, b *model.Verdict) *model.ComparisonResult {
	lower := "Contract A"
	rejectA := a.Label == model.VerdictReject
	rejectB := b.Label == model.VerdictReject
	switch {
	case rejectA && !rejectB:
		lower = "Contract B"
	case rejectB && !rejectA:
		lower = "Contract A"
	case b.RiskScore > a.RiskScore:
		lower = "Contract B"
	}

	return &model.ComparisonResult{
		LowerRiskSide: lower,
		Summary: fmt.Sprintf("Contract A scored %d/100 (%s) and Contract B scored %d/100 (%s). %s carries the lower relative risk by these measures.",
			a.RiskScore, a.Label.Display(), b.RiskScore, b.Label.Display(), lower),
		KeyDifferences: []model.ComparisonPoint{
			{
				Category:       "Overall Risk Score",
				SideA:          fmt.Sprintf("%d/100, %s", a.RiskScore, a.Label.Display()),
				SideB:          fmt.Sprintf("%d/100, %s", b.RiskScore, b.Label.Display()),
				RiskAssessment: "Scores read as safety scores: a higher score indicates lower relative risk.",
			},
		},
	}
}
