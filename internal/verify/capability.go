package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mkarpov/signwise/internal/capability"
	"github.com/mkarpov/signwise/internal/model"
)

// CapabilityChecker grounds evidence with the checker capability, layered
// over the deterministic grounder: literal contradictions the grounder finds
// are appended to the model's objections and force a DIRTY result, so a
// model that misses a hallucinated figure cannot wave it through.
type CapabilityChecker struct {
	invoker  *capability.Invoker
	grounder *Grounder
	caseID   string
}

// NewCapabilityChecker creates a checker bound to one case
func NewCapabilityChecker(invoker *capability.Invoker, caseID string) *CapabilityChecker {
	return &CapabilityChecker{
		invoker:  invoker,
		grounder: NewGrounder(),
		caseID:   caseID,
	}
}

// Check implements Checker
func (c *CapabilityChecker) Check(ctx context.Context, evidence model.Evidence, sourceText string) (*CheckResult, error) {
	args, err := json.Marshal(evidence)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	initial := map[string]any{
		"current_arguments": string(args),
		"full_text":         sourceText,
	}
	prompt := fmt.Sprintf("EVIDENCE (FULL TEXT):\n%s\n\nCURRENT ARGUMENTS:\n%s\n\nVerify these arguments.",
		sourceText, string(args))

	output, err := c.invoker.Invoke(ctx, c.caseID, capability.Checker, initial, capability.Message{Text: prompt})
	if err != nil {
		return nil, err
	}

	var result CheckResult
	if len(output) > 0 {
		if err := capability.DecodeInto(output, &result); err != nil {
			result = CheckResult{}
		}
	}

	// Grounder objections are non-negotiable
	deterministic := c.grounder.Check(evidence, sourceText)
	if len(deterministic) > 0 {
		result.Status = StatusDirty
		result.Corrections = append(result.Corrections, deterministic...)
		result.Verified = nil
	}

	// A reply with no usable status degrades to the grounder's view
	if result.Status != StatusClean && result.Status != StatusDirty {
		if len(deterministic) == 0 {
			snapshot := evidence
			result = CheckResult{Status: StatusClean, Verified: &snapshot}
		} else {
			result.Status = StatusDirty
		}
	}

	return &result, nil
}

// CapabilityCorrector resolves checker objections with the corrector
// capability. When the model reply is unusable it degrades to deleting the
// flagged items, which is always a grounded correction.
type CapabilityCorrector struct {
	invoker *capability.Invoker
	caseID  string
}

// NewCapabilityCorrector creates a corrector bound to one case
func NewCapabilityCorrector(invoker *capability.Invoker, caseID string) *CapabilityCorrector {
	return &CapabilityCorrector{invoker: invoker, caseID: caseID}
}

// Correct implements Corrector
func (c *CapabilityCorrector) Correct(ctx context.Context, evidence model.Evidence, result *CheckResult, sourceText string) (model.Evidence, error) {
	verdict, err := json.Marshal(result)
	if err != nil {
		return dropFlagged(evidence, result.Corrections), nil
	}
	args, err := json.Marshal(evidence)
	if err != nil {
		return dropFlagged(evidence, result.Corrections), nil
	}

	prompt := fmt.Sprintf("CHECKER VERDICT:\n%s\n\nCURRENT ARGUMENTS:\n%s\n\nFix the arguments.",
		string(verdict), string(args))

	output, err := c.invoker.Invoke(ctx, c.caseID, capability.Corrector, nil, capability.Message{Text: prompt})
	if err != nil {
		return model.Evidence{}, err
	}

	var corrected model.Evidence
	if len(output) == 0 || capability.DecodeInto(output, &corrected) != nil || corrected.Empty() {
		return dropFlagged(evidence, result.Corrections), nil
	}
	return corrected, nil
}

// dropFlagged returns a new evidence value with every flagged item removed
func dropFlagged(evidence model.Evidence, corrections []Correction) model.Evidence {
	flaggedClaims := make(map[int]bool)
	flaggedCounters := make(map[int]bool)
	for _, corr := range corrections {
		id := strings.ToUpper(strings.TrimSpace(corr.ID))
		if len(id) < 2 {
			continue
		}
		n, err := strconv.Atoi(id[1:])
		if err != nil || n < 1 {
			continue
		}
		switch id[0] {
		case 'R':
			flaggedClaims[n-1] = true
		case 'C':
			flaggedCounters[n-1] = true
		}
	}

	out := model.Evidence{}
	for i, claim := range evidence.Claims {
		if !flaggedClaims[i] {
			out.Claims = append(out.Claims, claim)
		}
	}
	for i, counter := range evidence.Counters {
		if !flaggedCounters[i] {
			out.Counters = append(out.Counters, counter)
		}
	}
	return out
}
