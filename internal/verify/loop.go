// Package verify implements the bounded evidence-grounding loop: a checker
// grounds claims and counters against the source document, a corrector
// rewrites or deletes ungrounded items, and the controller alternates the
// two until the evidence is clean or the iteration budget runs out.
package verify

import (
	"context"
	"fmt"
	"os"

	"github.com/mkarpov/signwise/internal/model"
)

// Status is the checker's verdict over one evidence snapshot
type Status string

const (
	StatusClean Status = "CLEAN"
	StatusDirty Status = "DIRTY"
)

// Correction is one objection raised by the checker
type Correction struct {
	ID    string `json:"id"`    // R1..Rn for claims, C1..Cn for counters
	Issue string `json:"issue"` //
}

// CheckResult is the checker's output for one round
type CheckResult struct {
	Status      Status          `json:"status"`
	Corrections []Correction    `json:"corrections_needed"`
	Verified    *model.Evidence `json:"verified_arguments"`
}

// Checker grounds an immutable evidence snapshot against the source text.
// Implementations must not mutate the snapshot.
type Checker interface {
	Check(ctx context.Context, evidence model.Evidence, sourceText string) (*CheckResult, error)
}

// Corrector produces a new evidence value with the checker's objections
// resolved. Implementations must not mutate the input.
type Corrector interface {
	Correct(ctx context.Context, evidence model.Evidence, result *CheckResult, sourceText string) (model.Evidence, error)
}

// Controller owns the CHECKING -> CORRECTING -> CHECKING transitions.
// Bounded: after maxIterations round trips without a clean result, or after
// a clean result with a degenerate payload, it falls back to the pre-loop
// evidence. Verification failure never produces an empty analysis.
type Controller struct {
	checker       Checker
	corrector     Corrector
	maxIterations int
	verbose       bool
}

// NewController creates a loop controller
func NewController(checker Checker, corrector Corrector, maxIterations int, verbose bool) *Controller {
	if maxIterations <= 0 {
		maxIterations = 2
	}
	return &Controller{
		checker:       checker,
		corrector:     corrector,
		maxIterations: maxIterations,
		verbose:       verbose,
	}
}

// Run verifies evidence against the source text and returns the validated
// evidence. The loop is strictly sequential within one case: the corrector
// depends on the checker's latest output.
func (c *Controller) Run(ctx context.Context, evidence model.Evidence, sourceText string) (model.Evidence, error) {
	preLoop := evidence
	current := evidence

	for i := 0; i < c.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return preLoop, err
		}

		result, err := c.checker.Check(ctx, current, sourceText)
		if err != nil {
			// Stage-local fallback: a failed check round never discards the analysis
			c.logf("verification check failed (round %d): %v, keeping pre-loop evidence", i+1, err)
			return preLoop, nil
		}

		if result.Status == StatusClean {
			if result.Verified == nil || result.Verified.Empty() {
				c.logf("verification reported CLEAN with empty payload, keeping pre-loop evidence")
				return preLoop, nil
			}
			return *result.Verified, nil
		}

		corrected, err := c.corrector.Correct(ctx, current, result, sourceText)
		if err != nil {
			c.logf("verification correction failed (round %d): %v, keeping pre-loop evidence", i+1, err)
			return preLoop, nil
		}
		current = corrected
	}

	c.logf("verification loop exhausted %d iterations without CLEAN, keeping pre-loop evidence", c.maxIterations)
	return preLoop, nil
}

func (c *Controller) logf(format string, args ...any) {
	if c.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
