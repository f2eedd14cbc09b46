// Package score is the deterministic risk scoring engine. Given identical
// inputs it is bit-reproducible: no external calls, no hidden state.
package score

import (
	"fmt"
	"strings"

	"github.com/mkarpov/signwise/internal/model"
)

// counterStrength classifies how well a claim is rebutted
type counterStrength string

const (
	uncountered   counterStrength = "uncountered"
	weakCounter   counterStrength = "weak_counter"   // LOW or MEDIUM confidence
	strongCounter counterStrength = "strong_counter" // HIGH confidence
)

// penaltyTable maps severity and counter strength to signed penalties.
// A HIGH-confidence counter always reduces the penalty relative to no
// counter or a weak one.
var penaltyTable = map[model.Severity]map[counterStrength]int{
	model.SeverityCritical: {uncountered: -30, weakCounter: -20, strongCounter: -10},
	model.SeverityHigh:     {uncountered: -20, weakCounter: -10, strongCounter: -5},
	model.SeverityMedium:   {uncountered: -10, weakCounter: -5, strongCounter: -2},
	model.SeverityLow:      {uncountered: -3, weakCounter: -1, strongCounter: 0},
}

// missingClausePenalty is the flat severity-indexed penalty for absent
// clauses, applied independent of any counter
var missingClausePenalty = map[model.Severity]int{
	model.SeverityCritical: -30,
	model.SeverityHigh:     -20,
	model.SeverityMedium:   -10,
	model.SeverityLow:      -10,
}

// Verdict thresholds on the final safety score
const (
	acceptThreshold  = 85
	cautionThreshold = 70
)

// Scorer calculates the deterministic score breakdown
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score turns claims and counters into a numeric, boundable, explainable
// risk breakdown. The score starts at 100 (safe) and accumulates per-claim
// penalties in claim order; the result is clamped to [0,100]. The
// recommended verdict is advisory input to arbitration, not the final word.
func (s *Scorer) Score(claims []model.Claim, counters []model.Counter) model.ScoreBreakdown {
	score := 100
	ledger := make([]model.PenaltyEntry, 0, len(claims))

	for _, claim := range claims {
		severity := claim.Severity
		if _, known := penaltyTable[severity]; !known {
			severity = model.SeverityMedium
		}

		var penalty int
		var reason string
		if claim.Type == model.ClaimMissingClause {
			// Flat severity-indexed penalty, never countered
			penalty = missingClausePenalty[severity]
			reason = fmt.Sprintf("Missing Clause (%s)", severity)
		} else {
			strength := matchStrength(claim.Headline, counters)
			penalty = penaltyTable[severity][strength]
			reason = fmt.Sprintf("%s (%s)", severity, strength)
		}

		score += penalty
		ledger = append(ledger, model.PenaltyEntry{
			Headline: claim.Headline,
			Penalty:  penalty,
			Reason:   reason,
		})
	}

	score = clamp(score)

	evidenceCount := len(claims) + len(counters)
	confidence := 80 + min(20, 2*evidenceCount)
	if confidence > 100 {
		confidence = 100
	}

	return model.ScoreBreakdown{
		Score:              score,
		Confidence:         confidence,
		Ledger:             ledger,
		RecommendedVerdict: recommend(score),
	}
}

// matchStrength finds the strongest applicable counter for a claim.
// Matching is a case-insensitive substring containment of the counter's
// topic within the claim headline; first match wins. An empty topic never
// matches anything.
func matchStrength(headline string, counters []model.Counter) counterStrength {
	lower := strings.ToLower(headline)
	for _, c := range counters {
		topic := strings.ToLower(strings.TrimSpace(c.Topic))
		if topic == "" {
			continue
		}
		if strings.Contains(lower, topic) {
			if c.Confidence == model.ConfidenceHigh {
				return strongCounter
			}
			return weakCounter
		}
	}
	return uncountered
}

func recommend(score int) model.VerdictLabel {
	switch {
	case score >= acceptThreshold:
		return model.VerdictAccept
	case score >= cautionThreshold:
		return model.VerdictCaution
	default:
		return model.VerdictReject
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
