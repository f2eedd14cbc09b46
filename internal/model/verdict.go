package model

// VerdictLabel is the qualitative outcome of arbitration
type VerdictLabel string

const (
	VerdictAccept  VerdictLabel = "ACCEPT"
	VerdictCaution VerdictLabel = "CAUTION"
	VerdictReject  VerdictLabel = "REJECT"
)

// Display returns the user-facing wording for a label
func (v VerdictLabel) Display() string {
	if v == VerdictCaution {
		return "ACCEPT WITH CAUTION"
	}
	return string(v)
}

// PenaltyEntry is one line of the scoring ledger
type PenaltyEntry struct {
	Headline string `json:"risk"`    // Claim headline
	Penalty  int    `json:"penalty"` // Signed points applied to the score
	Reason   string `json:"reason"`  // e.g. "CRITICAL (uncountered)" or "Missing Clause (HIGH)"
}

// ScoreBreakdown is the deterministic scoring output. Score and Confidence
// are always within [0,100]; the ledger is in claim order.
type ScoreBreakdown struct {
	Score              int            `json:"calculated_score"`
	Confidence         int            `json:"calculated_confidence"`
	Ledger             []PenaltyEntry `json:"breakdown"`
	RecommendedVerdict VerdictLabel   `json:"recommended_verdict"`
}

// Verdict is the final decision on one contract.
// Invariant, enforced by arbitration: REJECT carries a risk score below 60
// and ACCEPT a risk score above 70. The score reads as a safety score:
// 100 is safe, 0 is dangerous.
type Verdict struct {
	Label             VerdictLabel `json:"verdict"`
	RiskScore         int          `json:"risk_score"`
	Confidence        int          `json:"confidence"`
	Summary           string       `json:"summary"`
	KeyFactors        []string     `json:"key_factors"`
	NegotiationPoints []string     `json:"negotiation_points"`
}

// SyntheticRejectVerdict is the worst-case verdict fed forward when one side
// of a comparison is rejected on safety grounds
func SyntheticRejectVerdict(reason string) *Verdict {
	return &Verdict{
		Label:             VerdictReject,
		RiskScore:         0,
		Confidence:        100,
		Summary:           "The document was flagged as unsafe or illegal during ingestion. Reason: " + reason,
		KeyFactors:        []string{"Illegal/Unsafe Content"},
		NegotiationPoints: []string{"Do not sign."},
	}
}

// ComparisonPoint is one head-to-head category observation
type ComparisonPoint struct {
	Category       string `json:"category"`               // e.g. Liability, Payment Terms, Termination
	SideA          string `json:"contract_a_observation"` // Objective observation of side A's term
	SideB          string `json:"contract_b_observation"` // Objective observation of side B's term
	RiskAssessment string `json:"risk_assessment"`        // Which carries higher risk and why
}

// ComparisonResult is the relative risk judgment between two verdicts.
// It never renders a binding recommendation, only relative-risk observations.
type ComparisonResult struct {
	LowerRiskSide  string            `json:"better_risk_score"`  // "Contract A" or "Contract B"
	Summary        string            `json:"comparison_summary"` //
	KeyDifferences []ComparisonPoint `json:"key_differences"`    //
}

// Draft is a drafted outbound communication with internal strategy notes
type Draft struct {
	StrategyNotes string `json:"strategy_notes"`
	EmailSubject  string `json:"email_subject"`
	EmailBody     string `json:"email_body"`
}
