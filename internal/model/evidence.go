package model

// Severity grades how badly a flagged risk hurts the signing party
type Severity string

const (
	SeverityCritical Severity = "CRITICAL" // Existential: unlimited liability, IP transfer
	SeverityHigh     Severity = "HIGH"     // Significant financial exposure
	SeverityMedium   Severity = "MEDIUM"   // Operational burden
	SeverityLow      Severity = "LOW"      // Minor ambiguity or strict-but-standard terms
)

// ClaimType categorizes the nature of a flagged risk
type ClaimType string

const (
	ClaimMissingClause   ClaimType = "MISSING_CLAUSE"   // An expected clause is absent
	ClaimUnfavorableTerm ClaimType = "UNFAVORABLE_TERM" // A present term deviates against the user
	ClaimAmbiguous       ClaimType = "AMBIGUOUS"        // Wording open to hostile interpretation
)

// Claim is one flagged risk in the contract
type Claim struct {
	Headline  string    `json:"risk"`        // Concise headline
	Severity  Severity  `json:"severity"`    //
	Page      *int      `json:"page"`        // 1-indexed source page, nil for missing clauses
	Type      ClaimType `json:"risk_type"`   //
	Rationale string    `json:"explanation"` // Why this term hurts the signing party
}

// Counter is a rebuttal or mitigating context for a claim.
// IndustryContext and References are external provenance and are never
// checked against the source document.
type Counter struct {
	Topic           string         `json:"topic"`
	Text            string         `json:"counter"`
	Confidence      ConfidenceTier `json:"confidence"`
	IndustryContext string         `json:"industry_context,omitempty"`
	References      []string       `json:"references,omitempty"`
}

// Evidence is the (claims, counters) pair attached to a case at a point in
// time. Sequence order is insertion order and carries no meaning.
type Evidence struct {
	Claims   []Claim   `json:"risks"`
	Counters []Counter `json:"counters"`
}

// Empty reports whether the evidence is degenerate (no claims and no counters)
func (e Evidence) Empty() bool {
	return len(e.Claims) == 0 && len(e.Counters) == 0
}
