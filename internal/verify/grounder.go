package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkarpov/signwise/internal/model"
)

// Literal patterns worth grounding: quoted text, dollar amounts, net-day
// payment terms, and percentages.
var (
	quotedPattern  = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	dollarPattern  = regexp.MustCompile(`\$[\d,]+(?:\.\d+)?`)
	netDaysPattern = regexp.MustCompile(`(?i)\bnet\s*\d+\b`)
	percentPattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)
)

// Clause keywords used to detect a missing-clause contradiction: if the
// claim names one of these and the source text contains it, the clause is
// not actually missing.
var clauseKeywords = []string{
	"liability cap", "liability", "non-compete", "confidentiality",
	"termination", "payment terms", "payment", "dispute resolution",
	"arbitration", "indemnification", "intellectual property",
	"warranty", "rent",
}

// Grounder performs the deterministic portion of evidence checking: literal
// figures quoted by a claim or counter must appear in the source text, and
// a clause flagged as missing must truly be absent. Counter provenance
// (industry context, references) originates outside the document and is
// never checked.
type Grounder struct{}

// NewGrounder creates a grounder
func NewGrounder() *Grounder {
	return &Grounder{}
}

// Check returns the corrections required to ground the evidence in the
// source text. An empty result means the deterministic checks all passed.
func (g *Grounder) Check(evidence model.Evidence, sourceText string) []Correction {
	lower := strings.ToLower(sourceText)
	var corrections []Correction

	for i, claim := range evidence.Claims {
		id := fmt.Sprintf("R%d", i+1)

		if claim.Type == model.ClaimMissingClause {
			if keyword, found := contradictedClause(claim.Headline, lower); found {
				corrections = append(corrections, Correction{
					ID:    id,
					Issue: fmt.Sprintf("claims %q is missing, but the text mentions %q", claim.Headline, keyword),
				})
			}
			continue
		}

		for _, lit := range extractLiterals(claim.Headline + " " + claim.Rationale) {
			if !containsLiteral(lower, lit) {
				corrections = append(corrections, Correction{
					ID:    id,
					Issue: fmt.Sprintf("quotes %q which does not appear in the text", lit),
				})
			}
		}
	}

	for i, c := range evidence.Counters {
		id := fmt.Sprintf("C%d", i+1)
		// Only the factual assertion about the contract is grounded
		for _, lit := range extractLiterals(c.Text) {
			if !containsLiteral(lower, lit) {
				corrections = append(corrections, Correction{
					ID:    id,
					Issue: fmt.Sprintf("quotes %q which does not appear in the text", lit),
				})
			}
		}
	}

	return corrections
}

// contradictedClause reports whether a clause named in the headline actually
// appears in the source text
func contradictedClause(headline, lowerText string) (string, bool) {
	lowerHeadline := strings.ToLower(headline)
	for _, keyword := range clauseKeywords {
		if strings.Contains(lowerHeadline, keyword) && strings.Contains(lowerText, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// extractLiterals pulls the groundable figures and quotes out of a claim
func extractLiterals(s string) []string {
	var literals []string
	seen := make(map[string]bool)
	add := func(lit string) {
		lit = strings.TrimSpace(lit)
		if lit != "" && !seen[lit] {
			seen[lit] = true
			literals = append(literals, lit)
		}
	}

	for _, m := range quotedPattern.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			add(m[1])
		} else {
			add(m[2])
		}
	}
	for _, m := range dollarPattern.FindAllString(s, -1) {
		add(m)
	}
	for _, m := range netDaysPattern.FindAllString(s, -1) {
		add(m)
	}
	for _, m := range percentPattern.FindAllString(s, -1) {
		add(m)
	}
	return literals
}

func containsLiteral(lowerText, literal string) bool {
	return strings.Contains(lowerText, strings.ToLower(literal))
}
