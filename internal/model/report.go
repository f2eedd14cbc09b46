package model

import "time"

// Report is the complete review artifact for one contract run.
// Exactly one of Verdict / Rejection is set.
type Report struct {
	CaseID       string    `json:"case_id"`
	FileName     string    `json:"file_name,omitempty"`
	ContractType string    `json:"contract_type,omitempty"`
	ReviewedAt   time.Time `json:"reviewed_at"`

	FactSheet *FactSheet      `json:"fact_sheet,omitempty"`
	Evidence  *Evidence       `json:"evidence,omitempty"`
	Breakdown *ScoreBreakdown `json:"score_breakdown,omitempty"`
	Verdict   *Verdict        `json:"verdict,omitempty"`
	Draft     *Draft          `json:"draft,omitempty"`

	Rejection *Rejection `json:"rejection,omitempty"`
}

// ComparisonReport is the artifact for a two-contract face-off
type ComparisonReport struct {
	CaseIDA    string    `json:"case_id_a"`
	CaseIDB    string    `json:"case_id_b"`
	ReviewedAt time.Time `json:"reviewed_at"`

	VerdictA *Verdict          `json:"verdict_a"`
	VerdictB *Verdict          `json:"verdict_b"`
	Result   *ComparisonResult `json:"result"`
	Draft    *Draft            `json:"draft,omitempty"`
}
