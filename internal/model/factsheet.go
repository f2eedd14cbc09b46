package model

// NotFound is the sentinel value for clause fields absent from the document.
// Fields are always present with this value, never omitted, so downstream
// risk-finding can tell "absent" apart from "not yet examined".
const NotFound = "NOT FOUND"

// ConfidenceTier grades how certain an extraction or counter-argument is
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "HIGH"
	ConfidenceMedium ConfidenceTier = "MEDIUM"
	ConfidenceLow    ConfidenceTier = "LOW"
)

// FactField is a single extracted clause value with its provenance
type FactField struct {
	Value      string         `json:"value"`                // Extracted text, or NotFound
	Page       int            `json:"page"`                 // 1-indexed page where the clause begins
	Confidence ConfidenceTier `json:"confidence,omitempty"` // Extraction certainty
}

// Found reports whether the field carries an actual value
func (f FactField) Found() bool {
	return f.Value != "" && f.Value != NotFound
}

// FactSheet is the structured extraction of a contract document.
// The named fields are a fixed set; the two buckets are open-ended.
type FactSheet struct {
	Parties              FactField `json:"parties"`
	EffectiveDate        FactField `json:"effective_date"`
	TerminationClause    FactField `json:"termination_clause"`
	PaymentTerms         FactField `json:"payment_terms"`
	LiabilityCap         FactField `json:"liability_cap"`
	IntellectualProperty FactField `json:"intellectual_property"`
	NonCompeteClause     FactField `json:"non_compete_clause"`
	DisputeResolution    FactField `json:"dispute_resolution"`

	// Universal buckets
	KeyObligations []FactField `json:"key_obligations"` // Major operational duties
	FinancialTerms []FactField `json:"financial_terms"` // Rates, fees, invoicing, taxes
}

// FillMissing replaces empty named fields with the NotFound sentinel
func (fs *FactSheet) FillMissing() {
	for _, f := range []*FactField{
		&fs.Parties, &fs.EffectiveDate, &fs.TerminationClause, &fs.PaymentTerms,
		&fs.LiabilityCap, &fs.IntellectualProperty, &fs.NonCompeteClause, &fs.DisputeResolution,
	} {
		if f.Value == "" {
			f.Value = NotFound
		}
	}
	if fs.KeyObligations == nil {
		fs.KeyObligations = []FactField{}
	}
	if fs.FinancialTerms == nil {
		fs.FinancialTerms = []FactField{}
	}
}

// IngestionResult is the terminal output of the ingestion stage
type IngestionResult struct {
	IsContract   bool       `json:"is_contract"`
	ContractType string     `json:"contract_type,omitempty"`
	IsSafe       bool       `json:"is_safe"`
	SafetyReason string     `json:"safety_reason,omitempty"`
	FullText     string     `json:"full_text,omitempty"`
	FactSheet    *FactSheet `json:"fact_sheet,omitempty"`
}

// Rejected reports whether ingestion short-circuits the pipeline,
// with the stated reason
func (r *IngestionResult) Rejected() (bool, string) {
	if !r.IsContract {
		reason := "document is not a contract"
		if r.SafetyReason != "" {
			reason = r.SafetyReason
		}
		return true, reason
	}
	if !r.IsSafe {
		reason := r.SafetyReason
		if reason == "" {
			reason = "document flagged as unsafe"
		}
		return true, reason
	}
	return false, ""
}

// Rejection is the explicit terminal record for a short-circuited pipeline
type Rejection struct {
	CaseID string `json:"case_id"`
	Reason string `json:"reason"`
	Unsafe bool   `json:"unsafe"` // True for safety rejections, false for non-contracts
}
