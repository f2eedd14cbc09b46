package model

import (
	"time"

	"github.com/google/uuid"
)

// Case identifies one document-review run. Each case owns exactly one mutable
// pipeline state scope and is never shared across concurrent comparator runs.
type Case struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCase creates a case with a fresh unique id
func NewCase(userID string) Case {
	return Case{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}

// Stage output keys within a case's pipeline state.
// A stage never reads a key that a later stage writes.
const (
	KeyIngestion  = "auditor_output"
	KeyClaims     = "skeptic_risks"
	KeyCounters   = "advocate_defense"
	KeyCheck      = "bailiff_verdict"
	KeyCorrected  = "current_arguments"
	KeyVerdict    = "final_verdict"
	KeyComparison = "comparison_result"
	KeyDraft      = "drafted_email"
)
