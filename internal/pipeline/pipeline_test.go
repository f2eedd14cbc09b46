package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mkarpov/signwise/internal/capability"
	"github.com/mkarpov/signwise/internal/casestore"
	"github.com/mkarpov/signwise/internal/llm"
	"github.com/mkarpov/signwise/internal/model"
)

// scriptedProvider routes completions by capability role and replays a
// scripted reply queue per role
type scriptedProvider struct {
	mu      sync.Mutex
	calls   map[string]int
	replies map[string][]string
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{
		calls:   make(map[string]int),
		replies: make(map[string][]string),
	}
}

func (p *scriptedProvider) script(role string, replies ...string) {
	p.replies[role] = replies
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	role := roleOf(req.System)

	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.calls[role]
	p.calls[role] = n + 1

	queue := p.replies[role]
	if len(queue) == 0 {
		return &llm.CompletionResponse{Text: "{}"}, nil
	}
	if n >= len(queue) {
		n = len(queue) - 1
	}
	return &llm.CompletionResponse{Text: queue[n]}, nil
}

func (p *scriptedProvider) callCount(role string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[role]
}

func roleOf(system string) string {
	switch {
	case strings.Contains(system, "Senior Contract Auditor"):
		return "auditor"
	case strings.Contains(system, "Legal Risk Advisor"):
		return "skeptic"
	case strings.Contains(system, "Business Deal Strategist"):
		return "advocate"
	case strings.Contains(system, "Court Bailiff"):
		return "checker"
	case strings.Contains(system, "Court Clerk"):
		return "corrector"
	case strings.Contains(system, "Senior Legal Arbiter"):
		return "arbiter"
	case strings.Contains(system, "Chief Legal Arbiter"):
		return "comparator"
	case strings.Contains(system, "decision brief"):
		return "comparison_drafter"
	case strings.Contains(system, "Strategy Coach"):
		return "drafter"
	}
	return "unknown"
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	// Keep tests fast: no rate limiting pressure
	cfg.Concurrency.RequestsPerSecond = 1000
	cfg.Concurrency.Burst = 1000
	return cfg
}

func testRunner(p llm.Provider, cfg *model.Config) *Runner {
	store := casestore.NewMemoryStore(time.Hour, time.Hour)
	return newRunner(capability.NewInvoker(p, store, cfg), store, cfg)
}

const cleanContract = `{"is_contract": true, "contract_type": "NDA", "is_safe": true,
"full_text": "Confidentiality period of 2 years. Either party may terminate with 30 days notice.",
"fact_sheet": {"parties": {"value": "Acme and Beta", "page": 1, "confidence": "HIGH"}}}`

func TestReview_FullRun(t *testing.T) {
	p := newScriptedProvider()
	p.script("auditor", cleanContract)
	p.script("skeptic", `{"risks": [{"risk": "Confidentiality period of 2 years is long",
		"severity": "LOW", "page": 1, "risk_type": "UNFAVORABLE_TERM", "explanation": "Longer than typical."}]}`)
	p.script("advocate", `{"counters": [{"topic": "confidentiality", "counter": "A 2 year period is common in this industry",
		"confidence": "HIGH", "industry_context": "Standard for NDAs", "references": ["https://example.com"]}]}`)
	p.script("checker", `{"status": "CLEAN", "verified_arguments": {"risks": [{"risk": "Confidentiality period of 2 years is long",
		"severity": "LOW", "page": 1, "risk_type": "UNFAVORABLE_TERM", "explanation": "Longer than typical."}],
		"counters": [{"topic": "confidentiality", "counter": "A 2 year period is common in this industry", "confidence": "HIGH"}]}}`)
	p.script("arbiter", `{"verdict": "ACCEPT", "risk_score": 95, "confidence": 90,
		"summary": "Low risk NDA.", "key_factors": ["Standard terms"], "negotiation_points": []}`)

	runner := testRunner(p, testConfig())
	report, err := runner.Review(context.Background(), Document{Name: "nda.txt", Data: []byte("...")}, false)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	if report.Rejection != nil {
		t.Fatalf("Unexpected rejection: %+v", report.Rejection)
	}
	if report.ContractType != "NDA" {
		t.Errorf("Expected contract type NDA, got %q", report.ContractType)
	}
	if report.Verdict == nil || report.Verdict.Label != model.VerdictAccept {
		t.Fatalf("Expected ACCEPT verdict, got %+v", report.Verdict)
	}
	if report.Verdict.RiskScore != 95 {
		t.Errorf("Expected score 95, got %d", report.Verdict.RiskScore)
	}
	if report.Breakdown == nil || len(report.Breakdown.Ledger) != 1 {
		t.Errorf("Expected 1-entry score ledger, got %+v", report.Breakdown)
	}
	if report.Evidence == nil || len(report.Evidence.Claims) != 1 {
		t.Errorf("Expected verified evidence in report, got %+v", report.Evidence)
	}
	if report.FactSheet == nil || !report.FactSheet.Parties.Found() {
		t.Errorf("Expected extracted parties, got %+v", report.FactSheet)
	}
	// Missing named fields are filled with the sentinel, never omitted
	if report.FactSheet.LiabilityCap.Value != model.NotFound {
		t.Errorf("Expected NOT FOUND sentinel, got %q", report.FactSheet.LiabilityCap.Value)
	}
}

func TestReview_NonContractShortCircuits(t *testing.T) {
	p := newScriptedProvider()
	p.script("auditor", `{"is_contract": false, "is_safe": true}`)

	runner := testRunner(p, testConfig())
	report, err := runner.Review(context.Background(), Document{Name: "recipe.txt", Data: []byte("...")}, true)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	if report.Rejection == nil {
		t.Fatal("Expected a rejection record")
	}
	if report.Rejection.Unsafe {
		t.Error("Non-contract rejection must not be flagged unsafe")
	}
	if report.Verdict != nil {
		t.Error("Rejected review must carry no verdict")
	}

	// No later stage executes
	for _, role := range []string{"skeptic", "advocate", "checker", "corrector", "arbiter", "drafter"} {
		if n := p.callCount(role); n != 0 {
			t.Errorf("Stage %s ran %d times after rejection", role, n)
		}
	}
}

func TestReview_UnsafeDocumentShortCircuits(t *testing.T) {
	p := newScriptedProvider()
	p.script("auditor", `{"is_contract": true, "is_safe": false, "safety_reason": "contains illegal terms"}`)

	runner := testRunner(p, testConfig())
	report, err := runner.Review(context.Background(), Document{Name: "bad.txt", Data: []byte("...")}, false)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	if report.Rejection == nil || !report.Rejection.Unsafe {
		t.Fatalf("Expected unsafe rejection, got %+v", report.Rejection)
	}
	if report.Rejection.Reason != "contains illegal terms" {
		t.Errorf("Expected the stated reason, got %q", report.Rejection.Reason)
	}
	if n := p.callCount("skeptic"); n != 0 {
		t.Errorf("Analysis ran %d times after safety rejection", n)
	}
}

func TestRunAnalysis_MergesBothSides(t *testing.T) {
	p := newScriptedProvider()
	p.script("skeptic", `{"risks": [{"risk": "No liability cap", "severity": "CRITICAL", "risk_type": "MISSING_CLAUSE", "explanation": "Unlimited exposure."}]}`)
	p.script("advocate", `{"counters": [{"topic": "liability", "counter": "Caps are negotiable", "confidence": "MEDIUM"}]}`)

	runner := testRunner(p, testConfig())
	fs := &model.FactSheet{}
	fs.FillMissing()

	evidence, err := runner.RunAnalysis(context.Background(), "case-1", fs, "full text")
	if err != nil {
		t.Fatalf("RunAnalysis failed: %v", err)
	}
	if len(evidence.Claims) != 1 || len(evidence.Counters) != 1 {
		t.Errorf("Expected merged evidence, got %+v", evidence)
	}
}

func TestRunAnalysis_MalformedSideDegradesToEmpty(t *testing.T) {
	p := newScriptedProvider()
	p.script("skeptic", `{"risks": [{"risk": "No rent stated", "severity": "CRITICAL", "risk_type": "MISSING_CLAUSE", "explanation": "A lease needs rent."}]}`)
	p.script("advocate", "I could not find any defensible context for these terms.")

	runner := testRunner(p, testConfig())
	fs := &model.FactSheet{}
	fs.FillMissing()

	evidence, err := runner.RunAnalysis(context.Background(), "case-2", fs, "full text")
	if err != nil {
		t.Fatalf("Malformed output must not fail the stage: %v", err)
	}
	if len(evidence.Claims) != 1 {
		t.Errorf("Expected 1 claim, got %+v", evidence.Claims)
	}
	if len(evidence.Counters) != 0 {
		t.Errorf("Expected no counters from a malformed reply, got %+v", evidence.Counters)
	}
}

func TestRunArbitration_RejectScoreClamped(t *testing.T) {
	p := newScriptedProvider()
	// Qualitative REJECT with a contradictory high score
	p.script("arbiter", `{"verdict": "REJECT", "risk_score": 85, "confidence": 90,
		"summary": "Illegal purpose clause.", "key_factors": ["Illegality"], "negotiation_points": []}`)

	runner := testRunner(p, testConfig())
	evidence := model.Evidence{Claims: []model.Claim{
		{Headline: "Low severity nit", Severity: model.SeverityLow, Type: model.ClaimAmbiguous},
	}}

	verdict, err := runner.RunArbitration(context.Background(), "case-3", &model.FactSheet{}, evidence)
	if err != nil {
		t.Fatalf("RunArbitration failed: %v", err)
	}
	if verdict.Label != model.VerdictReject {
		t.Fatalf("Expected REJECT, got %s", verdict.Label)
	}
	if verdict.RiskScore >= 60 {
		t.Errorf("REJECT score must be clamped below 60, got %d", verdict.RiskScore)
	}
}

func TestRunArbitration_RejectMidBandScoreClamped(t *testing.T) {
	p := newScriptedProvider()
	// REJECT with a score just above the clamp boundary
	p.script("arbiter", `{"verdict": "REJECT", "risk_score": 65, "confidence": 90,
		"summary": "Unilateral termination.", "key_factors": ["Termination"], "negotiation_points": []}`)

	runner := testRunner(p, testConfig())
	evidence := model.Evidence{Claims: []model.Claim{
		{Headline: "Low severity nit", Severity: model.SeverityLow, Type: model.ClaimAmbiguous},
	}}

	verdict, err := runner.RunArbitration(context.Background(), "case-3b", &model.FactSheet{}, evidence)
	if err != nil {
		t.Fatalf("RunArbitration failed: %v", err)
	}
	if verdict.Label != model.VerdictReject {
		t.Fatalf("Expected REJECT, got %s", verdict.Label)
	}
	if verdict.RiskScore >= 60 {
		t.Errorf("REJECT score must be clamped below 60, got %d", verdict.RiskScore)
	}
}

func TestRunArbitration_AcceptLowScoreRetriedOnce(t *testing.T) {
	p := newScriptedProvider()
	p.script("arbiter",
		`{"verdict": "ACCEPT", "risk_score": 50, "confidence": 80, "summary": "ok", "key_factors": [], "negotiation_points": []}`,
		`{"verdict": "ACCEPT", "risk_score": 88, "confidence": 85, "summary": "ok", "key_factors": [], "negotiation_points": []}`)

	runner := testRunner(p, testConfig())
	verdict, err := runner.RunArbitration(context.Background(), "case-4", &model.FactSheet{}, model.Evidence{})
	if err != nil {
		t.Fatalf("RunArbitration failed: %v", err)
	}
	if n := p.callCount("arbiter"); n != 2 {
		t.Errorf("Expected exactly one retry (2 calls), got %d", n)
	}
	if verdict.Label != model.VerdictAccept || verdict.RiskScore != 88 {
		t.Errorf("Expected retried consistent verdict, got %+v", verdict)
	}
}

func TestRunArbitration_PersistentInconsistencyFallsBackToBaseline(t *testing.T) {
	p := newScriptedProvider()
	p.script("arbiter",
		`{"verdict": "ACCEPT", "risk_score": 40, "confidence": 80, "summary": "ok", "key_factors": [], "negotiation_points": []}`)

	runner := testRunner(p, testConfig())
	// Empty evidence: deterministic baseline is 100 / ACCEPT
	verdict, err := runner.RunArbitration(context.Background(), "case-5", &model.FactSheet{}, model.Evidence{})
	if err != nil {
		t.Fatalf("RunArbitration failed: %v", err)
	}
	if n := p.callCount("arbiter"); n != 2 {
		t.Errorf("Expected 2 calls, got %d", n)
	}
	if verdict.Label != model.VerdictAccept || verdict.RiskScore != 100 {
		t.Errorf("Expected deterministic fallback (ACCEPT 100), got %+v", verdict)
	}
	if verdict.Confidence != 80 {
		t.Errorf("Expected confidence floor 80, got %d", verdict.Confidence)
	}
}

func TestRunArbitration_MalformedReplyFallsBack(t *testing.T) {
	p := newScriptedProvider()
	p.script("arbiter", "the contract seems fine to me")

	runner := testRunner(p, testConfig())
	evidence := model.Evidence{Claims: []model.Claim{
		{Headline: "Unlimited liability", Severity: model.SeverityCritical, Type: model.ClaimUnfavorableTerm},
		{Headline: "IP assignment without compensation", Severity: model.SeverityCritical, Type: model.ClaimUnfavorableTerm},
	}}

	verdict, err := runner.RunArbitration(context.Background(), "case-6", &model.FactSheet{}, evidence)
	if err != nil {
		t.Fatalf("Malformed arbitration must fall back, not fail: %v", err)
	}
	// 100 - 30 - 30 = 40, below the caution threshold
	if verdict.Label != model.VerdictReject || verdict.RiskScore != 40 {
		t.Errorf("Expected deterministic REJECT 40, got %+v", verdict)
	}
}

func TestRunDrafting(t *testing.T) {
	p := newScriptedProvider()
	p.script("drafter", `{"strategy_notes": "Push on the liability cap first.",
		"email_subject": "Proposed revisions to the services agreement",
		"email_body": "Dear counterparty, ..."}`)

	runner := testRunner(p, testConfig())
	verdict := &model.Verdict{Label: model.VerdictCaution, RiskScore: 75, Confidence: 85,
		NegotiationPoints: []string{"Add a liability cap"}}

	draft, err := runner.RunDrafting(context.Background(), "case-7", verdict, "firm")
	if err != nil {
		t.Fatalf("RunDrafting failed: %v", err)
	}
	if draft.EmailSubject == "" || draft.EmailBody == "" {
		t.Errorf("Expected a complete draft, got %+v", draft)
	}
}

func TestReview_DraftingFailureDoesNotFailReview(t *testing.T) {
	p := newScriptedProvider()
	p.script("auditor", cleanContract)
	p.script("arbiter", `{"verdict": "ACCEPT", "risk_score": 100, "confidence": 80, "summary": "Clean.", "key_factors": [], "negotiation_points": []}`)
	p.script("drafter", "no json here")

	runner := testRunner(p, testConfig())
	report, err := runner.Review(context.Background(), Document{Name: "nda.txt", Data: []byte("...")}, true)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if report.Verdict == nil {
		t.Fatal("Expected a verdict")
	}
	if report.Draft != nil {
		t.Errorf("Expected no draft after drafting failure, got %+v", report.Draft)
	}
}
