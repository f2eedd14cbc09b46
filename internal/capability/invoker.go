package capability

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mkarpov/signwise/internal/casestore"
	"github.com/mkarpov/signwise/internal/llm"
	"github.com/mkarpov/signwise/internal/model"
	"golang.org/x/time/rate"
)

// sleepFunc is the sleep function used between retries (injectable for tests)
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Message is the stage input for one capability call
type Message struct {
	Text           string
	Attachment     []byte
	AttachmentMIME string
}

// Invoker executes external analysis capabilities against isolated case
// scopes, with transient-failure retry and per-process rate limiting.
// Every external call in the system passes through here, which is what keeps
// retry policy, state isolation, and normalization uniform.
type Invoker struct {
	provider llm.Provider
	store    casestore.Store
	limiter  *rate.Limiter
	llmCfg   model.LLMConfig
	retry    model.RetryConfig
}

// NewInvoker creates an invoker over the given provider and case store
func NewInvoker(provider llm.Provider, store casestore.Store, cfg *model.Config) *Invoker {
	rps := cfg.Concurrency.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Concurrency.Burst
	if burst <= 0 {
		burst = 5
	}
	return &Invoker{
		provider: provider,
		store:    store,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		llmCfg:   cfg.LLM,
		retry:    cfg.Retry,
	}
}

// scopeID isolates each case/capability pair's state
func scopeID(caseID string, cap Capability) string {
	return caseID + "/" + cap.Name
}

// Invoke runs one capability against the case's scope, seeded from initial.
// FreshScope capabilities get a cleared scope; the verification loop's
// capabilities reuse theirs. The parsed terminal output is stored under the
// capability's output key and returned. A malformed reply is normalized to
// an empty record, not an error: stage-level fallback policy decides what
// that means.
func (inv *Invoker) Invoke(ctx context.Context, caseID string, cap Capability, initial map[string]any, msg Message) (map[string]any, error) {
	scope := scopeID(caseID, cap)

	if cap.FreshScope {
		if err := inv.store.Delete(scope); err != nil {
			return nil, fmt.Errorf("clear scope %s: %w", scope, err)
		}
	}
	if err := inv.store.Create(scope, initial); err != nil && cap.FreshScope {
		return nil, fmt.Errorf("create scope %s: %w", scope, err)
	}
	// A reused scope that already exists keeps its prior state

	resp, err := inv.completeWithRetry(ctx, cap, msg)
	if err != nil {
		return nil, fmt.Errorf("capability %s: %w", cap.Name, err)
	}

	output, _ := Normalize(resp.Text)
	if err := inv.store.Set(scope, cap.OutputKey, output); err != nil {
		return nil, fmt.Errorf("store output for %s: %w", scope, err)
	}
	return output, nil
}

// Output reads a capability's stored output for a case
func (inv *Invoker) Output(caseID string, cap Capability) (map[string]any, bool) {
	v, ok := inv.store.Value(scopeID(caseID, cap), cap.OutputKey)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Reset tears down a capability's scope for a case
func (inv *Invoker) Reset(caseID string, cap Capability) error {
	return inv.store.Delete(scopeID(caseID, cap))
}

// completeWithRetry drives the completion, retrying transient failures with
// exponential backoff up to the configured attempt ceiling. Non-transient
// failures propagate untouched.
func (inv *Invoker) completeWithRetry(ctx context.Context, cap Capability, msg Message) (*llm.CompletionResponse, error) {
	attempts := inv.retry.Attempts
	if attempts <= 0 {
		attempts = 5
	}
	expBase := inv.retry.ExpBase
	if expBase <= 1 {
		expBase = 2
	}
	initialDelay := inv.retry.InitialDelay
	if initialDelay <= 0 {
		initialDelay = time.Second
	}

	req := llm.CompletionRequest{
		System:         cap.Instruction,
		Prompt:         msg.Text,
		Model:          cap.ModelFor(inv.llmCfg),
		MaxTokens:      inv.llmCfg.MaxTokens,
		Attachment:     msg.Attachment,
		AttachmentMIME: msg.AttachmentMIME,
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(initialDelay) * math.Pow(expBase, float64(attempt-1)))
			if err := sleepFunc(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := inv.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := inv.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !llm.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("exhausted %d attempts: %w", attempts, lastErr)
}
