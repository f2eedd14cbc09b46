package model

import "time"

// Config is the complete signwise configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Retry       RetryConfig       `yaml:"retry" json:"retry"`
	Verify      VerifyConfig      `yaml:"verify" json:"verify"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// LLMConfig configures the capability provider backends.
// The ingestion and arbitration stages typically run a stronger model than
// the worker stages (risk-finding, counter-research, checking, drafting).
type LLMConfig struct {
	Provider string `yaml:"provider" json:"provider"` // openai, anthropic, ollama

	AuditorModel string `yaml:"auditor_model" json:"auditor_model"` // Ingestion / extraction
	WorkerModel  string `yaml:"worker_model" json:"worker_model"`   // Analysis, verification, drafting
	JudgeModel   string `yaml:"judge_model" json:"judge_model"`     // Arbitration, comparison

	APIKey    string `yaml:"api_key,omitempty" json:"-"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // Seconds per completion
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// RetryConfig controls backoff for transient capability failures
type RetryConfig struct {
	Attempts     int           `yaml:"attempts" json:"attempts"`
	ExpBase      float64       `yaml:"exp_base" json:"exp_base"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
}

// VerifyConfig bounds the verification loop
type VerifyConfig struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
}

// StoreConfig controls case state retention
type StoreConfig struct {
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// ConcurrencyConfig controls batch processing and capability rate limiting
type ConcurrencyConfig struct {
	BatchWorkers      int     `yaml:"batch_workers" json:"batch_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig controls report rendering and drafting
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" json:"include_footer"`
	DraftTone     string `yaml:"draft_tone,omitempty" json:"draft_tone,omitempty"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:     "openai",
			AuditorModel: "gpt-4o",
			WorkerModel:  "gpt-4o-mini",
			JudgeModel:   "gpt-4o",
			Timeout:      120,
			MaxTokens:    4000,
		},
		Retry: RetryConfig{
			Attempts:     5,
			ExpBase:      2,
			InitialDelay: time.Second,
		},
		Verify: VerifyConfig{
			MaxIterations: 2,
		},
		Store: StoreConfig{
			TTL:             time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers:      4,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
