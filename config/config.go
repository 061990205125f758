// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration. Defaults keep a development
// instance runnable with nothing but an LLM key; every external service is
// optional and degrades to its fallback when unset.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM provider selection: "openai", "groq", or "gemini".
	LLMProvider        string  `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string  `env:"OPENAI_API_KEY"`
	GroqAPIKey         string  `env:"GROQ_API_KEY"`
	GroqBaseURL        string  `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GeminiAPIKey       string  `env:"GEMINI_API_KEY"`
	// DefaultModel overrides the provider adapter's own model default.
	DefaultModel string `env:"DEFAULT_LLM_MODEL"`
	EmbeddingDim int    `env:"DEFAULT_EMBEDDING_DIM" envDefault:"1536"`

	TrendsBaseURL string `env:"TRENDS_BASE_URL"`
	RedisURL      string `env:"REDIS_URL"`

	LedgerPath  string `env:"LEDGER_PATH" envDefault:"maestro-ledger.db"`
	HistoryPath string `env:"HISTORY_PATH" envDefault:"maestro-history.db"`

	MetaAppID       string `env:"META_APP_ID"`
	MetaAppSecret   string `env:"META_APP_SECRET"`
	MetaPageID      string `env:"META_PAGE_ID"`
	MetaAccessToken string `env:"META_ACCESS_TOKEN"`
	MetaRedirectURI string `env:"META_REDIRECT_URI"`

	PaymentBaseURL     string `env:"PAYMENT_BASE_URL" envDefault:"https://api.mercadopago.com"`
	PaymentAccessToken string `env:"PAYMENT_ACCESS_TOKEN"`

	RequireHumanApproval bool `env:"REQUIRE_HUMAN_APPROVAL" envDefault:"true"`
	MaxCampaignsPerUser  int  `env:"MAX_CAMPAIGNS_PER_USER" envDefault:"3"`

	OTLPEndpoint  string `env:"OTLP_ENDPOINT"`
	TraceStdout   bool   `env:"TRACE_STDOUT" envDefault:"false"`
	MetricsEnable bool   `env:"METRICS_ENABLE" envDefault:"true"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
