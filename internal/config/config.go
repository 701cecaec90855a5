package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration shared by the CLI, the gateway and the scorer.
type Config struct {
	// Server
	Port        int    `env:"PORT" envDefault:"8080"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8081"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodySize int64  `env:"MAX_BODY_SIZE" envDefault:"65536"`

	// Input data
	DataDir          string `env:"DATA_DIR" envDefault:"data"`
	TransactionsFile string `env:"TRANSACTIONS_FILE" envDefault:"crediflow_bank_transactions_3_months.csv"`
	IncomeFile       string `env:"INCOME_FILE" envDefault:"crediflow_delivery_partner_3_months_income.csv"`
	ProfilesFile     string `env:"PROFILES_FILE" envDefault:"user_profiles.csv"`
	LoansFile        string `env:"LOANS_FILE" envDefault:"loans.yaml"`
	PDFFile          string `env:"PDF_FILE" envDefault:"statement.pdf"`

	// Prompt parameters
	SSI      float64 `env:"SSI" envDefault:"0.5"`
	SBI      float64 `env:"SBI" envDefault:"0.5"`
	HeadRows int     `env:"HEAD_ROWS" envDefault:"10"`

	// LLM scoring
	LLMProvider       string        `env:"LLM_PROVIDER" envDefault:"openrouter"` // "openrouter" or "none"
	OpenRouterKey     string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	LLMModel          string        `env:"LLM_MODEL" envDefault:"google/gemini-2.0-flash-001"`
	LLMMaxRetries     int           `env:"LLM_MAX_RETRIES" envDefault:"2"`
	AppReferer        string        `env:"APP_REFERER" envDefault:"https://crediflow.ai"`
	AppTitle          string        `env:"APP_TITLE" envDefault:"Crediflow Scoring"`
	ScoreTimeout      time.Duration `env:"SCORE_TIMEOUT" envDefault:"60s"`

	// Model listing
	GeminiKey string `env:"GEMINI_API_KEY"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// DataPath resolves name against DataDir unless it is already absolute.
func (c Config) DataPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// TransactionsPath is the default bank transactions CSV.
func (c Config) TransactionsPath() string { return c.DataPath(c.TransactionsFile) }

// IncomePath is the default delivery-partner income CSV.
func (c Config) IncomePath() string { return c.DataPath(c.IncomeFile) }

// CacheTTLDuration converts CacheTTL seconds into a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}
