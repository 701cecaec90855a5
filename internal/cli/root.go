// Package cli holds the cobra commands of the crediflow binary.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"crediflow/internal/app"
	"crediflow/internal/config"
	"crediflow/internal/llm"
	"crediflow/internal/models"
)

// Option customizes the command tree, mainly so tests can inject dependencies.
type Option func(*state)

type state struct {
	cfg        config.Config
	log        *slog.Logger
	configured bool

	llm      llm.Client
	llmSet   bool
	modelSrc models.Source
	modelSet bool
	dataDir  string
	logLevel string
}

// WithConfig skips environment loading and uses cfg.
func WithConfig(cfg config.Config, log *slog.Logger) Option {
	return func(rt *state) {
		rt.cfg, rt.log, rt.configured = cfg, log, true
	}
}

// WithLLM replaces the OpenRouter client. A nil client behaves like a missing key.
func WithLLM(client llm.Client) Option {
	return func(rt *state) {
		rt.llm, rt.llmSet = client, true
	}
}

// WithModelSource replaces the Gemini model source.
func WithModelSource(src models.Source) Option {
	return func(rt *state) {
		rt.modelSrc, rt.modelSet = src, true
	}
}

func NewRootCmd(opts ...Option) *cobra.Command {
	rt := &state{}
	for _, opt := range opts {
		opt(rt)
	}

	cmd := &cobra.Command{
		Use:   "crediflow",
		Short: "Credit scoring toolkit for gig-economy workers",
		Long: `Crediflow turns bank transactions and delivery-partner income into a credit score.

It can ask an LLM (via OpenRouter) for a narrative report, compute the deterministic
Crediflow score locally, extract text from PDF statements and list the Gemini models
available to your key.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt.setup(cmd)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&rt.dataDir, "data-dir", "", "Directory holding the CSV, YAML and PDF inputs (overrides DATA_DIR)")
	cmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")

	cmd.AddCommand(newScoreCmd(rt))
	cmd.AddCommand(newPDFCmd(rt))
	cmd.AddCommand(newModelsCmd(rt))
	cmd.AddCommand(newEngineCmd(rt))

	return cmd
}

func (rt *state) setup(cmd *cobra.Command) {
	if !rt.configured {
		rt.cfg, rt.log = app.LoadConfig()
		rt.configured = true
	}
	if rt.dataDir != "" {
		rt.cfg.DataDir = rt.dataDir
	}
	if rt.logLevel != "" {
		rt.cfg.LogLevel = rt.logLevel
		rt.log = newLogger(cmd, rt.logLevel)
	}
	if rt.log == nil {
		rt.log = newLogger(cmd, rt.cfg.LogLevel)
	}
}

func (rt *state) client() (llm.Client, error) {
	if rt.llmSet {
		return rt.llm, nil
	}
	return app.BuildLLM(rt.cfg, rt.log)
}

func (rt *state) modelSource(ctx context.Context) (models.Source, func() error, error) {
	if rt.modelSet {
		return rt.modelSrc, func() error { return nil }, nil
	}
	src, err := models.NewGeminiSource(ctx, rt.cfg.GeminiKey)
	if err != nil {
		return nil, nil, err
	}
	return src, src.Close, nil
}
