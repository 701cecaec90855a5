package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"crediflow/internal/cache"
	"crediflow/internal/config"
	"crediflow/internal/llm"
	"crediflow/internal/logger"
	"crediflow/internal/metrics"
	"crediflow/internal/profile"
	"crediflow/internal/queue"
	"crediflow/internal/scoring"
	"crediflow/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Store    store.Store
	Queue    queue.Queue
	Cache    cache.Cache
	Profiles *profile.Service
	Scoring  *scoring.Service

	closers []func() error
}

// Close releases every connection opened by Build or BuildScorer.
func (d Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadConfig loads .env when present, then the environment.
func LoadConfig() (config.Config, *slog.Logger) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel)
}

// Build wires the gateway: store, queue, cache and profiles.
func Build() (Deps, error) {
	cfg, log := LoadConfig()
	deps := Deps{Config: cfg, Log: log, Metrics: metrics.New()}

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	deps.Store = st
	if c, ok := st.(interface{ Close() error }); ok {
		deps.closers = append(deps.closers, c.Close)
	}

	q, nc, err := buildQueue(cfg, log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	deps.Queue = q
	deps.closers = append(deps.closers, func() error { nc.Close(); return nil })

	deps.Cache = BuildCache(cfg, log)
	deps.closers = append(deps.closers, deps.Cache.Close)

	profiles, err := BuildProfiles(cfg, log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize profiles: %w", err)
	}
	deps.Profiles = profiles
	return deps, nil
}

// BuildScorer wires the queue worker: everything the gateway has plus the LLM.
func BuildScorer() (Deps, error) {
	deps, err := Build()
	if err != nil {
		return Deps{}, err
	}
	client, err := BuildLLM(deps.Config, deps.Log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	deps.Scoring = BuildScoring(deps.Config, deps.Log, client, deps.Cache, deps.Metrics)
	return deps, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, *nats.Conn, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL, nats.Name("crediflow"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nc, nil
	default:
		return nil, nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

// BuildCache connects to Redis, falling back to a no-op cache when it is
// disabled or unreachable.
func BuildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis report cache", "addr", cfg.RedisAddr)
		return c
	case "none", "":
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER, caching disabled", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}

// BuildLLM returns the configured client. A missing API key is not an error:
// the nil client makes scoring report a missing credential without network I/O.
func BuildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openrouter":
		if cfg.OpenRouterKey == "" {
			log.Warn("OPENROUTER_API_KEY is not set, scoring is disabled")
			return nil, nil
		}
		client, err := llm.NewOpenRouterClient(llm.OpenRouterOptions{
			APIKey:     cfg.OpenRouterKey,
			BaseURL:    cfg.OpenRouterBaseURL,
			Model:      cfg.LLMModel,
			Referer:    cfg.AppReferer,
			Title:      cfg.AppTitle,
			MaxRetries: cfg.LLMMaxRetries,
			Timeout:    cfg.ScoreTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenRouter client: %w", err)
		}
		log.Info("using OpenRouter LLM client", "model", cfg.LLMModel)
		return client, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openrouter, none)", cfg.LLMProvider)
	}
}

// BuildScoring wraps client with caching, metrics and the configured timeout.
func BuildScoring(cfg config.Config, log *slog.Logger, client llm.Client, c cache.Cache, m *metrics.Metrics) *scoring.Service {
	return scoring.NewService(client, scoring.Options{
		Model:    cfg.LLMModel,
		Cache:    c,
		CacheTTL: cfg.CacheTTLDuration(),
		Timeout:  cfg.ScoreTimeout,
		Metrics:  m,
		Log:      log,
	})
}

// BuildProfiles loads the loans registry and points the profile service at DataDir.
func BuildProfiles(cfg config.Config, log *slog.Logger) (*profile.Service, error) {
	reg, err := profile.LoadRegistry(cfg.DataPath(cfg.LoansFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load loans registry: %w", err)
	}
	log.Debug("loans registry loaded", "users", reg.Len())
	return &profile.Service{
		DataDir:      cfg.DataDir,
		ProfilesFile: cfg.ProfilesFile,
		Registry:     reg,
		Log:          log,
	}, nil
}
