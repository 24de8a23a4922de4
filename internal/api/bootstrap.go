package api

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/advisor"
	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/orders"
	"storefront/internal/session"

	"github.com/redis/go-redis/v9"
)

const (
	breakerFailureThreshold = 5
	breakerOpenFor          = 30 * time.Second
	sweepInterval           = time.Minute
)

// Bootstrap builds the server and everything it depends on from configuration.
// The returned cleanup releases connections and must be called after Stop.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Server, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("Cleanup failed: %v", err)
			}
		}
	}

	index, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info("Loaded %d products", index.Len())

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, db.Close)

	tokens, err := newTokenStore(ctx, cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if c, ok := tokens.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}

	provider, err := newAuthProvider(cfg, db)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var publisher orders.Publisher = orders.NopPublisher{}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		publisher = orders.NewKafkaPublisher(brokers, cfg.OrderEventsTopic)
		log.Info("Publishing order events to %s", cfg.OrderEventsTopic)
	}
	closers = append(closers, publisher.Close)

	gateway := checkout.NewBreakerGateway(
		checkout.NewSimulatedGateway(cfg.PaymentLatency, cfg.PaymentDeclineRate),
		breakerFailureThreshold, breakerOpenFor, log,
	)

	sessions := session.NewRegistry(session.WithIdleTimeout(cfg.SessionTTL))
	go sessions.RunSweeper(ctx, sweepInterval)

	server := New(cfg, log, Dependencies{
		Catalog:  index,
		Auth:     provider,
		Tokens:   tokens,
		Sessions: sessions,
		Gateway:  gateway,
		Orders:   orders.NewService(orders.NewRepository(db.DB), publisher, log),
		Advisor:  newAdvisor(ctx, cfg, log),
	})

	return server, cleanup, nil
}

func newTokenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (session.TokenStore, error) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, sessions are kept in memory")
		return session.NewMemoryTokenStore(cfg.SessionTTL), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	tokens, err := session.NewRedisTokenStore(ctx, redis.NewClient(opts), cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func newAuthProvider(cfg *config.Config, db *database.Database) (auth.Provider, error) {
	switch cfg.AuthProvider {
	case "supabase":
		return auth.NewSupabaseProvider(cfg.SupabaseProjectRef, cfg.SupabaseAnonKey)
	case "local", "":
		return auth.NewLocalProvider(db.DB), nil
	}
	return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
}

func newAdvisor(ctx context.Context, cfg *config.Config, log *logger.Logger) advisor.Advisor {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, assistant runs in offline mode")
		return advisor.StaticAdvisor{}
	}

	a, err := advisor.NewGeminiAdvisor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if err != nil {
		log.Error("Failed to start Gemini advisor, falling back to offline mode: %v", err)
		return advisor.StaticAdvisor{}
	}
	return a
}
