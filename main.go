package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shoptalk-ai/shoptalk/agent/agents"
	"github.com/shoptalk-ai/shoptalk/agent/chat"
	"github.com/shoptalk-ai/shoptalk/agent/orchestrator"
	sessionx "github.com/shoptalk-ai/shoptalk/agent/session"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
	configx "github.com/shoptalk-ai/shoptalk/pkg/config"
	_ "github.com/shoptalk-ai/shoptalk/pkg/logger/autoload"
	openrouterx "github.com/shoptalk-ai/shoptalk/pkg/openrouter"
	serverx "github.com/shoptalk-ai/shoptalk/server"
)

const sweepInterval = 15 * time.Minute

// storeEnvConfig selects the session backend. Redis wins over Postgres when
// both are configured; with neither, sessions live in process memory.
type storeEnvConfig struct {
	RedisURL    string `envconfig:"REDIS_URL" split_words:"true"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" split_words:"true"`
}

func main() {
	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	sessionCfg := configx.MustNew[sessionx.Config]("SESSION")
	openrouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")

	store, cleanup := buildStore(configx.MustNew[storeEnvConfig]("SESSION"))
	defer cleanup()

	registry, err := sessionx.NewRegistry(store, *sessionCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build session registry")
	}

	responder := agents.NewOpenRouterResponder(*openrouterCfg)
	if responder == nil {
		log.Info().Msg("no openrouter api key configured, using template replies")
	}

	orch := orchestrator.New(
		agents.NewProductAgent(responder),
		agents.NewOrderAgent(responder),
		agents.NewRecommendationAgent(responder),
		agents.NewSupportAgent(responder),
		agents.NewCheckoutAgent(responder),
	)
	log.Info().Strs("agents", orch.Agents()).Msg("agents registered")

	svc, err := chat.New(registry, orch)
	if err != nil {
		log.Fatal().Err(err).Msg("build chat service")
	}

	srv, err := serverx.New(*serverCfg, svc)
	if err != nil {
		log.Fatal().Err(err).Msg("build http server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepLoop(ctx, registry)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
		os.Exit(1)
	}
}

func buildStore(cfg *storeEnvConfig) (statex.Store, func()) {
	if cfg.RedisURL != "" {
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("SESSION_REDIS")
		store, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build redis session store")
		}
		log.Info().Msg("session store: upstash redis")
		return store, func() {}
	}

	if cfg.PostgresDSN != "" {
		pgCfg := configx.MustNew[statex.PostgresConfig]("SESSION_POSTGRES")
		store, err := statex.NewPostgresStore(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build postgres session store")
		}
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Init(initCtx); err != nil {
			log.Fatal().Err(err).Msg("init postgres session store")
		}
		log.Info().Msg("session store: postgres")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("close postgres session store")
			}
		}
	}

	log.Info().Msg("session store: in-memory")
	return statex.NewMemoryStore(), func() {}
}

// sweepLoop expires idle sessions on backends without native TTL. Backends
// with native TTL report zero swept and the loop is effectively idle.
func sweepLoop(ctx context.Context, registry *sessionx.Registry) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := registry.ExpireSweep(ctx); err != nil {
				log.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}
