package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	httpserver "roteiro-chatbot/internal/http"
	"roteiro-chatbot/internal/persona"
	"roteiro-chatbot/internal/routing"
	"roteiro-chatbot/internal/scope"
)

// config holds every tunable the service reads from the environment.
type config struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ScopeAPIURL  string        `env:"SCOPE_API_URL"` // empty disables the remote classifier
	ScopeTimeout time.Duration `env:"SCOPE_TIMEOUT" envDefault:"2s"`
	CacheTTL     time.Duration `env:"ROUTING_CACHE_TTL" envDefault:"5m"`
	CacheSize    int           `env:"ROUTING_CACHE_SIZE" envDefault:"256"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("failed to parse environment", slog.Any("error", err))
		os.Exit(1)
	}

	// Load the embedded persona catalog and scope vocabulary.
	registry, err := persona.Default()
	if err != nil {
		logger.Error("failed to load persona registry", slog.Any("error", err))
		os.Exit(1)
	}

	// The remote classifier is optional; routing works without it.
	var remote routing.RemoteScopeClient
	if cfg.ScopeAPIURL != "" {
		remote = scope.NewClient(cfg.ScopeAPIURL, cfg.ScopeTimeout)
	} else {
		logger.Info("SCOPE_API_URL not set, remote classification disabled")
	}

	cache := routing.NewCache(cfg.CacheSize, cfg.CacheTTL, nil)
	engine := routing.NewEngine(registry, cache, remote, logger)
	srv := httpserver.NewServer(engine, registry, logger)

	addr := ":" + cfg.Port
	logger.Info("listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, srv); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}
