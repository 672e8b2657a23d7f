// Package control assembles the extraction service from its parts and
// manages their lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/extractor/internal/api"
	"github.com/vietddude/extractor/internal/cache"
	"github.com/vietddude/extractor/internal/core/config"
	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/credential"
	"github.com/vietddude/extractor/internal/extract"
	redisclient "github.com/vietddude/extractor/internal/infra/redis"
	"github.com/vietddude/extractor/internal/infra/resolver"
	"github.com/vietddude/extractor/internal/infra/storage"
	"github.com/vietddude/extractor/internal/infra/storage/memory"
	"github.com/vietddude/extractor/internal/infra/storage/postgres"
	"github.com/vietddude/extractor/internal/infra/ytdlp"
	"github.com/vietddude/extractor/internal/pipeline"
	"github.com/vietddude/extractor/internal/ratelimit"
)

// Service is the application root: the wired extraction service plus the
// infrastructure it owns.
type Service struct {
	cfg    *config.AppConfig
	server *api.Server
	db     *postgres.DB
	redis  *redisclient.Client
	svc    *extract.Service
	log    *slog.Logger
}

// New wires all dependencies from configuration. Postgres and Redis are
// both optional: without a database the credential pool is in-memory and
// empty unless seeded; without Redis the cache and rate limiter are
// process-local.
func New(cfg *config.AppConfig) (*Service, error) {
	log := slog.With("component", "control")

	// Credential storage
	var repo storage.CredentialRepository
	var db *postgres.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		repo = postgres.NewCredentialRepo(db)
		log.Info("Using PostgreSQL credential store")
	} else {
		repo = memory.NewCredentialRepo()
		log.Info("Using in-memory credential store")
	}

	// Cache and rate limiting
	var store cache.Store
	var limiter ratelimit.Checker
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		store = redisclient.NewCacheStore(redisClient)
		limiter = redisclient.NewLimiter(redisClient)
		log.Info("Using Redis cache and rate limiting")
	} else {
		store = cache.NewMemory()
		limiter = ratelimit.NewLimiter()
		log.Info("Using in-memory cache and rate limiting")
	}

	pool := credential.NewPool(repo, time.Duration(cfg.Pool.CooldownMinutes)*time.Minute)
	pipe := pipeline.New(resolver.NewHTTP(cfg.Resolver.Timeout, cfg.Resolver.HostRPS))
	registry := ytdlp.New(cfg.Extract.YtDlpPath).Registry()

	cacheTTL := make(map[domain.Platform]time.Duration, len(cfg.Cache.TTL))
	for name, ttl := range cfg.Cache.TTL {
		cacheTTL[domain.Platform(name)] = ttl
	}

	svc := extract.NewService(pipe, limiter, store, pool, registry, cacheTTL)

	checks := map[string]api.HealthCheck{}
	if db != nil {
		checks["database"] = db.Health
	}
	if redisClient != nil {
		rc := redisClient
		checks["redis"] = func(ctx context.Context) error {
			_, err := rc.Ping(ctx)
			return err
		}
	}

	return &Service{
		cfg:    cfg,
		server: api.NewServer(svc, cfg.Server.Port, checks),
		db:     db,
		redis:  redisClient,
		svc:    svc,
		log:    log,
	}, nil
}

// Extractor exposes the wired extraction service, for embedding callers.
func (s *Service) Extractor() *extract.Service {
	return s.svc
}

// Start launches the HTTP server. It returns once the listener is up.
func (s *Service) Start(ctx context.Context) error {
	go func() {
		s.log.Info("API server listening", "port", s.cfg.Server.Port)
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("API server stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts everything down in reverse order.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop API server: %w", err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("failed to close redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("failed to close database", "error", err)
		}
	}
	return nil
}
