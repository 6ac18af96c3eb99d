// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"deep-research-agent/internal/config"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/domain/ports/repository"
	"deep-research-agent/internal/infra/adapters/research"
	pg "deep-research-agent/internal/infra/db/postgres"
	"deep-research-agent/internal/infra/logging"
	"deep-research-agent/internal/infra/metrics"
	red "deep-research-agent/internal/infra/redis"
	"deep-research-agent/internal/infra/sched"
	"deep-research-agent/internal/infra/security"
	"deep-research-agent/internal/infra/web"
	"deep-research-agent/internal/infra/worker"
	"deep-research-agent/internal/usecase"

	"github.com/rs/zerolog"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop backend fallback, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; falling back to dev key (INSECURE)")
		encKey = "0123456789abcdef0123456789abcdef"
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		log.Fatalf("encryption: %v", err)
	}

	// ---- Repositories ----
	// Jobs live in Postgres when database.url is set, otherwise in Redis.
	var jobRepo repository.ResearchJobRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		jobRepo = pg.NewResearchJobRepo(pool)
		logger.Info().Msg("job repository: postgres")
	} else {
		jobRepo = red.NewJobStore(redisClient)
		logger.Info().Msg("job repository: redis")
	}
	settingsStore := red.NewSettingsStore(redisClient, encSvc)

	// ---- Research client ----
	client := research.NewClient(cfg.Research.PollInterval, logger)
	if err := configureBackend(ctx, client, settingsStore, cfg, logger); err != nil {
		log.Fatalf("research backend: %v", err)
	}

	// ---- Use cases ----
	pool := worker.NewPool(cfg.Research.ConcurrentLimit, logger)
	pool.Start(ctx)
	defer pool.Stop()

	hub := web.NewHub(logger)
	researchUC := usecase.NewResearchUseCase(jobRepo, client, pool, hub, logger)
	estimateUC := usecase.NewEstimateUseCase()
	settingsUC := usecase.NewSettingsUseCase(settingsStore, client, logger)

	// ---- Resume worker ----
	resumer := sched.NewResumeWorker(cfg.Research.ResumeInterval, researchUC, logger)
	go func() { _ = resumer.Run(ctx) }()

	// ---- HTTP server ----
	metrics.MustRegister()
	auth := web.NewAuthManager(cfg.Server.Auth.Secret, cfg.Server.Auth.Secure, cfg.Server.Auth.Domain, cfg.Server.Auth.TTL)
	srv := web.NewServer(researchUC, estimateUC, settingsUC, hub, auth, rateLimiter, &cfg.Server, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = server.Shutdown(context.Background())
}

// configureBackend wires the research client from stored credentials first,
// then the YAML config, then the dev noop backend. Running unconfigured is
// allowed: submissions fail with a clear error until credentials arrive via
// the settings API.
func configureBackend(ctx context.Context, client *research.Client, store repository.SettingsRepository, cfg *config.Config, logger *zerolog.Logger) error {
	if creds, err := store.LoadCredentials(ctx); err == nil && creds != nil {
		if err := client.Configure(*creds); err != nil {
			return fmt.Errorf("stored credentials: %w", err)
		}
		logger.Info().Str("provider", string(creds.Provider)).Msg("research backend: stored credentials")
		return nil
	}
	if cfg.Research.APIKey != "" {
		creds := model.BackendCredentials{
			Provider: model.BackendProvider(cfg.Research.Provider),
			APIKey:   cfg.Research.APIKey,
			BaseURL:  cfg.Research.BaseURL,
			Headers:  cfg.Research.Headers,
		}
		if err := client.Configure(creds); err != nil {
			return fmt.Errorf("yaml credentials: %w", err)
		}
		logger.Info().Str("provider", cfg.Research.Provider).Msg("research backend: config credentials")
		return nil
	}
	if cfg.Runtime.Dev {
		client.UseBackend(research.NewNoopBackend(0))
		logger.Warn().Msg("research backend: noop (dev mode, no credentials)")
		return nil
	}
	logger.Warn().Msg("research backend not configured; set credentials via the settings API")
	return nil
}
