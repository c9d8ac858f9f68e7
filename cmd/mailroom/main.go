package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mailroom/internal/api"
	"github.com/dmitrymomot/mailroom/internal/repository"
	"github.com/dmitrymomot/mailroom/pkg/address"
	"github.com/dmitrymomot/mailroom/pkg/config"
	"github.com/dmitrymomot/mailroom/pkg/domains"
	"github.com/dmitrymomot/mailroom/pkg/gateway"
	"github.com/dmitrymomot/mailroom/pkg/httpserver"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/outbox"
	"github.com/dmitrymomot/mailroom/pkg/pg"
	"github.com/dmitrymomot/mailroom/pkg/ratelimiter"
	"github.com/dmitrymomot/mailroom/pkg/reconciler"
	"github.com/dmitrymomot/mailroom/pkg/redis"
	"github.com/dmitrymomot/mailroom/pkg/signature"
	"github.com/dmitrymomot/mailroom/pkg/stats"
	"github.com/dmitrymomot/mailroom/pkg/template"
	"github.com/dmitrymomot/mailroom/pkg/vault"
)

type appConfig struct {
	AppEnv        string   `env:"APP_ENV" envDefault:"development"`
	SenderDomains []string `env:"SENDER_DOMAINS,required" envSeparator:","`
	WebhookSecret string   `env:"WEBHOOK_SIGNING_SECRET"`
	TemplatesPath string   `env:"TEMPLATES_PATH"`

	Pg        pg.Config
	Gateway   gateway.Config
	Outbox    outbox.Config
	RateLimit ratelimiter.Config
	Redis     redis.Config
	Vault     vault.Config
	HTTP      httpserver.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	var log *slog.Logger
	if cfg.AppEnv == "production" {
		log = logger.New(logger.WithProduction("mailroom"))
	} else {
		log = logger.New(logger.WithDevelopment("mailroom"))
	}
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, cfg.Pg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Pg, log); err != nil {
		return err
	}

	repo, err := repository.New(pool)
	if err != nil {
		return err
	}

	gw, err := gateway.New(cfg.Gateway)
	if err != nil {
		return err
	}

	registry := template.NewRegistry()
	if cfg.TemplatesPath != "" {
		if err := registry.LoadFile(cfg.TemplatesPath); err != nil {
			return err
		}
	}

	allowlist := address.NewAllowlist(cfg.SenderDomains)

	enqueuer, err := outbox.NewEnqueuer(repo, registry, allowlist,
		outbox.WithMaxRetries(cfg.Outbox.MaxRetries),
		outbox.WithEnqueuerLogger(log))
	if err != nil {
		return err
	}
	canceler, err := outbox.NewCanceler(repo, gw, log)
	if err != nil {
		return err
	}
	worker, err := outbox.NewWorker(repo, gw, cfg.Outbox, log)
	if err != nil {
		return err
	}

	rec, err := reconciler.New(repo, log)
	if err != nil {
		return err
	}
	statsSvc, err := stats.New(repo)
	if err != nil {
		return err
	}
	domainsSvc, err := domains.New(gw, repo, log)
	if err != nil {
		return err
	}

	var verifier *signature.Verifier
	if cfg.WebhookSecret != "" {
		verifier, err = signature.NewVerifier(cfg.WebhookSecret)
		if err != nil {
			return err
		}
	} else {
		log.Warn("webhook signing secret not set, webhook signatures will not be verified")
	}

	var v *vault.Vault
	if cfg.Vault.AppKey != "" {
		appKey, err := cfg.Vault.DecodeAppKey()
		if err != nil {
			return err
		}
		v, err = vault.New(repo, appKey,
			vault.WithIssuer(cfg.Vault.Issuer),
			vault.WithLogger(log))
		if err != nil {
			return err
		}
	}

	limiter, err := buildLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}

	handler := &api.Handler{
		Enqueuer:    enqueuer,
		Canceler:    canceler,
		History:     repo,
		Stats:       statsSvc,
		Domains:     domainsSvc,
		Templates:   registry,
		Reconciler:  rec,
		Verifier:    verifier,
		Vault:       v,
		Healthcheck: pg.Healthcheck(pool),
		RateLimiter: limiter,
		Log:         log,
	}

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))
	g.Go(func() error {
		// Stopping the server for any reason stops the worker too.
		defer cancel()
		return server.Run(ctx, handler.Router())
	})

	log.InfoContext(ctx, "mailroom started",
		slog.String("provider", cfg.Gateway.Provider),
		slog.String("addr", cfg.HTTP.Addr))

	return g.Wait()
}

// buildLimiter backs the send-endpoint token bucket with Redis when a URL is
// configured, falling back to the per-process memory store.
func buildLimiter(ctx context.Context, cfg appConfig, log *slog.Logger) (ratelimiter.Limiter, error) {
	var store ratelimiter.Store
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store, err = ratelimiter.NewRedisStore(client)
		if err != nil {
			return nil, err
		}
		log.Info("rate limiter using redis store")
	} else {
		store = ratelimiter.NewMemoryStore()
		log.Info("rate limiter using in-memory store")
	}

	return ratelimiter.NewTokenBucket(store, cfg.RateLimit.SendPerMinute, time.Minute,
		ratelimiter.WithBurst(cfg.RateLimit.SendBurst))
}
