package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/linkai/console/pkg/authstate"
	"github.com/linkai/console/pkg/config"
	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/identity"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
	"github.com/linkai/console/pkg/sso"
	"github.com/linkai/console/pkg/tenant"
	"github.com/linkai/console/pkg/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("console: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("product", cfg.Auth.ProductName).Info("starting console session gateway")

	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	// session store
	var store sessionstore.Store
	var memStore *sessionstore.MemoryStore
	var redisStore *sessionstore.RedisStore
	switch cfg.Storage.SessionStore {
	case "redis":
		redisStore, err = sessionstore.NewRedisStore(ctx, sessionstore.RedisOptions{
			URL:      cfg.Storage.RedisURL,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			TTL:      cfg.Auth.SessionMaxAge,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		logger.Info("session store: redis")
	default:
		memStore = sessionstore.NewMemoryStore(cfg.Auth.SessionMaxAge)
		store = memStore
		logger.Info("session store: memory")
	}

	// directory database
	var db *sql.DB
	var pg *directory.PostgresDirectory
	var profiles directory.ProfileStore
	var companies *directory.CompanyService
	var sites web.SiteLister
	if cfg.Storage.PostgresURL != "" {
		pg, err = directory.NewPostgresDirectory(cfg.Storage.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect directory database: %w", err)
		}
		profiles = pg
		companies = directory.NewCompanyService(pg, 256, 10*time.Minute)
		sites = directory.NewSiteService(pg, logger)
		db = pg.DB()
	} else {
		logger.Warn("no directory database configured, profiles degrade to metadata fallback")
		sites = directory.NewSiteService(unavailableSites{}, logger)
	}

	// identity provider client
	var client identity.Client
	switch cfg.Identity.Mode {
	case "oidc":
		client, err = identity.NewOIDCClient(ctx, identity.OIDCOptions{
			IssuerURL:    cfg.Identity.OIDCIssuerURL,
			ClientID:     cfg.Identity.OIDCClientID,
			ClientSecret: cfg.Identity.OIDCClientSecret,
			RedirectURL:  cfg.Auth.AppBaseURL + cfg.Auth.Routes.Callback,
			Scopes:       cfg.Identity.OIDCScopes,
		})
		if err != nil {
			return fmt.Errorf("init oidc client: %w", err)
		}
		logger.Info("identity provider: oidc")
	default:
		client = identity.NewPlatformClient(identity.PlatformOptions{
			BaseURL: cfg.Identity.PlatformURL,
			AnonKey: cfg.Identity.PlatformKey,
			Timeout: cfg.Identity.ExchangeTimeout,
		})
		logger.Info("identity provider: platform")
	}

	resolver := authstate.NewProfileResolver(profiles, companies, store, logger, metrics)
	controller := authstate.NewController(client, resolver, store, logger, metrics)
	controller.Init(ctx)
	defer controller.Close()

	urls := sso.NewURLBuilder(cfg.Auth.SSOBaseURL, cfg.Auth.AppBaseURL, cfg.Auth.Routes.Callback)
	handshake := sso.NewHandshake(client, store, logger, metrics, sso.HandshakeOptions{
		ExchangeTimeout: cfg.Identity.ExchangeTimeout,
		DefaultRedirect: cfg.Auth.Routes.Dashboard,
	})
	tenants := tenant.NewResolver(sites, store, logger, metrics, nil)

	server := web.NewServer(cfg, logger, metrics, store, controller, handshake, urls, tenants, sites)

	// background maintenance
	scheduler := cron.New()
	if memStore != nil {
		scheduler.AddFunc("@every 5m", func() {
			if dropped := memStore.Sweep(); dropped > 0 {
				logger.WithField("dropped", dropped).Debug("swept expired session entries")
			}
		})
	}
	scheduler.AddFunc("@every 10m", func() {
		state := controller.Snapshot()
		if state.Profile == nil {
			return
		}
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := tenants.Refresh(sweepCtx, state.Profile.CompanyID); err != nil {
			logger.WithError(err).Debug("scheduled tenant refresh failed")
		}
	})
	scheduler.Start()

	// health and metrics endpoints on a separate port
	healthMux := http.NewServeMux()
	var healthRedis *redis.Client
	if redisStore != nil {
		healthRedis = redisStore.Client()
	}
	health := observability.NewHealthChecker(db, healthRedis, cfg.Identity.PlatformURL)
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}

	appServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.Register(func(shutdownCtx context.Context) error {
		return appServer.Shutdown(shutdownCtx)
	})
	shutdown.Register(func(shutdownCtx context.Context) error {
		return healthServer.Shutdown(shutdownCtx)
	})
	shutdown.Register(func(context.Context) error {
		scheduler.Stop()
		controller.Close()
		if pg != nil {
			if err := pg.Close(); err != nil {
				logger.WithError(err).Warn("closing directory database")
			}
		}
		if redisStore != nil {
			return redisStore.Close()
		}
		return nil
	})
	if otelProviders != nil {
		shutdown.Register(otelProviders.Shutdown)
	}

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", appServer.Addr).Info("gateway listening")
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health endpoint listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		shutdown.Wait()
		return nil
	})

	return group.Wait()
}

// unavailableSites serves when no directory database is configured; every
// read degrades through SiteService's placeholder path.
type unavailableSites struct{}

func (unavailableSites) List(context.Context, string) ([]directory.Site, error) {
	return nil, fmt.Errorf("site directory not configured")
}

func (unavailableSites) Create(context.Context, directory.CreateSiteInput) (*directory.Site, error) {
	return nil, fmt.Errorf("site directory not configured")
}
