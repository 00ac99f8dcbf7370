package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/compasshq/websignin/internal/cache"
	"github.com/compasshq/websignin/internal/config"
	authctrl "github.com/compasshq/websignin/internal/http/controllers/auth"
	healthctrl "github.com/compasshq/websignin/internal/http/controllers/health"
	"github.com/compasshq/websignin/internal/http/router"
	authsvc "github.com/compasshq/websignin/internal/http/services/auth"
	"github.com/compasshq/websignin/internal/indieauth"
	"github.com/compasshq/websignin/internal/metrics"
	"github.com/compasshq/websignin/internal/oauth/github"
	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/rate"
	"github.com/compasshq/websignin/internal/session"
	"github.com/compasshq/websignin/internal/store"
	"github.com/compasshq/websignin/internal/store/pg"
	"github.com/compasshq/websignin/migrations/postgres"
)

var version = "dev"

func main() {
	// Load .env if present; system env wins either way.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "websignin",
		Short: "IndieAuth web sign-in broker",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(configPath)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		ServiceName: "websignin",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheClient, err := cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cacheClient.Close() }()

	users, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Postgres: pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		},
	})
	if err != nil {
		return err
	}
	defer users.Close()

	if err := metrics.Register(nil); err != nil {
		return err
	}

	sessions := session.NewManager(cacheClient, session.Config{
		CookieName: cfg.Auth.Session.CookieName,
		Domain:     cfg.Auth.Session.Domain,
		SameSite:   cfg.Auth.Session.SameSite,
		Secure:     cfg.Auth.Session.Secure,
		TTL:        cfg.SessionTTL(),
	})

	httpClient := &http.Client{Timeout: 10 * time.Second}
	services := authsvc.NewServices(authsvc.Deps{
		Sessions:            sessions,
		Users:               users,
		Discoverer:          indieauth.NewHTTPDiscoverer(httpClient),
		IndieAuth:           indieauth.NewClient(cfg.BaseURL(), cfg.RedirectURI(), httpClient),
		GitHub:              github.New(cfg.Auth.GitHub.ClientID, cfg.Auth.GitHub.ClientSecret, httpClient),
		DefaultAuthEndpoint: cfg.Auth.DefaultAuthEndpoint,
	})

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = rate.NewWindowLimiter(cacheClient, "rl:auth:", cfg.Rate.MaxRequests, cfg.RateWindow())
	}

	handler := router.New(router.Deps{
		Auth:    authctrl.NewControllers(services, sessions),
		Health:  healthctrl.NewControllers(users, cacheClient),
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting",
			logger.String("addr", cfg.Server.Addr),
			logger.String("base_url", cfg.BaseURL()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "websignin", Version: version})
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrate: storage driver %q has no migrations", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RunMigrations(ctx, postgres.FS); err != nil {
		return err
	}

	logger.Named("migrate").Info("migrations applied")
	return nil
}
