package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"promptlib/internal/cache"
	"promptlib/internal/config"
	"promptlib/internal/database"
	"promptlib/internal/handlers"
	"promptlib/internal/logging"
	"promptlib/internal/middleware"
	"promptlib/internal/models"
	"promptlib/internal/router"
	"promptlib/internal/store"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Configuration comes from the environment (and .env);
see STORAGE_TYPE, POSTGRES_*, VALKEY_*, ADMIN_TOKEN_HASH and ADMIN_TOTP_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logCloser, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storage", cfg.StorageMode,
		"version", version,
	)

	var (
		repo          handlers.SettingsRepository
		settingsCache handlers.SettingsCache
	)

	if cfg.StorageMode == models.StorageD1 {
		db, err := database.Connect(ctx, cfg.DSN(), database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		if _, err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		if cfg.IsDev() {
			if err := database.Seed(ctx, db); err != nil {
				return fmt.Errorf("seeding database: %w", err)
			}
		}
		repo = store.NewSettingsStore(db)

		// The API works without Valkey; reads then always hit PostgreSQL.
		client, err := cache.ConnectValkey(ctx, net.JoinHostPort(cfg.ValkeyHost, cfg.ValkeyPort), cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("valkey unavailable, settings cache disabled", "error", err)
		} else {
			defer client.Close()
			settingsCache = cache.NewSettingsCache(client, cfg.SettingsCacheTTL)
		}

		if cfg.AdminTokenHash == "" {
			slog.Warn("ADMIN_TOKEN_HASH not set, admin settings updates will be rejected")
		}
	} else {
		slog.Info("local storage mode, admin settings API disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.UploadRateLimit, time.Minute, "上传过于频繁，请稍后再试")
	defer limiter.Stop()

	r := router.New(router.Deps{
		Settings:        handlers.NewSettings(cfg.StorageMode, repo, settingsCache),
		Invite:          handlers.NewInvite(cfg.StorageMode, repo),
		Workflows:       handlers.NewWorkflows(),
		AdminTokenHash:  cfg.AdminTokenHash,
		AdminTOTPSecret: cfg.AdminTOTPSecret,
		UploadLimiter:   limiter,
	})

	// ReadTimeout leaves room for 5 MB image uploads on slow links.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("server stopped gracefully")
		return nil
	})
	return g.Wait()
}
