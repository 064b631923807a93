package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/expotrade/server/internal/api"
	"github.com/expotrade/server/internal/auth"
	"github.com/expotrade/server/internal/blob"
	"github.com/expotrade/server/internal/config"
	"github.com/expotrade/server/internal/domain/content"
	"github.com/expotrade/server/internal/domain/registrations"
	"github.com/expotrade/server/internal/domain/users"
	"github.com/expotrade/server/internal/email"
	"github.com/expotrade/server/internal/metrics"
	"github.com/expotrade/server/internal/otp"
	"github.com/expotrade/server/internal/storage/postgres"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ExpoTrade HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap the admin account if ADMIN_* env vars are set
- Serve the registration forms, content endpoints, and admin API
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("starting expotrade server")

	metrics.Init(Version, GitCommit, BuildDate)

	pool, err := newPool(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	dbCollector := metrics.NewDBCollector(pool)
	dbCollector.Start()
	defer dbCollector.Stop()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init failed: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry, cfg.Auth.Issuer)

	otpStore, err := newOTPStore(cfg, logger)
	if err != nil {
		return err
	}

	mailer, err := email.NewService(cfg.Email.APIKey, cfg.Email.From, cfg.Email.Enabled, logger)
	if err != nil {
		return fmt.Errorf("email service init failed: %w", err)
	}

	blobs, err := blob.New(cfg.Storage.Endpoint, cfg.Storage.Region, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.PublicURL)
	if err != nil {
		return fmt.Errorf("blob store init failed: %w", err)
	}
	if blobs == nil {
		logger.Warn().Msg("blob storage not configured; image uploads disabled")
	}

	usersService := users.NewService(repo, tokens, otpStore, mailer, cfg.Server.FrontendURL, cfg.OTP.TTL, logger)
	regsService := registrations.NewService(repo, logger)
	contentService := content.NewService(repo, blobs, logger)

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	bootstrapAdmin(bootstrapCtx, cfg, usersService, logger)
	cancel()

	router := api.NewRouter(api.Dependencies{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		Tokens:        tokens,
		Users:         usersService,
		Registrations: regsService,
		Content:       contentService,
		Build:         api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return runUntilSignal(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func newPool(cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConnections)
	poolCfg.MinConns = int32(cfg.Database.MaxIdle)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return pool, nil
}

func newOTPStore(cfg config.Config, logger zerolog.Logger) (otp.Store, error) {
	if cfg.OTP.RedisAddr == "" {
		logger.Info().Msg("using in-memory OTP store")
		return otp.NewMemoryStore(), nil
	}

	store, err := otp.NewRedisStore(cfg.OTP.RedisAddr, cfg.OTP.RedisPassword, cfg.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("redis OTP store init failed: %w", err)
	}
	logger.Info().Str("addr", cfg.OTP.RedisAddr).Msg("using redis OTP store")
	return store, nil
}

func bootstrapAdmin(ctx context.Context, cfg config.Config, service *users.Service, logger zerolog.Logger) {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Username == "" || bootstrap.Password == "" {
		return
	}

	created, err := service.BootstrapAdmin(ctx, bootstrap.Username, bootstrap.Email, bootstrap.Password)
	if err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
		return
	}
	if created {
		logger.Info().Str("username", bootstrap.Username).Msg("bootstrapped admin user")
	}
}

func runUntilSignal(server *http.Server, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
