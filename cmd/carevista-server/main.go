package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carevista/carevista/internal/config"
	"github.com/carevista/carevista/internal/domain/access"
	"github.com/carevista/carevista/internal/domain/consent"
	"github.com/carevista/carevista/internal/domain/discussion"
	"github.com/carevista/carevista/internal/domain/identity"
	"github.com/carevista/carevista/internal/domain/intake"
	"github.com/carevista/carevista/internal/domain/prescription"
	"github.com/carevista/carevista/internal/domain/session"
	"github.com/carevista/carevista/internal/domain/telemed"
	"github.com/carevista/carevista/internal/domain/translation"
	"github.com/carevista/carevista/internal/domain/triage"
	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
	"github.com/carevista/carevista/internal/platform/auth"
	"github.com/carevista/carevista/internal/platform/cache"
	"github.com/carevista/carevista/internal/platform/db"
	"github.com/carevista/carevista/internal/platform/middleware"
	"github.com/carevista/carevista/internal/platform/providers"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carevista-server",
		Short: "Telemedicine intake API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Translation cache. Redis when configured, in-process otherwise.
	var kv cache.KV = cache.NewMemoryKV()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		kv = cache.NewRedisKV(redis.NewClient(opts))
		logger.Info().Msg("using redis translation cache")
	}

	// Downstream providers
	stt := providers.NewWhisperClient(cfg.STTURL, cfg.ProviderTimeout(), logger)
	var completers []providers.Completer
	if cfg.LLMPrimaryURL != "" {
		completers = append(completers,
			providers.NewChatClient("primary", cfg.LLMPrimaryURL, cfg.LLMPrimaryKey, cfg.LLMPrimaryModel, cfg.ProviderTimeout(), logger))
	}
	if cfg.LLMSecondaryURL != "" {
		completers = append(completers,
			providers.NewChatClient("secondary", cfg.LLMSecondaryURL, cfg.LLMSecondaryKey, cfg.LLMSecondaryModel, cfg.ProviderTimeout(), logger))
	}
	llm := providers.NewOrchestrator(logger, completers...)
	rtcTokens := providers.NewRTCTokenBuilder(cfg.RTCAppID, cfg.RTCAppCertificate)

	// Storage and audit
	auditor := audit.NewPGRecorder(pool)
	txRunner := &db.TxRunner{Pool: pool}

	consentRepo := consent.NewRepoPG(pool)
	sessionRepo := session.NewRepoPG(pool)
	identityRepo := identity.NewRepoPG(pool)
	triageRepo := triage.NewRepoPG(pool)
	vitalsRepo := intake.NewVitalsRepoPG(pool)
	symptomRepo := intake.NewSymptomRepoPG(pool)
	summaryRepo := intake.NewSummaryRepoPG(pool)
	reportRepo := intake.NewReportRepoPG(pool)
	labReportRepo := intake.NewLabReportRepoPG(pool)
	prescriptionRepo := prescription.NewRepoPG(pool)
	discussionRepo := discussion.NewRepoPG(pool)
	telemedRepo := telemed.NewRepoPG(pool)

	// Services
	consentSvc := consent.NewService(consentRepo, auditor)
	identitySvc := identity.NewService(identityRepo, auditor, txRunner,
		consentRepo, triageRepo, vitalsRepo, symptomRepo, summaryRepo, reportRepo, labReportRepo, prescriptionRepo)
	sessionSvc := session.NewService(sessionRepo, auditor, identitySvc, cfg.SessionTimeout())
	gate := access.NewGate(sessionSvc, consentSvc)
	triageSvc := triage.NewService(triageRepo, consentSvc, auditor)
	intakeSvc := intake.NewService(vitalsRepo, symptomRepo, summaryRepo, reportRepo, labReportRepo,
		triageSvc, stt, llm, auditor)
	prescriptionSvc := prescription.NewService(prescriptionRepo, auditor)
	discussionSvc := discussion.NewService(discussionRepo)
	telemedSvc := telemed.NewService(telemedRepo, rtcTokens, auditor, time.Hour)
	translationSvc := translation.NewService(kv, llm, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.EchoErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": "0.1.0"})
	})

	apiV1 := e.Group("/api/v1")
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	consent.NewHandler(consentSvc, gate).RegisterRoutes(apiV1)
	session.NewHandler(sessionSvc).RegisterRoutes(apiV1)
	intake.NewHandler(intakeSvc, gate).RegisterRoutes(apiV1)
	triage.NewHandler(triageSvc, gate).RegisterRoutes(apiV1)
	prescription.NewHandler(prescriptionSvc, gate).RegisterRoutes(apiV1)
	discussion.NewHandler(discussionSvc, gate).RegisterRoutes(apiV1)
	telemed.NewHandler(telemedSvc, gate).RegisterRoutes(apiV1)
	translation.NewHandler(translationSvc).RegisterRoutes(apiV1)
	audit.NewHandler(auditor).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
