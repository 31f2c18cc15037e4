package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tradeosbc/trade-dispatch-platform/cmd/mainconfig"
	"github.com/tradeosbc/trade-dispatch-platform/internal/api/router"
	"github.com/tradeosbc/trade-dispatch-platform/internal/clients"
	"github.com/tradeosbc/trade-dispatch-platform/internal/compliance"
	appconfig "github.com/tradeosbc/trade-dispatch-platform/internal/config"
	"github.com/tradeosbc/trade-dispatch-platform/internal/dispatch"
	"github.com/tradeosbc/trade-dispatch-platform/internal/events"
	"github.com/tradeosbc/trade-dispatch-platform/internal/evidence"
	"github.com/tradeosbc/trade-dispatch-platform/internal/http/handlers"
	"github.com/tradeosbc/trade-dispatch-platform/internal/industry"
	"github.com/tradeosbc/trade-dispatch-platform/internal/leads"
	"github.com/tradeosbc/trade-dispatch-platform/internal/messaging"
	"github.com/tradeosbc/trade-dispatch-platform/internal/observability/metrics"
	"github.com/tradeosbc/trade-dispatch-platform/internal/usage"
	"github.com/tradeosbc/trade-dispatch-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting trade-dispatch-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The compliance audit service runs on database/sql over the same
	// database.
	auditDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open audit db", "error", err)
		os.Exit(1)
	}
	defer auditDB.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	s3Client := s3.NewFromConfig(awsCfg)

	clientRepo := clients.NewPostgresRepository(pool)
	leadRepo := leads.NewPostgresRepository(pool)
	leadLocker := leads.NewPhoneMutex(redisClient, cfg.LeadLockTTL)
	industryRepo := industry.NewCachedRepository(
		industry.NewPostgresRepository(pool),
		redisClient,
		cfg.IndustryCacheTTL,
		logger.WithComponent("industry_cache").Logger,
	)
	auditService := compliance.NewAuditService(auditDB)
	usageRecorder := usage.NewPostgresRecorder(pool, cfg.TokenUnitPrice)
	processedStore := events.NewPostgresStore(pool)
	archiver := evidence.NewArchiver(
		s3Client,
		cfg.EvidenceBucket,
		cfg.EvidencePublicBaseURL,
		cfg.MediaFetchTimeout,
		logger.WithComponent("evidence").Logger,
	)

	llm, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	sender := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, logger.WithComponent("twilio"))
	messagingMetrics := metrics.NewMessagingMetrics(nil)

	pipeline := dispatch.NewService(
		clientRepo,
		leadRepo,
		leadLocker,
		industryRepo,
		auditService,
		usageRecorder,
		archiver,
		processedStore,
		llm,
		sender,
		messagingMetrics,
		logger.WithComponent("dispatch").Logger,
		dispatch.ServiceOptions{
			Model:         cfg.OpenAIModel,
			MaxTokens:     int32(cfg.ReplyMaxTokens),
			Temperature:   float32(cfg.LLMTemperature),
			LLMTimeout:    cfg.LLMTimeout,
			HistoryMaxLen: cfg.HistoryMaxLen,
		},
	)

	webhookHandler := handlers.NewSMSWebhookHandler(handlers.SMSWebhookConfig{
		Pipeline:        pipeline,
		Logger:          logger.WithComponent("webhook"),
		TwilioAuthToken: cfg.TwilioAuthToken,
	})
	adminHandler := handlers.NewAdminHandler(clientRepo, leadRepo, industryRepo, logger.WithComponent("admin"))

	r := router.New(&router.Config{
		Logger:         logger,
		WebhookHandler: webhookHandler,
		AdminHandler:   adminHandler,
		AdminJWTSecret: cfg.AdminJWTSecret,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLLMClient assembles the OpenAI primary with an optional Gemini
// failover.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (dispatch.LLMClient, error) {
	primary, err := dispatch.NewOpenAILLMClient(cfg.OpenAIAPIKey)
	if err != nil {
		return nil, err
	}

	var fallback dispatch.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := dispatch.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini fallback unavailable", "error", err)
		} else {
			fallback = gemini
		}
	}

	return dispatch.NewFallbackLLMClient(primary, fallback, logger.WithComponent("llm").Logger), nil
}
