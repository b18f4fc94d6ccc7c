package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contafacil/escritorio-go/internal/config"
	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/handler"
	"github.com/contafacil/escritorio-go/internal/infra/cache"
	"github.com/contafacil/escritorio-go/internal/infra/extract"
	"github.com/contafacil/escritorio-go/internal/infra/memstore"
	"github.com/contafacil/escritorio-go/internal/infra/observability"
	"github.com/contafacil/escritorio-go/internal/infra/resilience"
	"github.com/contafacil/escritorio-go/internal/infra/supabase"
	"github.com/contafacil/escritorio-go/internal/port"
	"github.com/contafacil/escritorio-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Int64("max_upload_bytes", cfg.MaxUploadBytes),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "contafacil-contabil")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	summaryCache := cache.New[domain.DashboardSummary](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Stores ---
	var docStore port.DocumentStore
	var clientStore port.ClientStore
	var obligationStore port.ObligationStore
	var feeStore port.FeeStore

	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		supabaseClient := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
		docStore = supabaseClient
		clientStore = supabaseClient
		obligationStore = supabaseClient
		feeStore = supabaseClient
	} else {
		logger.Info("using in-memory data backend")
		clients := memstore.NewClientStore()
		docs := memstore.NewDocumentStore()
		obligations := memstore.NewObligationStore()
		fees := memstore.NewFeeStore()
		if cfg.SeedDemoData {
			memstore.Seed(clients, docs, obligations, fees)
			logger.Info("seeded demo data")
		}
		docStore = docs
		clientStore = clients
		obligationStore = obligations
		feeStore = fees
	}

	// --- Extraction engine ---
	extractor := extract.NewEngine(logger)

	// --- Services ---
	docSvc := service.NewDocumentService(docStore, clientStore, extractor, metrics, logger, cfg.MaxUploadBytes)
	clientSvc := service.NewClientService(clientStore, logger)
	obligationSvc := service.NewObligationService(obligationStore, clientStore, logger)
	feeSvc := service.NewFeeService(feeStore, clientStore, logger)
	dashSvc := service.NewDashboardService(clientStore, obligationStore, docStore, feeStore, summaryCache, metrics, logger)
	alertSvc := service.NewAlertService(obligationStore, docStore, feeStore, logger)
	authSvc := service.NewAuthService(cfg.AuthUsername, cfg.AuthPasswordHash, []byte(cfg.JWTSecret), cfg.JWTAccessTTL, logger)

	// --- Router ---
	router := handler.NewRouter(docSvc, clientSvc, obligationSvc, feeSvc, dashSvc, alertSvc, authSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
