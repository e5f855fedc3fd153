package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	cacheRedis "github.com/arsomjin/kbnsearch/internal/cache/redis"
	"github.com/arsomjin/kbnsearch/internal/config"
	dbMongo "github.com/arsomjin/kbnsearch/internal/db/mongo"
	"github.com/arsomjin/kbnsearch/internal/domain/access"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	logpkg "github.com/arsomjin/kbnsearch/internal/logger"
	"github.com/arsomjin/kbnsearch/internal/metrics"
	documentsrepo "github.com/arsomjin/kbnsearch/internal/repository/documents"
	chiTransport "github.com/arsomjin/kbnsearch/internal/transport/chi"
	healthuc "github.com/arsomjin/kbnsearch/internal/usecase/health"
	indexinguc "github.com/arsomjin/kbnsearch/internal/usecase/indexing"
	searchuc "github.com/arsomjin/kbnsearch/internal/usecase/search"
	selectoruc "github.com/arsomjin/kbnsearch/internal/usecase/selector"
	"github.com/arsomjin/kbnsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kbnsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("mongo_database", cfg.Mongo.Database),
	)

	ctx := context.Background()

	store, err := dbMongo.NewStore(ctx, dbMongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		logger.Fatal("Failed to create document store", zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Mongo.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Document store not ready", zap.Error(err))
	}
	logger.Info("Connected to document store")

	// Optional option cache; the selector degrades gracefully without it.
	var optionCache *cacheRedis.Cache
	if len(cfg.Cache.Addrs) > 0 {
		optionCache, err = cacheRedis.New(cacheRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create option cache", zap.Error(err))
		}
		defer optionCache.Close()
		logger.Info("Connected to option cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Repositories, one per source collection
	accountingRepo := documentsrepo.NewAccounting(store).WithCollection(cfg.Mongo.AccountingCollection)
	bookingsRepo := documentsrepo.NewBookings(store).WithCollection(cfg.Mongo.BookingsCollection)
	salesRepo := documentsrepo.NewSales(store).WithCollection(cfg.Mongo.SalesCollection)

	// Use case services
	searchSvc := searchuc.New(
		accountingRepo, bookingsRepo, salesRepo,
		searchuc.Limits{
			ResultCap:           cfg.Search.ResultCap,
			NamePrefixThreshold: cfg.Search.NamePrefixThreshold,
			RecentScanThreshold: cfg.Search.RecentScanThreshold,
			RecentFetchLimit:    cfg.Search.RecentFetchLimit,
			MinTermLength:       cfg.Search.MinTermLength,
			RecentWindow:        time.Duration(cfg.Search.RecentWindowDays) * 24 * time.Hour,
		},
		cfg.Search.UnscopedPolicy == "deny",
	)

	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var selCache selectoruc.Cache
	if optionCache != nil {
		selCache = optionCache
	}
	optionTTL := time.Duration(cfg.Cache.OptionTTLSec) * time.Second
	selectors := map[string]*selectoruc.Service{
		"accounting": selectoruc.New("accounting",
			func(ctx context.Context, term string, ac access.Context) []result.Result {
				return searchSvc.SearchAccounting(ctx, term, ac)
			}, selCache, cfg.Search.MinTermLength, optionTTL),
		"sale": selectoruc.New("sale",
			func(ctx context.Context, term string, ac access.Context) []result.Result {
				return searchSvc.SearchSale(ctx, term, "", ac)
			}, selCache, cfg.Search.MinTermLength, optionTTL),
	}

	indexingSvc := indexinguc.New(accountingRepo, bookingsRepo, salesRepo)

	var cachePinger healthuc.CachePinger
	if optionCache != nil {
		cachePinger = optionCache
	}
	healthSvc := healthuc.New(store, cachePinger)

	server := chiTransport.NewServer(searchSvc, selectors, indexingSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(accessProfiles(cfg.Access)))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// accessProfiles maps configured API keys to access contexts.
func accessProfiles(cfg config.AccessConfig) map[string]access.Context {
	profiles := make(map[string]access.Context, len(cfg.Profiles))
	for key, p := range cfg.Profiles {
		profiles[key] = access.New(p.Unrestricted, p.Provinces, p.Branches)
	}
	return profiles
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
