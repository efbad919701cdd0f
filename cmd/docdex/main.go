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

	"github.com/kailas-cloud/docdex/internal/config"
	logpkg "github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/repository/cache"
	"github.com/kailas-cloud/docdex/internal/repository/corpus"
	"github.com/kailas-cloud/docdex/internal/repository/hosted"
	chiTransport "github.com/kailas-cloud/docdex/internal/transport/chi"
	chatuc "github.com/kailas-cloud/docdex/internal/usecase/chat"
	"github.com/kailas-cloud/docdex/internal/usecase/prompt"
	retrievaluc "github.com/kailas-cloud/docdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/docdex/internal/version"
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

	logger.Info("Starting docdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("retrieval_backend", cfg.Retrieval.Backend),
	)

	// Register retrieval metrics explicitly (no init())
	metrics.RegisterRetrievalMetrics()

	// Retrieval backend — composition root
	var backend retrievaluc.SearchBackend
	var corpusStore *corpus.Store
	switch cfg.Retrieval.Backend {
	case "hosted":
		backend = hosted.NewClient(&hosted.Config{
			BaseURL: cfg.Retrieval.HostedBaseURL,
			Timeout: time.Duration(cfg.Retrieval.HostedTimeout) * time.Second,
			Logger:  logger,
		})
	default:
		corpusStore = corpus.New(cfg.Corpus.SnapshotPath, logger)
		backend = retrievaluc.NewLocal(corpusStore, logger)

		// Load eagerly so a broken snapshot surfaces at startup, not on
		// the first request. A failure degrades to empty results.
		if _, err := corpusStore.Load(context.Background()); err != nil {
			logger.Warn("corpus snapshot unavailable at startup", zap.Error(err))
		}
	}

	formatter := prompt.New(cfg.Retrieval.MaxContentChars)

	retrievalSvc := retrievaluc.New(backend, cfg.Retrieval.Backend, formatter, logger).
		WithMaxSubQueries(cfg.Retrieval.MaxSubQueries)

	var contextCache *cache.ContextCache
	if cfg.Cache.Enabled {
		contextCache, err = cache.New(&cache.Config{
			Addrs:     cfg.Cache.Addrs,
			Password:  cfg.Cache.Password,
			TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
			KeyPrefix: cfg.Cache.KeyPrefix,
			Logger:    logger,
		})
		if err != nil {
			logger.Fatal("Failed to create context cache", zap.Error(err))
		}
		defer contextCache.Close()
		retrievalSvc = retrievalSvc.WithCache(contextCache)
		logger.Info("Context cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	chatSvc := chatuc.New(&chatuc.Config{
		APIKey:         cfg.Model.APIKey,
		BaseURL:        cfg.Model.BaseURL,
		Model:          cfg.Model.Name,
		Timeout:        time.Duration(cfg.Model.TimeoutSec) * time.Second,
		Retriever:      retrievalSvc,
		RetrievalLimit: cfg.Retrieval.Limit,
		Logger:         logger,
	})

	// corpusStore is nil for the hosted backend; health reports backend only.
	var corpusChecker chiTransport.CorpusChecker
	if corpusStore != nil {
		corpusChecker = corpusStore
	}

	server := chiTransport.NewServer(
		chatSvc, retrievalSvc, corpusChecker, cfg.Retrieval.Backend, cfg.Retrieval.Limit, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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

			// Canonical log line — one line per request
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
