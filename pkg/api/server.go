package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mapstack/osmindex/pkg/config"
)

// NewServer creates an HTTP server with all routes and middleware:
// security headers, a concurrency limiter, panic recovery, graceful
// shutdown, a request-ID middleware, and zap logging.
func NewServer(cfg config.ServerConfig, handlers *Handlers, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()

	sem := make(chan struct{}, cfg.MaxConcurrent)

	mux.HandleFunc("POST /api/v1/route", withMiddleware(handlers.HandleRoute, sem, cfg, logger))
	mux.HandleFunc("GET /api/v1/health", withMiddleware(handlers.HandleHealth, sem, cfg, logger))
	mux.HandleFunc("GET /api/v1/stats", withMiddleware(handlers.HandleStats, sem, cfg, logger))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until a shutdown signal.
func ListenAndServe(srv *http.Server, logger *zap.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// withMiddleware wraps a handler with a request ID, logging, recovery,
// security headers, and concurrency limiting.
func withMiddleware(handler http.HandlerFunc, sem chan struct{}, cfg config.ServerConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, requestID := withRequestID(r.Context())
		w.Header().Set("X-Request-Id", requestID)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		if cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}

		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			w.Header().Set("Retry-After", "1")
			http.Error(w, `{"error":"service_unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic", zap.String("request_id", requestID), zap.Any("recover", rec))
				http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
			}
		}()

		reqCtx, cancel := context.WithTimeout(ctx, cfg.ReadTimeout+cfg.WriteTimeout)
		defer cancel()

		start := time.Now()
		handler(w, r.WithContext(reqCtx))
		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
