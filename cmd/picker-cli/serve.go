package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-picker/components/pickers"
	"github.com/goliatone/go-picker/internal/config"
	logpkg "github.com/goliatone/go-picker/internal/logger"
	"github.com/goliatone/go-picker/internal/metrics"
)

func runServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "picker.yaml", "configuration file")
	addr := fs.String("addr", "", "listen address (overrides http.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := logpkg.New(cfg.Env, cfg.Logging.Level)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, filepath.Dir(*configPath), logger)
	if err != nil {
		_ = logger.Sync()
		return err
	}
	defer rt.Close()

	metrics.Register(nil)

	opts := []pickers.OptionFn{
		pickers.WithRoutePath(cfg.HTTP.RoutePath),
		pickers.WithDefaultLimit(cfg.HTTP.DefaultLimit),
		pickers.WithMaxLimit(cfg.HTTP.MaxLimit),
		pickers.WithEmptySearchMode(pickers.EmptySearchMode(cfg.HTTP.EmptySearch)),
		pickers.WithLogger(logger),
	}
	for _, p := range rt.pickers {
		opts = append(opts, pickers.WithPicker(p))
	}
	component := pickers.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := component.Refresh(ctx); err != nil {
		logger.Warn("initial refresh incomplete", zap.Error(err))
	}
	if interval := time.Duration(cfg.HTTP.RefreshIntervalSec) * time.Second; interval > 0 {
		go refreshLoop(ctx, component, interval)
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mount, err := component.RegisterRoutes(r, cfg.HTTP.BasePath)
	if err != nil {
		return err
	}

	listen := cfg.HTTP.Addr
	if *addr != "" {
		listen = *addr
	}
	srv := &http.Server{
		Addr:         listen,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", listen),
			zap.String("mount", mount),
			zap.Strings("pickers", component.Names()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func refreshLoop(ctx context.Context, component *pickers.Component, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = component.Refresh(ctx)
		}
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			reqLogger := logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
			next.ServeHTTP(ww, r.WithContext(logpkg.ContextWithLogger(r.Context(), reqLogger)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			}
			if ww.Status() >= http.StatusInternalServerError {
				reqLogger.Error("request failed", fields...)
				return
			}
			reqLogger.Debug("request", fields...)
		})
	}
}
