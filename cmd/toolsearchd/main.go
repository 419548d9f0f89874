// Command toolsearchd serves the search engine over HTTP for development
// and integration testing. It stands in for the hosting application; the
// engine's real surface is the toolsearch library API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gdziedzic/toolsearch/internal/catalog"
	"github.com/gdziedzic/toolsearch/internal/clock"
	"github.com/gdziedzic/toolsearch/internal/config"
	"github.com/gdziedzic/toolsearch/internal/deepsearch"
	"github.com/gdziedzic/toolsearch/internal/indexer"
	logpkg "github.com/gdziedzic/toolsearch/internal/logger"
	"github.com/gdziedzic/toolsearch/internal/session"
	"github.com/gdziedzic/toolsearch/internal/store"
	storememory "github.com/gdziedzic/toolsearch/internal/store/memory"
	storeredis "github.com/gdziedzic/toolsearch/internal/store/redis"
	chiTransport "github.com/gdziedzic/toolsearch/internal/transport/chi"
	"github.com/gdziedzic/toolsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting toolsearch harness",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
	)

	st, err := createStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer st.Close()

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load tool catalog",
			zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	logger.Info("Tool catalog loaded", zap.Int("tools", len(cat.All())))

	builder := indexer.New(indexer.Config{
		Store:          st,
		Redactor:       indexer.NewRedactor(cfg.Privacy.SensitiveKeywords),
		Clock:          clock.System{},
		Logger:         logger,
		ClipboardLimit: cfg.Search.ClipboardLimit,
	})

	ctx := context.Background()
	sess := session.New(ctx, session.Config{
		Catalog:  cat,
		Store:    st,
		Builder:  builder,
		Engine:   deepsearch.New(),
		Logger:   logger,
		Debounce: time.Duration(cfg.Search.DebounceMs) * time.Millisecond,
	})
	defer sess.Close()

	// Build the index up front so the first query is not slowed by the
	// lazy build.
	sess.RebuildIndex(ctx)

	server := chiTransport.NewServer(sess, logger)
	router := server.Router()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("HTTP server failed", zap.Error(err))
	case sig := <-stop:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func createStore(cfg config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return storememory.NewStore(), nil
	case "redis":
		s, err := storeredis.NewStore(storeredis.Config{
			Addrs:     cfg.Store.Addrs,
			Password:  cfg.Store.Password,
			KeyPrefix: cfg.Store.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		timeout := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(context.Background(), timeout); err != nil {
			s.Close()
			return nil, err
		}
		logger.Info("Redis store ready", zap.Strings("addrs", cfg.Store.Addrs))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
