package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/config"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/postgres"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/security"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/service"
	httpx "github.com/muhammadhuzaifasarfraz/collab-sphere/internal/transport/http"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/transport/ws"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting messaging service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	messageRepo := postgres.NewMessageRepository(pool)
	identityRepo := postgres.NewIdentityRepository(pool)

	// --- services ---
	messageSvc := service.NewMessageService(messageRepo, identityRepo)
	conversationSvc := service.NewConversationService(messageRepo, identityRepo)

	// --- auth ---
	verifier := security.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.AuthClockSkew())

	// --- WS hub & server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, verifier, cfg.PingInterval(), cfg.PongTimeout())

	// --- HTTP ---
	handler := httpx.NewHandler(messageSvc, conversationSvc, hub)
	router := httpx.NewRouter(handler, verifier, wsServer, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
