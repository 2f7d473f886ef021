package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splithub/internal/ai"
	"github.com/mmynk/splithub/internal/assistant"
	"github.com/mmynk/splithub/internal/auth"
	"github.com/mmynk/splithub/internal/cache"
	"github.com/mmynk/splithub/internal/config"
	"github.com/mmynk/splithub/internal/events"
	"github.com/mmynk/splithub/internal/httpapi"
	"github.com/mmynk/splithub/internal/invite"
	"github.com/mmynk/splithub/internal/metrics"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/receipt"
	"github.com/mmynk/splithub/internal/service"
	"github.com/mmynk/splithub/internal/storage/sqlite"
	"github.com/mmynk/splithub/pkg/api"
	"github.com/mmynk/splithub/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	c, err := cache.New(ctx, cache.Options{
		RedisURL:   cfg.RedisURL,
		Size:       cfg.CacheSize,
		DefaultTTL: cfg.CacheTTL,
	})
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer c.Close()
	slog.Info("Cache initialized", "redis", cfg.RedisURL != "")

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenExpiry).
		WithDenylist(cache.NewTokenDenylist(c))
	authenticator := auth.NewPasswordAuthenticator(store)

	// Events go through the broker when one is configured; the worker
	// consumes them into the activity feed.
	var publisher events.Publisher = events.NewRecorder(store)
	if cfg.AMQPURL != "" {
		amqpClient, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		slog.Info("Publishing events to AMQP", "exchange", cfg.AMQPExchange)
	}

	var model ai.Generator = ai.Disabled{}
	if cfg.AIEnabled() {
		gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("initialize AI client: %w", err)
		}
		model = gemini
		slog.Info("AI enabled", "model", cfg.GeminiModel)
	} else {
		slog.Warn("GEMINI_API_KEY not set; AI endpoints will answer with fallbacks")
	}
	model = ai.Instrumented{Next: model}

	prompts, err := ai.LoadPrompts()
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	rest := httpapi.New(httpapi.Deps{
		Store:   store,
		Invites: invite.NewService(store, publisher, cfg.BaseURL, cfg.InviteTTL),
		Scanner: receipt.NewAIScanner(model, prompts.ReceiptOCR),
		Assistant: assistant.New(store, model, prompts,
			assistant.WithCache(c, cfg.CacheTTL),
			assistant.WithHistoryLimit(cfg.ChatHistory),
		),
		JWT:            jwtManager,
		Limiter:        limiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}).Router()

	mux := http.NewServeMux()

	// Register Connect services
	interceptors := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.LoggingInterceptor(),
		middleware.RequireAuth(jwtManager),
	)
	mux.Handle(api.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, store, slog.Default()), interceptors))
	mux.Handle(api.NewGroupServiceHandler(service.NewGroupService(store, publisher), interceptors))
	mux.Handle(api.NewSessionServiceHandler(service.NewSessionService(store, publisher), interceptors))
	mux.Handle(api.NewSubscriptionServiceHandler(service.NewSubscriptionService(store), interceptors))

	// REST, health and metrics
	mux.Handle("/api/", middleware.RequestLogger(rest))
	mux.Handle("/healthz", rest)
	mux.Handle("/metrics", rest)

	if cfg.StaticPath != "" {
		staticDir, err := filepath.Abs(cfg.StaticPath)
		if err != nil {
			return fmt.Errorf("resolve static path: %w", err)
		}
		slog.Info("Serving static files", "path", staticDir)
		mux.Handle("/", staticHandler(staticDir))
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(middleware.CORS(cfg.CORSOrigins)(mux), &http2.Server{})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", srv.Addr, "url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// staticHandler serves the frontend, falling back to index.html for unknown paths.
func staticHandler(staticDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown Connect procedures should not get the SPA page.
		if strings.HasPrefix(r.URL.Path, "/"+api.PackageName+".") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}
