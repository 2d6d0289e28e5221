package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/drukstay/internal/featureflags"
	"github.com/yourorg/drukstay/internal/handler"
	"github.com/yourorg/drukstay/internal/infrastructure/logger"
	"github.com/yourorg/drukstay/internal/infrastructure/redis"
	"github.com/yourorg/drukstay/internal/observability/metrics"
	"github.com/yourorg/drukstay/internal/observability/tracing"
	"github.com/yourorg/drukstay/internal/realtime"
	"github.com/yourorg/drukstay/internal/reliability/retry"
	"github.com/yourorg/drukstay/internal/repository"
	"github.com/yourorg/drukstay/internal/security/audit"
	"github.com/yourorg/drukstay/internal/security/auth"
	"github.com/yourorg/drukstay/internal/security/middleware"
	"github.com/yourorg/drukstay/internal/security/ratelimit"
	"github.com/yourorg/drukstay/internal/service"
	"github.com/yourorg/drukstay/internal/storage"
	"github.com/yourorg/drukstay/internal/worker"
	"github.com/yourorg/drukstay/pkg/cache"
	"github.com/yourorg/drukstay/pkg/config"
	"github.com/yourorg/drukstay/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting DrukStay server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "drukstay", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Connect to Postgres, retrying while the database comes up
	pool, err := retry.Do(ctx, retry.StartupConfig(), log, "db-connect",
		func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, &database.Config{
				Host:     cfg.DBHost,
				Port:     cfg.DBPort,
				User:     cfg.DBUser,
				Password: cfg.DBPassword,
				Database: cfg.DBName,
				SSLMode:  cfg.DBSSLMode,
			}, log)
		})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Redis backs the image byte cache; the server runs without it when
	// the flag is off or the connection fails.
	var redisClient *redis.Client
	if featureflags.Enabled("image_cache") {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn("image cache disabled: redis unavailable", slog.String("error", err.Error()))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 6. Initialize repositories and storage
	userRepo := repository.NewPostgresUserRepository(pool.GetDB(), log)
	propertyRepo := repository.NewPostgresPropertyRepository(pool.GetDB(), log)

	var imageCache storage.ByteCache
	if redisClient != nil {
		imageCache = redisClient
	}
	imageStore, err := storage.New(cfg.ImageDir, cfg.ImageBasePath, imageCache, log)
	if err != nil {
		log.Error("failed to initialize image store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Initialize services
	hub := realtime.New(log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "drukstay", cfg.SessionTTL, cfg.IsProduction())
	authService := service.NewAuthService(userRepo, tokenManager, log)
	propertyService := service.NewPropertyService(propertyRepo, userRepo, imageStore, hub, log)

	// 7a. Initialize security components
	rateLimiter := ratelimit.NewLimiter(100, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 8. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, tokenManager, rateLimiter, auditLogger, log)
	propertiesHandler := handler.NewPropertiesHandler(propertyService, auditLogger, log)
	uploadsHandler := handler.NewUploadsHandler(imageStore, cfg.MaxUploadBytes, log)
	imagesHandler := handler.NewImagesHandler(imageStore, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient)
	mapSocketHandler := handler.NewMapSocketHandler(propertyService, hub, cache.New(), cfg.CORSAllowedOrigins, log)

	// 9. Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/user/me", authHandler.Me)
	mux.HandleFunc("PATCH /api/user/me", authHandler.UpdateMe)
	mux.HandleFunc("GET /api/properties", propertiesHandler.List)
	mux.HandleFunc("POST /api/properties", propertiesHandler.Create)
	mux.HandleFunc("PUT /api/properties/{id}", propertiesHandler.Update)
	mux.HandleFunc("DELETE /api/properties/{id}", propertiesHandler.Delete)
	mux.HandleFunc("PATCH /api/properties/{id}/availability", propertiesHandler.Toggle)
	mux.HandleFunc("GET /api/properties/available", propertiesHandler.Available)
	mux.HandleFunc("POST /api/uploads", uploadsHandler.Upload)
	mux.HandleFunc("GET "+cfg.ImageBasePath+"/{file}", imagesHandler.Serve)
	mux.Handle("GET /ws/map", mapSocketHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins; the frontend sends the
	// session cookie, so credentials must be allowed.
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> session -> rate limit ->
	// content type -> CORS/routes
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.SessionMiddleware(tokenManager, log)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.ValidateJSONContentType(log)(handlerWithCORS),
				),
			),
		),
		log,
	)

	// 10. Start the image janitor in the background
	janitor := worker.NewImageJanitor(
		propertyRepo,
		cfg.ImageDir,
		cfg.ImageBasePath,
		cfg.ImageRetentionWindow,
		cfg.JanitorInterval,
		log,
	)
	go janitor.Start(ctx)

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "drukstay-http"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("image_cache", redisClient != nil),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop the janitor
	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
