package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/tasklist/api"
	"github.com/benvon/tasklist/internal/config"
	"github.com/benvon/tasklist/internal/database"
	"github.com/benvon/tasklist/internal/handlers"
	"github.com/benvon/tasklist/internal/logger"
	"github.com/benvon/tasklist/internal/middleware"
	"github.com/benvon/tasklist/internal/pipeline"
	"github.com/benvon/tasklist/internal/queue"
	"github.com/benvon/tasklist/internal/services/oidc"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/benvon/tasklist/internal/session"
	"github.com/benvon/tasklist/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Strings("frontend_origins", cfg.FrontendOrigins()),
		zap.Bool("queue_enabled", cfg.QueueEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	var remote todos.Remote
	otelActive := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName:    telemetry.ServiceName,
			ServiceVersion: version,
			Endpoint:       cfg.OTELEndpoint,
			SampleRatio:    cfg.OTELSampleRatio,
		}); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			otelActive = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	// Redis-backed rate limiting
	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	limiterStore, err := redisLimiter.Store()
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(limiterStore, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}
	zapLogger.Info("connected_to_redis", zap.String("rate_limit", cfg.RateLimit))

	// Repositories and the per-user todo stores
	todoRepo := database.NewTodoRepository(db)
	todoRepo.SetLogger(zapLogger)
	userRepo := database.NewUserRepository(db)

	remote = todoRepo
	if otelActive {
		remote = telemetry.NewTracedRemote(todoRepo, nil)
	}

	locale, err := language.Parse(cfg.CollationLocale)
	if err != nil {
		zapLogger.Warn("invalid_collation_locale_using_root",
			zap.String("locale", cfg.CollationLocale),
			zap.Error(err),
		)
		locale = pipeline.DefaultLocale
	}
	storeOpts := []todos.Option{
		todos.WithRemoteTimeout(cfg.RemoteTimeout),
		todos.WithPipeline(pipeline.New(locale)),
	}

	// Repair queue (optional)
	var jobQueue *queue.RabbitMQQueue
	if cfg.QueueEnabled() {
		jobQueue, err = queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, 10, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		storeOpts = append(storeOpts, todos.WithRepairQueue(jobQueue))
	} else {
		zapLogger.Warn("rabbitmq_not_configured_category_repairs_disabled")
	}
	sessions := session.NewManager(remote, zapLogger, session.Policy{
		RefreshAfter: cfg.SessionRefresh,
		IdleTimeout:  cfg.SessionIdle,
	}, storeOpts...)
	go sessions.Run(ctx, time.Minute)

	// Identity provider
	jwksManager := oidc.NewJWKSManager(&http.Client{Timeout: 10 * time.Second})
	verifier := oidc.NewVerifier(jwksManager, cfg.OIDCJWKSURL, cfg.OIDCIssuer, cfg.OIDCClientID)
	oauthClient := oidc.NewClient(oidc.ClientConfig{
		Issuer:       cfg.OIDCIssuer,
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURI:  cfg.OIDCRedirectURI,
	})
	authMW := middleware.Auth(verifier, userRepo, zapLogger)

	// Handlers
	authHandler := handlers.NewAuthHandler(oauthClient, verifier, sessions, zapLogger)
	todoHandler := handlers.NewTodoHandler(sessions, zapLogger)
	categoryHandler := handlers.NewCategoryHandler(sessions, zapLogger)
	paletteHandler := handlers.NewPaletteHandler()
	healthChecks := map[string]handlers.HealthCheckFunc{
		"database": db.HealthCheck,
		"redis":    redisLimiter.Ping,
	}
	if jobQueue != nil {
		healthChecks["rabbitmq"] = jobQueue.HealthCheck
	}
	healthChecker := handlers.NewHealthChecker(healthChecks)
	openAPIHandler, err := handlers.NewOpenAPIHandler(api.OpenAPI)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_document", zap.Error(err))
	}

	r := mux.NewRouter()

	// Middleware registered first wraps outermost
	if otelActive {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendOrigins(), debugMode))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	openAPIHandler.RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	publicAuth := apiRouter.PathPrefix("/auth").Subrouter()
	publicAuth.Use(rateLimitMW)
	authHandler.RegisterPublicRoutes(publicAuth)

	protected := apiRouter.PathPrefix("").Subrouter()
	protected.Use(authMW)
	protected.Use(rateLimitMW)
	authHandler.RegisterRoutes(protected.PathPrefix("/auth").Subrouter())
	todoHandler.RegisterRoutes(protected.PathPrefix("/todos").Subrouter())
	categoryHandler.RegisterRoutes(protected.PathPrefix("/categories").Subrouter())
	paletteHandler.RegisterRoutes(protected.PathPrefix("/palette").Subrouter())

	// CORS middleware answers preflights before routing; this keeps mux from 405ing them
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	if jobQueue != nil {
		dlqGC := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down", zap.Int("open_sessions", sessions.Len()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

const version = "1.0.0"

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"%s","timestamp":"%s"}`, version, time.Now().UTC().Format(time.RFC3339))
}
