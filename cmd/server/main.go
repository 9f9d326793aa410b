package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/funillab/insta-dash-server/internal/config"
	"github.com/funillab/insta-dash-server/internal/database"
	"github.com/funillab/insta-dash-server/internal/handler"
	"github.com/funillab/insta-dash-server/internal/insights"
	"github.com/funillab/insta-dash-server/internal/jobs"
	"github.com/funillab/insta-dash-server/internal/middleware"
	"github.com/funillab/insta-dash-server/internal/redis"
	"github.com/funillab/insta-dash-server/internal/repository"
	"github.com/funillab/insta-dash-server/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	adminRepo := repository.NewAdministratorRepository(db.DB)
	clientRepo := repository.NewClientRepository(db.DB)
	metricRepo := repository.NewMetricRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)

	insightsClient := insights.NewClient(cfg.GraphAPIBaseURL, config.InsightsRequestTimeout)

	authService := service.NewAuthService(adminRepo, clientRepo, sessionRepo, cfg.SessionSecret)
	clientService := service.NewClientService(clientRepo, metricRepo, sessionRepo)
	metricsService := service.NewMetricsService(metricRepo)
	collectorService := service.NewCollectorService(clientRepo, metricRepo, insightsClient)

	sessionMiddleware := middleware.NewSessionMiddleware(authService)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.APIRateLimitPerMin)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	adminHandler := handler.NewAdminHandler(
		authService, clientService, metricsService, collectorService,
		sessionMiddleware.RequireAdmin, isProduction,
	)
	dashboardHandler := handler.NewDashboardHandler(
		authService, clientService, metricsService, collectorService,
		sessionMiddleware.RequireClient, rateLimitMiddleware.Handler, isProduction,
	)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard/", http.StatusFound)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)
		r.Mount("/", adminHandler.Routes())
		r.NotFound(handler.StaticFileServer("static/admin").ServeHTTP)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)
		r.Mount("/", dashboardHandler.Routes())
		r.NotFound(handler.StaticFileServer("static/dashboard").ServeHTTP)
	})

	collectorJob := jobs.NewCollectorJob(collectorService)
	cleanupJob := jobs.NewSessionCleanupJob(sessionRepo)

	jobManager := jobs.NewManager()
	if err := jobManager.Register(cfg.CollectSchedule(), collectorJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register collector job")
	}
	if err := jobManager.Register(config.SessionCleanupSchedule, cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register cleanup job")
	}
	jobManager.Start()
	defer jobManager.Stop()

	// Catch up on today's samples right away instead of waiting a full
	// interval after a deploy.
	go collectorJob.Run()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
