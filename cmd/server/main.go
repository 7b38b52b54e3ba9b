package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/spf13/pflag"
	"github.com/toosila/toosila-api/internal/auth"
	"github.com/toosila/toosila-api/internal/cache"
	"github.com/toosila/toosila-api/internal/config"
	"github.com/toosila/toosila-api/internal/database"
	"github.com/toosila/toosila-api/internal/events"
	"github.com/toosila/toosila-api/internal/handler"
	"github.com/toosila/toosila-api/internal/logging"
	"github.com/toosila/toosila-api/internal/middleware"
	"github.com/toosila/toosila-api/internal/repository"
	"github.com/toosila/toosila-api/internal/service"
	"github.com/toosila/toosila-api/pkg/utils"
)

func main() {
	envFile := pflag.String("env-file", "", "path to a .env file (defaults to ./.env)")
	port := pflag.String("port", "", "listen port, overrides PORT")
	pflag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	// Load configuration
	cfg, err := config.Load(envFiles...)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize New Relic (optional)
	var nrApp *newrelic.Application
	if cfg.NewRelicEnabled && cfg.NewRelicLicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelicAppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", "error", err)
		} else if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			logger.Warn("New Relic connection timeout", "error", err)
		} else {
			logger.Info("New Relic connected")
		}
	}

	// Initialize PostgreSQL
	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// Initialize Redis
	redis, err := database.NewRedis(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()
	logger.Info("connected to Redis")

	// Event publisher
	publisher := events.NewNoopPublisher()
	if cfg.AMQPURL != "" {
		publisher, err = events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		logger.Info("publishing events", "exchange", cfg.EventsExchange)
	}
	defer publisher.Close()

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	unreadCounter := cache.NewUnreadCounter(redis.Client)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	offerRepo := repository.NewOfferRepository(db.DB)
	demandRepo := repository.NewDemandRepository(db.DB)
	bookingRepo := repository.NewBookingRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	ratingRepo := repository.NewRatingRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	// Initialize services
	pricingService := service.NewPricingService()
	notificationService := service.NewNotificationService(notificationRepo, unreadCounter, logger)
	authService := service.NewAuthService(userRepo, jwtService)
	offerService := service.NewOfferService(db.DB, offerRepo, bookingRepo, userRepo, pricingService)
	demandService := service.NewDemandService(demandRepo, userRepo)
	bookingService := service.NewBookingService(db.DB, bookingRepo, offerRepo, userRepo, pricingService, notificationService, publisher, logger)
	messageService := service.NewMessageService(messageRepo, userRepo, bookingRepo, offerRepo, notificationService, publisher, logger)
	ratingService := service.NewRatingService(db.DB, ratingRepo, bookingRepo, offerRepo, userRepo, notificationService, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	offerHandler := handler.NewOfferHandler(offerService, bookingService, logger)
	demandHandler := handler.NewDemandHandler(demandService, logger)
	bookingHandler := handler.NewBookingHandler(bookingService, logger)
	messageHandler := handler.NewMessageHandler(messageService, logger)
	ratingHandler := handler.NewRatingHandler(ratingService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)

	// Create router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Retry-After", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if nrApp != nil {
		r.Use(middleware.NewRelicMiddleware(nrApp))
	}

	rateLimiter := middleware.NewRateLimiter(redis.Client, cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	idempotency := middleware.NewIdempotencyMiddleware(redis.Client, logger)

	health := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := db.Health(ctx); err != nil {
			utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		if err := redis.Health(ctx); err != nil {
			utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "redis": "down"})
			return
		}

		utils.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"services": map[string]string{"database": "up", "redis": "up"},
		})
	}
	r.Get("/health", health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)

		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.Handler)
			r.Use(idempotency.Handler)
			authHandler.RegisterPublicRoutes(r)
			offerHandler.RegisterPublicRoutes(r)
			demandHandler.RegisterPublicRoutes(r)
			ratingHandler.RegisterPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtService))
			r.Use(rateLimiter.Handler)
			r.Use(idempotency.Handler)
			authHandler.RegisterRoutes(r)
			offerHandler.RegisterRoutes(r)
			demandHandler.RegisterRoutes(r)
			bookingHandler.RegisterRoutes(r)
			messageHandler.RegisterRoutes(r)
			ratingHandler.RegisterRoutes(r)
			notificationHandler.RegisterRoutes(r)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
