package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/config"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/database"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/handler"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/middleware"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/repository"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/router"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/service"
	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/tracker"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.TrackerSink == config.TrackerSinkNATS {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	repos := repository.New(db)
	transactor := repository.NewTransactor(db)

	activityService := service.NewActivityService(repos, logger)
	userService := service.NewUserService(repos, transactor, activityService, validate, logger)
	classService := service.NewClassService(repos, transactor, activityService, validate, logger)
	studentService := service.NewStudentService(repos, transactor, activityService, validate, logger)
	creditService := service.NewCreditService(repos, transactor, activityService, validate, redisClient, cfg.StatsCacheTTL, logger)
	messageService := service.NewMessageService(repos, transactor, activityService, validate, logger)

	trackerSessions := tracker.NewRegistry(tracker.RegistryConfig{
		IdleTTL:     cfg.TrackerIdleTTL,
		MaxSessions: cfg.TrackerSessions,
	}, trackerOptions(cfg, logger, repos, redisClient, natsConn)...)
	logger.Info().
		Str("store", cfg.TrackerStore).
		Str("sink", cfg.TrackerSink).
		Dur("idle_ttl", cfg.TrackerIdleTTL).
		Int("max_sessions", cfg.TrackerSessions).
		Msg("activity tracker registry ready")

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		TrackerHandler: handler.NewTrackerHandler(trackerSessions, validate, logger),
		UserHandler:    handler.NewUserHandler(userService, validate, logger),
		ClassHandler:   handler.NewClassHandler(classService, messageService, validate, logger),
		StudentHandler: handler.NewStudentHandler(studentService, validate, logger),
		CreditHandler:  handler.NewCreditHandler(creditService, validate, logger),
		MessageHandler: handler.NewMessageHandler(messageService, validate, logger),
		AuditHandler:   handler.NewAuditHandler(activityService, logger),
		HealthProbes:   healthProbes(db, redisClient),
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func trackerOptions(cfg config.Config, logger zerolog.Logger, repos repository.Repositories, redisClient *redis.Client, natsConn *nats.Conn) []tracker.Option {
	opts := []tracker.Option{
		tracker.WithLogger(logger),
		tracker.WithCapacity(cfg.TrackerCapacity),
	}

	switch cfg.TrackerStore {
	case config.TrackerStoreMemory:
		opts = append(opts, tracker.WithStore(tracker.NewKVStore(tracker.NewMemoryKV())))
	case config.TrackerStoreRedis:
		opts = append(opts, tracker.WithStore(tracker.NewRedisStore(redisClient, "classtracker:tracker")))
	}

	switch cfg.TrackerSink {
	case config.TrackerSinkDurable:
		opts = append(opts, tracker.WithSinks(service.NewDurableSink(repos)))
	case config.TrackerSinkNATS:
		opts = append(opts, tracker.WithSinks(tracker.NewNATSSink(natsConn, cfg.NATSSubject, cfg.AppName)))
	}

	return opts
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
