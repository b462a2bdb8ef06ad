package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medication-service/internal/config"
	"medication-service/internal/extraction"
	cronpkg "medication-service/internal/infrastructure/cron"
	infradb "medication-service/internal/infrastructure/db"
	"medication-service/internal/infrastructure/kafka"
	"medication-service/internal/infrastructure/postgres"
	redisinfra "medication-service/internal/infrastructure/redis"
	"medication-service/internal/infrastructure/smtp"
	"medication-service/internal/service"
	transporthttp "medication-service/internal/transport/http"
	"medication-service/internal/voice"
	"medication-service/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App represents the application
type App struct {
	config      *config.Config
	logger      *zap.Logger
	httpServer  *http.Server
	missSweeper *cronpkg.MissSweeper
	reminders   *voice.Manager
	producer    *kafka.Producer
	consumer    *kafka.Consumer
	dbPool      *pgxpool.Pool
	redisClient *goredis.Client

	consumerCancel context.CancelFunc
}

// New creates a new application
func New() (*App, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log.Info("configuration loaded", zap.String("service", cfg.Service.Name))

	// Initialize PostgreSQL connection pool
	ctx := context.Background()
	dbPool, err := infradb.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host))

	// Initialize repositories
	medicineRepo := postgres.NewMedicineRepository(dbPool)
	logRepo := postgres.NewActionLogRepository(dbPool)

	// Redis backs the log cache. The service runs without it, so a failed
	// connection only costs the cache.
	var (
		redisClient *goredis.Client
		logCache    service.LogCache
	)
	redisClient, err = redisinfra.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn("failed to connect to Redis, running without cache", zap.Error(err))
		redisClient = nil
	} else {
		logCache = redisinfra.NewLogCache(redisClient, cfg.Cache.TTL, log)
		log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Kafka publishes medication events for the alert pipeline.
	var (
		producer  *kafka.Producer
		consumer  *kafka.Consumer
		publisher service.EventPublisher
	)
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(&cfg.Kafka, log)
		publisher = producer
		log.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Initialize services
	policy := service.SchedulePolicy{
		ConfirmWindowMinutes: cfg.Scheduler.ConfirmWindowMinutes,
		MissGraceMinutes:     cfg.Scheduler.MissGraceMinutes,
		UpcomingSlackMinutes: cfg.Scheduler.UpcomingSlackMinutes,
	}
	scheduleService := service.NewScheduleService(medicineRepo, logRepo, publisher, logCache, policy, log)
	medicineService := service.NewMedicineService(medicineRepo)

	// Caregiver alerts consume the event stream.
	if cfg.Kafka.Enabled && cfg.Alerts.Enabled {
		smtpClient, err := smtp.NewClient(&cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
		alertService := service.NewAlertService(smtpClient, cfg.Alerts.CaregiverEmail, log)
		consumer = kafka.NewConsumer(&cfg.Kafka, alertService, log)
		log.Info("alert consumer initialized", zap.String("topic", cfg.Kafka.Topic))
	}

	// Initialize miss sweeper (if enabled)
	var missSweeper *cronpkg.MissSweeper
	if cfg.Scheduler.Enabled {
		missSweeper = cronpkg.NewMissSweeper(scheduleService, cfg.Scheduler.SweepInterval, log)
		log.Info("miss sweeper initialized", zap.Duration("interval", cfg.Scheduler.SweepInterval))
	} else {
		log.Info("miss sweeper is disabled in configuration")
	}

	// Voice reminder sessions
	voicePolicy := voice.Policy{
		TriggerBandMinutes: cfg.Voice.TriggerBandMinutes,
		CheckInterval:      cfg.Voice.CheckInterval,
		SnoozeDuration:     cfg.Voice.SnoozeDuration,
		EnforceWindow:      cfg.Voice.EnforceWindow,
		TakenDismissDelay:  voice.DefaultPolicy().TakenDismissDelay,
		SkipDismissDelay:   voice.DefaultPolicy().SkipDismissDelay,
		SnoozeDismissDelay: voice.DefaultPolicy().SnoozeDismissDelay,
	}
	reminders := voice.NewManager(
		scheduleService,
		func(userID string) voice.Synthesizer {
			return &voice.LogSynthesizer{UserID: userID, Logger: log}
		},
		func(userID string) voice.Recognizer {
			return voice.NewPassiveRecognizer()
		},
		voicePolicy,
		log,
	)

	// Prescription extraction is optional: without an API key the endpoint
	// reports itself unavailable.
	var extractor *extraction.Client
	if cfg.Extraction.APIKey != "" {
		extractor = extraction.NewClient(&cfg.Extraction, log)
		log.Info("prescription extraction initialized", zap.String("model", cfg.Extraction.Model))
	}

	// Initialize HTTP transport
	router := transporthttp.NewRouter(
		transporthttp.NewMedicineHandler(medicineService),
		transporthttp.NewScheduleHandler(scheduleService, reminders),
		transporthttp.NewReminderHandler(reminders),
		transporthttp.NewExtractionHandler(extractor, medicineService),
		log,
		cfg.HTTP.RatePerMin,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		config:      cfg,
		logger:      log,
		httpServer:  httpServer,
		missSweeper: missSweeper,
		reminders:   reminders,
		producer:    producer,
		consumer:    consumer,
		dbPool:      dbPool,
		redisClient: redisClient,
	}, nil
}

// Run starts the application
func (a *App) Run() error {
	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start miss sweeper if enabled
	if a.missSweeper != nil {
		if err := a.missSweeper.Start(); err != nil {
			return fmt.Errorf("failed to start miss sweeper: %w", err)
		}
	}

	// Start alert consumer if enabled
	if a.consumer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.consumerCancel = cancel
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("alert consumer stopped", zap.Error(err))
			}
		}()
	}

	// Start HTTP server in a goroutine
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	a.logger.Info("service started",
		zap.String("service", a.config.Service.Name),
		zap.Int("port", a.config.HTTP.Port))

	// Wait for interrupt signal
	<-quit
	a.logger.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown", zap.Error(err))
	}

	// Stop reminder sessions
	a.reminders.Shutdown()

	// Stop miss sweeper
	if a.missSweeper != nil {
		a.missSweeper.Stop()
	}

	// Stop alert consumer
	if a.consumerCancel != nil {
		a.consumerCancel()
	}

	// Close Kafka producer
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close Kafka producer", zap.Error(err))
		}
	}

	// Close Redis client
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close Redis client", zap.Error(err))
		}
	}

	// Close database pool
	a.dbPool.Close()

	a.logger.Info("server shutdown complete")
	a.logger.Sync()
	return nil
}
