package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/hireloop/resume-import/internal/application/resumeimport"
	"github.com/hireloop/resume-import/internal/bootstrap"
	"github.com/hireloop/resume-import/internal/config"
	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
	"github.com/hireloop/resume-import/internal/infrastructure/audit"
	"github.com/hireloop/resume-import/internal/infrastructure/db/models"
	"github.com/hireloop/resume-import/internal/infrastructure/extractor"
	infrafile "github.com/hireloop/resume-import/internal/infrastructure/file"
	"github.com/hireloop/resume-import/internal/infrastructure/lease"
	"github.com/hireloop/resume-import/internal/infrastructure/notify"
	"github.com/hireloop/resume-import/internal/infrastructure/repository"
	"github.com/hireloop/resume-import/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log := logger.New(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	if cfg.AutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			log.WithError(err).Fatal("auto migrate failed")
		}
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to create pgx pool")
	}
	defer pool.Close()

	deps := app.CoordinatorDeps{
		Store:     repository.NewSessionStore(db),
		Gateway:   repository.NewCandidateGateway(pool),
		Extractor: newExtractor(cfg, log),
		Lease:     lease.NewMemoryLease(),
		Log:       log,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, session leases stay in-process")
		} else {
			deps.Lease = lease.NewRedisLease(rdb, cfg.LeaseTTL, log)
			log.Info("connected to redis")
		}
		cancel()
	}

	if cfg.S3.Bucket != "" {
		store, err := infrafile.NewS3Store(context.Background(), infrafile.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to configure object storage")
		}
		deps.Objects = store
	}

	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.WithError(err).Fatal("error connecting to RabbitMQ")
		}
		defer conn.Close()

		publisher, err := notify.NewAMQPPublisher(conn, cfg.RabbitMQExchange)
		if err != nil {
			log.WithError(err).Fatal("failed to set up session update publisher")
		}
		defer publisher.Close()
		deps.Notifier = publisher
	}

	writers := []audit.Writer{
		audit.WriterFunc(repository.NewAuditEventRepository(db).Insert),
		audit.NewLogWriter(log),
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter := audit.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		defer kafkaWriter.Close()
		writers = append(writers, kafkaWriter)
	}
	dispatcher := audit.NewDispatcher(log, 0, writers...)
	deps.Audit = dispatcher

	policy := domain.DefaultResumePolicy()
	policy.Window = cfg.Import.ResumeWindow

	coordinator := app.NewSessionCoordinator(deps, app.CoordinatorConfig{
		Concurrency:  cfg.Import.Concurrency,
		MaxFiles:     cfg.Import.MaxFiles,
		MaxFileBytes: cfg.Import.MaxFileBytes,
		Retry: app.RetryOptions{
			MaxRetries:        cfg.Import.MaxRetries,
			InitialDelay:      cfg.Import.InitialDelay,
			MaxDelay:          cfg.Import.MaxDelay,
			BackoffMultiplier: cfg.Import.BackoffMultiplier,
			AttemptTimeout:    cfg.Import.AttemptTimeout,
		},
		ResumePolicy: policy,
	})

	importCtx, stopImports := context.WithCancel(context.Background())
	defer stopImports()
	coordinator.Start(importCtx)

	pathImport := app.NewStartImportFromPaths(infrafile.NewLocalSource(cfg.ImportDir), coordinator, cfg.Import.MaxFileBytes)

	server := bootstrap.NewHTTPServer(bootstrap.ServerDeps{
		Coordinator:  coordinator,
		PathImport:   pathImport,
		MaxFileBytes: cfg.Import.MaxFileBytes,
		BodyLimit:    cfg.HTTPBodyLimit,
		Log:          log,
	})

	go func() {
		if err := server.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	// Unfinished sessions stay in_progress and are picked up by the next run
	// of the same batch.
	stopImports()
	coordinator.Wait()

	if err := dispatcher.Close(ctx); err != nil {
		log.WithError(err).Warn("audit events left unwritten")
	}
	log.Info("shutdown complete")
}

func newExtractor(cfg *config.Config, log logrus.FieldLogger) domain.Extractor {
	text := extractor.NewTextExtractor()
	if cfg.OpenAIKey == "" {
		log.Warn("OPENAI_API_KEY not set, using heuristic field extraction")
		return extractor.NewHeuristicExtractor(text)
	}
	return extractor.NewOpenAIExtractor(cfg.OpenAIKey, cfg.OpenAIModel, text)
}
