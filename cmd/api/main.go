package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/bramble/config"
	canonicalrepo "github.com/Ramsey-B/bramble/internal/repositories/canonical"
	decisionrepo "github.com/Ramsey-B/bramble/internal/repositories/decision"
	evaluationrepo "github.com/Ramsey-B/bramble/internal/repositories/evaluation"
	listingrepo "github.com/Ramsey-B/bramble/internal/repositories/listing"
	"github.com/Ramsey-B/bramble/pkg/admission"
	"github.com/Ramsey-B/bramble/pkg/database"
	"github.com/Ramsey-B/bramble/pkg/evaluator"
	"github.com/Ramsey-B/bramble/pkg/events"
	"github.com/Ramsey-B/bramble/pkg/geocode"
	"github.com/Ramsey-B/bramble/pkg/kafka"
	"github.com/Ramsey-B/bramble/pkg/matching"
	"github.com/Ramsey-B/bramble/pkg/merging"
	"github.com/Ramsey-B/bramble/pkg/middleware"
	"github.com/Ramsey-B/bramble/pkg/pipeline"
	"github.com/Ramsey-B/bramble/pkg/processor"
	"github.com/Ramsey-B/bramble/pkg/routes/health"
	listingroutes "github.com/Ramsey-B/bramble/pkg/routes/listing"
	"github.com/Ramsey-B/bramble/pkg/throttle"
	"github.com/Ramsey-B/bramble/pkg/tracing"
	"github.com/Ramsey-B/bramble/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := initTracing(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}

	db, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	dbInstance := database.NewDatabaseInstance(db, logger)

	listings := listingrepo.NewRepository(dbInstance, logger)
	canonical := canonicalrepo.NewRepository(dbInstance, logger)
	evaluations := evaluationrepo.NewRepository(dbInstance, logger)
	decisions := decisionrepo.NewRepository(dbInstance, logger)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()

	emitter := events.NewEmitter(producer, logger)

	matcher := matching.NewEngine(logger, matching.EngineConfig{
		GeoProximityMeters: cfg.GeoProximityMeters,
		NameDistanceMax:    cfg.NameDistanceMax,
		MinPhoneDigits:     cfg.MinPhoneDigits,
		RequireTwoSignals:  cfg.RequireTwoSignals,
	})
	merger := merging.NewEngine(logger)
	prefilter := admission.NewPreFilter(logger, admission.PreFilterConfig{
		MinDescriptionChars:    cfg.MinDescriptionChars,
		MaxListingAgeDays:      cfg.MaxListingAgeDays,
		FingerprintPrefixChars: cfg.FingerprintPrefixChars,
	})
	quality := admission.NewQualityFilter(logger, admission.QualityConfig{
		MinDisplayScore:           cfg.MinDisplayScore,
		MinDisplayScoreApartments: cfg.MinDisplayScoreApartments,
		ApartmentListingTypes:     cfg.ApartmentListingTypes,
	})

	pipe := pipeline.NewPipeline(logger, matcher, merger, prefilter, quality)
	service := pipeline.NewService(logger, pipe, listings, evaluations, canonical, decisions, emitter)

	if cfg.EvaluatorEnabled && cfg.EvaluatorBaseURL != "" {
		client := evaluator.NewClient(logger, evaluator.Config{
			BaseURL:   cfg.EvaluatorBaseURL,
			APIKey:    cfg.EvaluatorAPIKey,
			BatchSize: cfg.EvaluatorBatchSize,
			Timeout:   time.Duration(cfg.EvaluatorTimeoutSeconds) * time.Second,
		})
		service.SetScorer(evaluator.NewService(logger, client, evaluations))
	}

	limiter := throttle.NewLimiter(cfg.OutboundRequestDelay)
	geocoder := geocode.NewClient(logger, limiter, geocode.Config{
		BaseURL:   cfg.GeocoderBaseURL,
		UserAgent: cfg.GeocoderUserAgent,
	})

	proc := processor.NewProcessor(logger, listings, emitter, geocoder)

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumer = kafka.NewConsumer(cfg, logger, proc.ProcessMessage)
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start Kafka consumer")
			os.Exit(1)
		}
		defer consumer.Stop()
	}

	go service.RunPeriodically(ctx, cfg.PipelineInterval)
	if cfg.PipelineOnStart {
		go func() {
			if _, err := service.RunOnce(ctx); err != nil {
				logger.WithContext(ctx).WithError(err).Error("Startup pipeline run failed")
			}
		}()
	}

	e := newServer(cfg, logger)

	var consumerHealth interface{ Health() bool }
	if consumer != nil {
		consumerHealth = consumer
	}
	checker := health.NewChecker(db, consumerHealth, version)
	checker.RegisterRoutes(e)

	handler := listingroutes.NewHandler(logger, canonical, evaluations, decisions, quality, service)
	handler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithFields(map[string]any{"addr": addr}).Info("Starting HTTP server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()
	checker.SetReady(true)

	<-ctx.Done()
	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server cleanly")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := zapCfg.Build()
	if err != nil {
		zl = zap.NewNop()
	}

	return ectologger.NewEctoLogger(func(m ectologger.EctoLogMessage) {
		zl.Info(cfg.AppName, zap.Any("log", m))
	})
}

func initTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	if cfg.TracingEnabled {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: cfg.TracingInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		exporter = otlp
	} else {
		exporter = &exporters.ConsoleExporter{}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.AppName),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return tp.Shutdown, nil
}

func connectDatabase(cfg config.Config, logger ectologger.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return nil, err
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return nil, err
	}

	return db, nil
}

func newServer(cfg config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	return e
}
