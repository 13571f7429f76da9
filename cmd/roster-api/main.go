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
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/counselboard/roster/config"
	attorneyrepo "github.com/counselboard/roster/internal/repositories/attorney"
	projectrepo "github.com/counselboard/roster/internal/repositories/project"
	uploadrepo "github.com/counselboard/roster/internal/repositories/upload"
	"github.com/counselboard/roster/pkg/database"
	"github.com/counselboard/roster/pkg/events"
	"github.com/counselboard/roster/pkg/headshots"
	"github.com/counselboard/roster/pkg/kafka"
	"github.com/counselboard/roster/pkg/matching"
	"github.com/counselboard/roster/pkg/middleware"
	attorneyroutes "github.com/counselboard/roster/pkg/routes/attorney"
	headshotroutes "github.com/counselboard/roster/pkg/routes/headshot"
	healthroutes "github.com/counselboard/roster/pkg/routes/health"
	projectroutes "github.com/counselboard/roster/pkg/routes/project"
	"github.com/counselboard/roster/pkg/startup"
	"github.com/counselboard/roster/pkg/tracing"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)
	ctx := context.Background()

	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	tracing.SetTracer(otel.Tracer(cfg.AppName))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	db, err := database.Connect(ctx, database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

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

	attorneys := attorneyrepo.NewRepository(db, logger)
	projects := projectrepo.NewRepository(db, logger)
	uploads := uploadrepo.NewRepository(db, logger)

	matcher := matching.NewMatcher(matching.Thresholds{
		High:   cfg.MatchHighThreshold,
		Low:    cfg.MatchLowThreshold,
		Margin: cfg.MatchReviewMargin,
	})

	imageClient := headshots.NewClient(headshots.ClientConfig{
		BaseURL: cfg.ImageServiceURL,
		Timeout: time.Duration(cfg.ImageServiceTimeoutSeconds) * time.Second,
	}, logger)

	headshotService := headshots.NewService(imageClient, matcher, attorneys, projects, uploads, emitter, headshots.OrchestratorConfig{
		AllowedExtensions: cfg.UploadAllowedExtensions,
		PruneDelay:        cfg.UploadPruneDelay,
	}, logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("Failed to create DI container")
		os.Exit(1)
	}
	mustRegister(logger, ectoinject.RegisterInstance[ectologger.Logger](container, logger))
	mustRegister(logger, ectoinject.RegisterInstance[database.DB](container, db))
	mustRegister(logger, ectoinject.RegisterInstance[*attorneyrepo.Repository](container, attorneys))
	mustRegister(logger, ectoinject.RegisterInstance[*projectrepo.Repository](container, projects))
	mustRegister(logger, ectoinject.RegisterInstance[*uploadrepo.Repository](container, uploads))
	mustRegister(logger, ectoinject.RegisterInstance[*events.Emitter](container, emitter))
	mustRegister(logger, ectoinject.RegisterInstance[*headshots.Service](container, headshotService))

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	boot := startup.New(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&bootDependency{
		name: "database",
		start: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	})
	boot.AddDependency(&bootDependency{
		name:      "migrations",
		dependsOn: []string{"database"},
		start: func(ctx context.Context) error {
			return migrations.MigrateDB(cfg.DatabaseName, db)
		},
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start dependencies")
		os.Exit(1)
	}
	defer func() {
		_ = boot.Stop(context.Background())
	}()

	e := buildServer(cfg, logger, container)

	checker := healthroutes.NewChecker(db.Unsafe(), version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithFields(map[string]any{"addr": addr}).Info("Starting HTTP server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server cleanly")
	}
}

func mustRegister(logger ectologger.Logger, err error) {
	if err != nil {
		logger.WithError(err).Error("Failed to register dependency")
		os.Exit(1)
	}
}

func buildLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func buildServer(cfg config.Config, logger ectologger.Logger, container ectocontainer.DIContainer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(containerMiddleware(container))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(echomiddleware.Recover())
	e.HTTPErrorHandler = middleware.Error(logger)

	api := e.Group("/api/v1")
	projectroutes.Register(api.Group("/projects"))
	attorneyroutes.Register(api.Group("/projects/:title/attorneys"))
	headshotroutes.Register(api.Group("/projects/:title/headshots"))

	return e
}

// containerMiddleware makes the DI container reachable from each request
// context so route handlers can resolve their dependencies.
func containerMiddleware(container ectocontainer.DIContainer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, _ := ectoinject.SetActiveContainer(c.Request().Context(), container.GetContainerID())
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// bootDependency adapts a start function to the startup.Dependency interface
type bootDependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *bootDependency) GetName() string {
	return d.name
}

func (d *bootDependency) DependsOn() []string {
	return d.dependsOn
}

func (d *bootDependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}

func (d *bootDependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}
