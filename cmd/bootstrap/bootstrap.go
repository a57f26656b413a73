package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"careplan-service/config"
	deliveryHttp "careplan-service/internal/delivery/http"
	"careplan-service/internal/delivery/http/handler"
	"careplan-service/internal/delivery/http/middleware"
	"careplan-service/internal/generation"
	"careplan-service/internal/infrastructure/cache"
	"careplan-service/internal/infrastructure/database"
	"careplan-service/internal/intake"
	"careplan-service/internal/queue"
	"careplan-service/internal/repository"
	"careplan-service/internal/service"
	"careplan-service/internal/usecase"
	"careplan-service/internal/worker"
	"careplan-service/pkg/jwt"
	"careplan-service/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Options selects which processes the App runs.
type Options struct {
	Server bool
	Worker bool
}

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Runner      *worker.Runner
	QueueSync   *service.QueueSyncService
}

// LoadConfig reads configuration and builds the process logger.
func LoadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, NewLogger(cfg.App), nil
}

// NewLogger configures a JSON logrus logger at the configured level.
func NewLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// New creates a new App instance with all dependencies initialized
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, log, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log}
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.RedisClient = redisClient

	jobQueue := queue.NewRedisQueue(redisClient, cfg.Worker.QueueKey, log)
	selector := generation.NewSelector(cfg.LLM, log)
	carePlanRepo := repository.NewCarePlanRepository()

	if opts.Server {
		app.Server = initializeServer(cfg, log, db, jobQueue, selector)
	}
	if opts.Worker {
		processor := worker.NewProcessor(db, log, carePlanRepo, jobQueue, selector)
		app.Runner = worker.NewRunner(jobQueue, processor, log, cfg.Worker)
		app.QueueSync = service.NewQueueSyncService(db, log, carePlanRepo, jobQueue)
	}

	return app, nil
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, jobQueue queue.Queue, selector *generation.Selector) *http.Server {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	patientRepo := repository.NewPatientRepository()
	providerRepo := repository.NewProviderRepository()
	carePlanRepo := repository.NewCarePlanRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(db, log, auditLogRepo)

	// Initialize usecases
	gate := usecase.NewDuplicationGate(patientRepo, providerRepo, carePlanRepo, time.Now)
	carePlanUsecase := usecase.NewCarePlanUsecase(db, log, gate, patientRepo, providerRepo, carePlanRepo, jobQueue, selector)
	intakeUsecase := usecase.NewIntakeUsecase(log, intake.NewDefaultRegistry(customValidator), carePlanUsecase, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	carePlanHandler := handler.NewCarePlanHandler(carePlanUsecase, intakeUsecase, log)
	intakeHandler := handler.NewIntakeHandler(intakeUsecase, log)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, log)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)
	corsMiddleware := middleware.NewCORSMiddleware()
	if !jwtService.Enabled() {
		log.Warn("INTAKE_JWT_SECRET is not set, partner authentication is disabled")
	}

	// Initialize router
	router := deliveryHttp.NewRouter(log, carePlanHandler, intakeHandler, auditLogHandler, authMiddleware, corsMiddleware)

	// Create server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the server and worker until ctx is cancelled, then shuts both
// down gracefully.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()

	g, ctx := errgroup.WithContext(ctx)

	if app.Server != nil {
		g.Go(func() error {
			app.Log.Infof("Server starting on port %s", app.Config.App.Port)
			app.Log.Infof("Environment: %s", app.Config.App.Env)
			if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			app.Log.Info("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.Server.Shutdown(shutdownCtx); err != nil {
				app.Log.Errorf("Server forced to shutdown: %v", err)
			}
			return nil
		})
	}

	if app.Runner != nil {
		g.Go(func() error {
			return app.Runner.Run(ctx)
		})
	}
	if app.QueueSync != nil {
		g.Go(func() error {
			return app.QueueSync.Run(ctx)
		})
	}

	err := g.Wait()
	app.Log.Info("Shutdown complete")
	return err
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
