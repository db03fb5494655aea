package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/lib/pq" // PostgreSQL driver

	"docucheck/internal/config"
	"docucheck/internal/constants"
	"docucheck/internal/events"
	"docucheck/internal/history"
	"docucheck/internal/judgment"
	"docucheck/internal/logger"
	"docucheck/internal/rules"
	"docucheck/internal/validation"
	"docucheck/pkg/bootstrap"
	pkgcel "docucheck/pkg/cel"
	"docucheck/pkg/circuitbreaker"
	"docucheck/pkg/health"
	"docucheck/pkg/metrics"
	"docucheck/pkg/middleware"
	"docucheck/pkg/migrations"
	"docucheck/pkg/retry"
	"docucheck/pkg/tracing"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	redisClient    *redis.Client
	mongoClient    *mongo.Client
	publisher      *events.Publisher
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	tp, err := tracing.Init(a.config.Tracing, "validation-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		a.logger.WarnwCtx(ctx, "Redis connection failed, judgment caching disabled", "error", err)
	} else {
		a.redisClient = redisClient
	}

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		a.logger.WarnwCtx(ctx, "MongoDB connection failed, session history disabled", "error", err)
	} else if mongoClient != nil {
		a.mongoClient = mongoClient

		dbName := a.config.Database.MongoDB.Database
		if dbName == "" {
			dbName = constants.DefaultMongoDBName
		}
		if err := migrations.EnsureSessionCollection(ctx, mongoClient.Database(dbName)); err != nil {
			a.logger.WarnwCtx(ctx, "Failed to ensure session indexes", "error", err)
		}
	}

	return nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("validation-service"))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	celEval, err := pkgcel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create filter evaluator: %w", err)
	}

	rulesRepo := rules.NewRepository(a.db)
	rulesService := rules.NewService(rulesRepo, rules.NewValidator(), rules.NewSelector(celEval), a.logger)
	rulesHandler := rules.NewHandler(rulesService, a.logger)
	rulesHandler.RegisterRoutes(router)

	assessor := a.buildAssessor()

	var recorder validation.Recorder
	if a.mongoClient != nil {
		dbName := a.config.Database.MongoDB.Database
		if dbName == "" {
			dbName = constants.DefaultMongoDBName
		}
		recorder = history.NewRepository(a.mongoClient.Database(dbName))
	}

	var publisher validation.EventPublisher
	if a.config.Broker.Type == "kafka" && len(a.config.Broker.Kafka.Brokers) > 0 {
		p := events.NewPublisher(a.config.Broker.Kafka, a.logger)
		a.publisher = p
		publisher = p
		a.logger.Info("Session event publisher initialized")
	}

	validationService := validation.NewService(
		rulesService,
		assessor,
		recorder,
		publisher,
		a.config.Validation.MaxConcurrency,
		a.logger,
	)
	validationHandler := validation.NewHandler(validationService, a.logger)
	validationHandler.RegisterRoutes(router)

	metrics.RegisterValidationMetrics()
	metrics.RegisterJudgmentMetrics()
	metrics.RegisterCircuitBreakerMetrics()
	metrics.RegisterDatabaseMetrics()
	if a.publisher != nil {
		metrics.RegisterBrokerMetrics()
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

// buildAssessor assembles the judgment pipeline: HTTP provider inside an
// optional circuit breaker, retried per policy, fronted by a Redis cache.
func (a *App) buildAssessor() *judgment.Adapter {
	jcfg := a.config.Judgment

	provider := judgment.NewHTTPProvider(
		jcfg.Endpoint,
		time.Duration(jcfg.TimeoutSeconds)*time.Second,
		jcfg.RPS,
		jcfg.Burst,
	)

	var cache *judgment.Cache
	if a.redisClient != nil {
		cache = judgment.NewCache(a.redisClient, time.Duration(jcfg.CacheTTL)*time.Second)
	}

	var breaker *circuitbreaker.Wrapper
	if a.config.CircuitBreaker.Enabled {
		cbCfg := circuitbreaker.DefaultConfig("judgment-provider")
		if a.config.CircuitBreaker.MaxRequests > 0 {
			cbCfg.MaxRequests = a.config.CircuitBreaker.MaxRequests
		}
		if a.config.CircuitBreaker.Interval > 0 {
			cbCfg.Interval = a.config.CircuitBreaker.Interval
		}
		if a.config.CircuitBreaker.Timeout > 0 {
			cbCfg.Timeout = a.config.CircuitBreaker.Timeout
		}
		if a.config.CircuitBreaker.FailureRatio > 0 && a.config.CircuitBreaker.MinRequests > 0 {
			cbCfg.ReadyToTrip = circuitbreaker.TrippedAt(a.config.CircuitBreaker.FailureRatio, a.config.CircuitBreaker.MinRequests)
		}
		breaker = circuitbreaker.NewWrapper(cbCfg)
	}

	policy := retry.DefaultPolicy()
	if jcfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = jcfg.Retry.MaxAttempts
	}
	if jcfg.Retry.InitialInterval > 0 {
		policy.InitialInterval = jcfg.Retry.InitialInterval
	}
	if jcfg.Retry.MaxInterval > 0 {
		policy.MaxInterval = jcfg.Retry.MaxInterval
	}
	if jcfg.Retry.Multiplier > 0 {
		policy.Multiplier = jcfg.Retry.Multiplier
	}
	if jcfg.Retry.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = jcfg.Retry.MaxElapsedTime
	}

	return judgment.NewAdapter(provider, cache, breaker, policy, a.logger)
}

func (a *App) initServer() error {
	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Server.Port),
		Handler: a.router,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
