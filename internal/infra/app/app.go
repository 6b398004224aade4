package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/core/port"
	"github.com/arklim/learnhub-client/internal/infra/config"
	"github.com/arklim/learnhub-client/internal/infra/database"
	"github.com/arklim/learnhub-client/internal/infra/identity"
	kafkainfra "github.com/arklim/learnhub-client/internal/infra/kafka"
	"github.com/arklim/learnhub-client/internal/infra/logger"
	redisinfra "github.com/arklim/learnhub-client/internal/infra/redis"
	postgresrepo "github.com/arklim/learnhub-client/internal/repository/postgres"
	redisrepo "github.com/arklim/learnhub-client/internal/repository/redis"
	"github.com/arklim/learnhub-client/internal/transport/http/routes"
	"github.com/arklim/learnhub-client/internal/usecase"
	"github.com/arklim/learnhub-client/internal/validation"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	provider *identity.Client
	manager  *usecase.SessionManager
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	provider, err := identity.NewClient(identity.Config{
		BaseURL:       cfg.Provider.URL,
		AnonKey:       cfg.Provider.AnonKey,
		Timeout:       cfg.Provider.Timeout,
		AutoRefresh:   cfg.Provider.AutoRefresh,
		RefreshMargin: cfg.Provider.RefreshMargin,
		SessionFile:   cfg.Provider.SessionFile,
	}, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init identity client: %w", err)
	}

	profileRepo := postgresrepo.NewProfileRepository(pool)
	courseRepo := postgresrepo.NewCourseRepository(pool)
	profileCache := redisrepo.NewProfileCache(redisClient.Client(), cfg.Redis.ProfileCachePrefix)

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			producer = nil
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	manager, err := usecase.NewSessionManager(provider, profileRepo, log,
		usecase.WithProfileCache(profileCache),
		usecase.WithProfileCacheTTL(cfg.Redis.ProfileCacheTTL),
		usecase.WithEventPublisher(eventPublisher),
		usecase.WithPasswordPolicy(validation.DefaultPolicy()),
	)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init session manager: %w", err)
	}

	if err := manager.Initialize(ctx); err != nil {
		log.Warn("session restore failed, starting unauthenticated", zap.Error(err))
	}

	courseService, err := usecase.NewCourseService(courseRepo, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init course service: %w", err)
	}

	adminService, err := usecase.NewAdminService(courseRepo, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init admin service: %w", err)
	}

	window := cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	engine := routes.Register(routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		Manager:       manager,
		Courses:       courseService,
		Admin:         adminService,
		SignInLimiter: redisrepo.NewLoginRateLimiter(redisClient.Client(), cfg.Redis.RateLimitPrefix, window, cfg.RateLimit.LoginMaxAttempts),
		SignUpLimiter: redisrepo.NewLoginRateLimiter(redisClient.Client(), cfg.Redis.RateLimitPrefix, window, cfg.RateLimit.SignUpMaxAttempts),
		ResetLimiter:  redisrepo.NewLoginRateLimiter(redisClient.Client(), cfg.Redis.RateLimitPrefix, window, cfg.RateLimit.PasswordResetMaxAttempts),
		Database:      pool,
		Cache:         redisClient,
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		provider: provider,
		manager:  manager,
		producer: producer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		a.manager.Close()
		a.provider.Close()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting LearnHub client API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
