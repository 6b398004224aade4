package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/infra/config"
	"github.com/arklim/learnhub-client/internal/transport/http/handlers"
	"github.com/arklim/learnhub-client/internal/transport/http/middleware"
	"github.com/arklim/learnhub-client/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config  *config.AppConfig
	Logger  *zap.Logger
	Manager *usecase.SessionManager
	Courses *usecase.CourseService
	Admin   *usecase.AdminService

	SignInLimiter middleware.AttemptLimiter
	SignUpLimiter middleware.AttemptLimiter
	ResetLimiter  middleware.AttemptLimiter

	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS([]string{"*"}))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	} else {
		r.Use(metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireSession := middleware.RequireSession(deps.Manager)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Manager)
		authHandler.RegisterRoutes(authGroup,
			buildLimiterMiddleware(deps, "auth_signin_ip", deps.SignInLimiter),
			buildLimiterMiddleware(deps, "auth_signup_ip", deps.SignUpLimiter),
			buildLimiterMiddleware(deps, "password_reset_ip", deps.ResetLimiter),
		)

		profileGroup := api.Group("/profile")
		profileGroup.Use(requireSession)
		handlers.NewProfileHandler(deps.Manager).RegisterRoutes(profileGroup)

		if deps.Courses != nil {
			courseHandler := handlers.NewCourseHandler(deps.Courses, deps.Manager)

			courseGroup := api.Group("/courses")
			courseHandler.RegisterRoutes(courseGroup)

			myGroup := api.Group("/me")
			myGroup.Use(requireSession)
			courseHandler.RegisterAuthenticatedRoutes(myGroup)
		}

		if deps.Admin != nil {
			adminGroup := api.Group("/admin")
			adminGroup.Use(requireSession)
			handlers.NewAdminHandler(deps.Admin, deps.Manager).RegisterRoutes(adminGroup)
		}
	}

	return r
}

func buildLimiterMiddleware(deps Dependencies, name string, limiter middleware.AttemptLimiter) []gin.HandlerFunc {
	if limiter == nil || deps.Config == nil {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limiter:    limiter,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{middleware.RateLimit(deps.Logger, rule)}
}
