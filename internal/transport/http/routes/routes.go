package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/config"
	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/handlers"
	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/middleware"
	"github.com/NeuroDev204/neuro-pet-backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth  *usecase.AuthService
	Users *usecase.UserService
	Pets  *usecase.PetService
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Cookies     handlers.CookieSettings
	Database    DatabaseChecker
	Cache       CacheChecker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("postgres", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticate := middleware.Authenticate(deps.Services.Auth)
	requireAdmin := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Cookies)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", withLimit(deps, "auth_register_ip", deps.Config.RateLimit.RegisterMaxAttempts, authHandler.Register)...)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
		authGroup.POST("/resend-otp", withLimit(deps, "auth_resend_otp_ip", deps.Config.RateLimit.ResendMaxAttempts, authHandler.ResendOTP)...)
		authGroup.POST("/login", withLimit(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts, authHandler.Login)...)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authenticate, authHandler.Logout)
		authGroup.GET("/me", authenticate, authHandler.Me)

		userHandler := handlers.NewUserHandler(deps.Services.Users)

		userGroup := api.Group("/users")
		userGroup.Use(authenticate)
		userGroup.PUT("", userHandler.UpdateProfile)
		userGroup.PUT("/avatar", userHandler.UpdateAvatar)
		userGroup.GET("", requireAdmin, userHandler.List)
		userGroup.GET("/:id", requireAdmin, userHandler.Get)
		userGroup.PUT("/:id/role", requireAdmin, userHandler.UpdateRole)
		userGroup.DELETE("/:id", requireAdmin, userHandler.Delete)

		petHandler := handlers.NewPetHandler(deps.Services.Pets)

		petGroup := api.Group("/pets")
		petGroup.Use(authenticate)
		petGroup.POST("", petHandler.Create)
		petGroup.GET("", petHandler.List)
		petGroup.GET("/:id", petHandler.Get)
	}

	return r
}

// withLimit prepends a sliding-window rate limit to the handler when a
// limiter is configured and the limit is positive.
func withLimit(deps Dependencies, name string, limit int, handler gin.HandlerFunc) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return []gin.HandlerFunc{handler}
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.Limit(rule), handler}
}
