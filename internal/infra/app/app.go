package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/config"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/database"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/logger"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/mail"
	redisinfra "github.com/NeuroDev204/neuro-pet-backend/internal/infra/redis"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/security"
	"github.com/NeuroDev204/neuro-pet-backend/internal/infra/storage"
	postgresrepo "github.com/NeuroDev204/neuro-pet-backend/internal/repository/postgres"
	redisrepo "github.com/NeuroDev204/neuro-pet-backend/internal/repository/redis"
	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/handlers"
	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/middleware"
	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/routes"
	"github.com/NeuroDev204/neuro-pet-backend/internal/usecase"
)

// Application owns the wired service graph and its lifecycle.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

// New builds the full dependency graph from configuration.
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

	signer, err := security.NewTokenSigner(security.TokenSignerConfig{
		AccessSecret:    cfg.JWT.AccessSecret,
		RefreshSecret:   cfg.JWT.RefreshSecret,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		Issuer:          cfg.App.Name,
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	avatarStorage, err := storage.NewS3Storage(ctx, cfg.Storage)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	mailer := mail.NewSMTPMailer(cfg.Mail)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(
		redisClient.Client(), "neuropet:rate-limit", rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(nil, "neuropet")
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	authService := usecase.NewAuthService(repos.Users, signer, mailer, log).
		WithVerificationTTL(cfg.Verification.CodeTTL)
	userService := usecase.NewUserService(repos.Users, avatarStorage, log)
	petService := usecase.NewPetService(repos.Pets, repos.Users)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Cookies: handlers.CookieSettings{
			AccessTTL:  signer.AccessTokenTTL(),
			RefreshTTL: signer.RefreshTokenTTL(),
			Secure:     cfg.App.IsProduction(),
		},
		Services: routes.ServiceSet{
			Auth:  authService,
			Users: userService,
			Pets:  petService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting pet care API",
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
