package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vidstream/auth-service/internal/config"
	"github.com/vidstream/auth-service/internal/domain"
	"github.com/vidstream/auth-service/internal/handler"
	"github.com/vidstream/auth-service/internal/repository"
	"github.com/vidstream/auth-service/internal/service"
	"github.com/vidstream/auth-service/internal/utils"
	"github.com/vidstream/auth-service/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	switch cfg.Env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authMetrics, err := observability.NewAuthMetrics("vidstream-auth")
	if err != nil {
		infra.Logger().Warn("auth metrics disabled", zap.Error(err))
		authMetrics = nil
	}

	authService := service.NewSessionService(
		repos.User,
		repos.Token,
		jwtManager,
		service.Policy{
			BCryptCost:         cfg.Security.BCryptCost,
			MaxFailedLogins:    cfg.Security.MaxFailedLogins,
			LockoutDuration:    cfg.Security.LockoutDuration.Duration,
			RefreshTokenExpiry: cfg.JWT.RefreshTokenExpiry.Duration,
			RevokedRetention:   cfg.Security.RevokedRetention.Duration,
		},
		infra.Logger(),
		authMetrics,
	)

	cookies := handler.NewCookieManager(
		jwtManager.GetAccessTokenExpiry(),
		jwtManager.GetRefreshTokenExpiry(),
		cfg.IsProduction(),
	)

	authHandler := handler.NewAuthHandler(authService, cookies)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("vidstream-auth"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	authService service.SessionService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	window := cfg.RateLimit.Window.Duration
	generalLimit := handler.RateLimitMiddleware(rateLimiter, cfg.RateLimit.GeneralRequests, window, handler.IPBasedKey)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register",
				handler.RateLimitMiddleware(rateLimiter, cfg.RateLimit.LoginRequests, window, handler.IPBasedKey),
				authHandler.Register,
			)
			auth.POST("/login",
				handler.RateLimitMiddleware(rateLimiter, cfg.RateLimit.LoginRequests, window, handler.LoginKey),
				authHandler.Login,
			)
			auth.POST("/refresh",
				handler.RateLimitMiddleware(rateLimiter, cfg.RateLimit.RefreshRequests, window, handler.IPBasedKey),
				authHandler.Refresh,
			)
			auth.POST("/logout", authHandler.Logout)

			auth.GET("/status", generalLimit, handler.OptionalAuthMiddleware(authService), authHandler.Status)

			auth.GET("/me", generalLimit, handler.AuthMiddleware(authService), authHandler.GetMe)
			auth.POST("/logout-all", generalLimit, handler.AuthMiddleware(authService), authHandler.LogoutAll)
			auth.POST("/change-password", generalLimit, handler.AuthMiddleware(authService), authHandler.ChangePassword)
			auth.GET("/sessions", generalLimit, handler.AuthMiddleware(authService), authHandler.GetSessions)
			auth.DELETE("/sessions/:sessionId", generalLimit, handler.AuthMiddleware(authService), authHandler.RevokeSession)
			auth.POST("/cleanup",
				generalLimit,
				handler.AuthMiddleware(authService),
				handler.RequireRole(domain.RoleAdmin, domain.RoleModerator),
				authHandler.Cleanup,
			)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
