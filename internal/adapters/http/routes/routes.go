package routes

import (
	"fmt"
	"log/slog"

	"langlearn-api/internal/adapters/http/handlers"
	"langlearn-api/internal/adapters/http/middleware"
	"langlearn-api/internal/adapters/persistence/repositories"
	"langlearn-api/internal/config"
	"langlearn-api/internal/core/services"
	"langlearn-api/internal/pkg/jwt"
	"langlearn-api/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Infra carries the external collaborators built by main
type Infra struct {
	Notifier services.Notifier
	Events   services.EventPublisher // optional
	Redis    *redis.Client           // optional
	Logger   *slog.Logger
}

// Services exposes what Setup wired, for background jobs and tests
type Services struct {
	Auth   *services.AuthService
	Resets *services.ResetTokenService
	Tokens *jwt.TokenService
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, infra Infra) (*Services, error) {
	hasher := password.NewHasher(cfg.Password.BcryptCost)

	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, hasher)
	resetTokenRepo := repositories.NewResetTokenRepository(db)

	// Initialize services
	resetService := services.NewResetTokenService(userRepo, resetTokenRepo, hasher, cfg.Reset.TokenTTL())
	accounts := services.NewAccountStateMachine(userRepo)
	authService := services.NewAuthService(
		userRepo,
		hasher,
		tokens,
		resetService,
		accounts,
		infra.Notifier,
		infra.Events,
		cfg,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cfg)
	authHandler := handlers.NewAuthHandler(authService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	authRoutes := api.Group("/auth", middleware.NoStore())
	setupAuthRoutes(authRoutes, authHandler, tokens, infra.Redis, cfg)

	return &Services{
		Auth:   authService,
		Resets: resetService,
		Tokens: tokens,
	}, nil
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(
	router fiber.Router,
	handler *handlers.AuthHandler,
	tokens *jwt.TokenService,
	rdb *redis.Client,
	cfg *config.Config,
) {
	limit := func(scope string) fiber.Handler {
		return middleware.AuthRateLimiter(rdb, cfg.RateLimit, scope)
	}
	authenticated := middleware.AuthMiddleware(tokens)

	// Public routes
	router.Post("/register", limit("register"), handler.Register)
	router.Post("/login", limit("login"), handler.Login)
	router.Post("/forgot-password", limit("forgot-password"), handler.ForgotPassword)
	router.Post("/reset-password", limit("reset-password"), handler.ResetPassword)

	// Protected routes
	router.Post("/logout", authenticated, handler.Logout)
	router.Get("/me", authenticated, handler.Me)

	// Admin routes
	router.Post("/block-user/:userId", authenticated, middleware.AdminOnly(), handler.BlockUser)
	router.Post("/unblock-user/:userId", authenticated, middleware.AdminOnly(), handler.UnblockUser)
}
