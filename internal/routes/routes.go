package routes

import (
	"time"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/config"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/handlers"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/verify-otp", authHandler.VerifyOtp)
	auth.Post("/signin", authHandler.Signin)
	auth.Post("/oauth/login", authHandler.OAuthLogin)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Protected routes (session JWT required)
	api.Post("/auth/change-password", middleware.JWTProtected(cfg), middleware.RequireSession(), authHandler.ChangePassword)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), middleware.RequireSession(), authHandler.Logout)

	users := api.Group("/users", middleware.JWTProtected(cfg), middleware.RequireSession())
	users.Get("/getUserProfile/:id", userHandler.GetUserProfile)
	users.Get("/me", userHandler.Me)
}
