package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/studentseats/ticket-marketplace/internal/config"
	"github.com/studentseats/ticket-marketplace/internal/handler"
	"github.com/studentseats/ticket-marketplace/internal/middleware"
)

// Handlers groups everything the router wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Games   *handler.GameHandler
	Tickets *handler.TicketHandler
	Webhook *handler.WebhookHandler
}

// Register wires all routes. The API surface matches what the web client
// consumes: public auth and browsing endpoints, authenticated seller/buyer
// actions, admin endpoints keyed by the static API key, and the payment
// webhook. The reserve route additionally carries the Redis rate limiter.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.GET("/healthz", handler.Health)

	// Auth
	auth := e.Group("/api/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/verify-email", h.Auth.VerifyEmail)
	auth.POST("/login", h.Auth.Login)

	// Public browsing; the game listing sits behind the response cache.
	e.GET("/api/games", h.Games.List, middleware.Cache(config.LoadCacheConfig(), rdb))
	e.GET("/api/tickets", h.Tickets.List)

	// Admin
	admin := middleware.AdminKey(cfg.AdminAPIKey)
	e.POST("/api/games", h.Games.Create, admin)
	e.DELETE("/api/games/:id", h.Games.Delete, admin)
	e.PATCH("/api/tickets/:id/verify", h.Tickets.Verify, admin)
	e.PATCH("/api/tickets/:id/mark-sold", h.Tickets.MarkSold, admin)

	// Authenticated marketplace actions.
	authn := middleware.Auth(cfg.JWTSecret)
	e.GET("/api/tickets/my-listings", h.Tickets.MyListings, authn)
	e.POST("/api/tickets", h.Tickets.Create, authn)
	e.POST("/api/tickets/claim", h.Tickets.Claim, authn)
	e.DELETE("/api/tickets/:id/unclaim", h.Tickets.Unclaim, authn)
	e.POST("/api/tickets/:id/reserve", h.Tickets.Reserve,
		authn, middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	// Payment webhook (authenticated by signature, not bearer token).
	e.POST("/api/webhooks/stripe", h.Webhook.HandleStripe)
}
