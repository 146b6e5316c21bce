package main // Entry point package

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/studentseats/ticket-marketplace/internal/cleanup"
	"github.com/studentseats/ticket-marketplace/internal/config"
	"github.com/studentseats/ticket-marketplace/internal/database"
	"github.com/studentseats/ticket-marketplace/internal/handler"
	"github.com/studentseats/ticket-marketplace/internal/payment"
	"github.com/studentseats/ticket-marketplace/internal/queue"
	"github.com/studentseats/ticket-marketplace/internal/repository"
	"github.com/studentseats/ticket-marketplace/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log.SetFormatter(&log.JSONFormatter{})
	if cfg.Env == "dev" {
		log.SetFormatter(&log.TextFormatter{})
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		log.WithError(err).Fatal("migrations failed")
	}

	users := repository.NewUserRepo(db)
	games := repository.NewGameRepo(db)
	tickets := repository.NewTicketRepo(db)
	payments := repository.NewPaymentIntentRepo(db)

	// Redis is optional; rate limiting and caching degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and caching disabled")
	}

	stripeProvider := payment.New(cfg.StripeSecretKey, cfg.StripeWebhookKey)
	publisher := queue.NewPublisher()

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users),
		Games:   handler.NewGameHandler(cfg, games),
		Tickets: handler.NewTicketHandler(cfg, games, tickets, publisher),
		Webhook: handler.NewWebhookHandler(cfg, tickets, payments, stripeProvider),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, h, rdb)

	// Background workers: lifecycle sweepers and the reservation event
	// consumer.
	cleanup.Start(context.Background(), cfg, tickets)
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.WithError(err).Error("reservation consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
