package app

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deposit-bot/internal/audit"
	"deposit-bot/internal/cache"
	"deposit-bot/internal/config"
	"deposit-bot/internal/db"
	"deposit-bot/internal/deposit"
	"deposit-bot/internal/event"
	"deposit-bot/internal/gateway"
	"deposit-bot/internal/jobs"
	"deposit-bot/internal/ledger"
	"deposit-bot/internal/logger"
	"deposit-bot/internal/monitoring"
	"deposit-bot/internal/notify"
	"deposit-bot/internal/security"
	"deposit-bot/internal/ws"
)

type Server struct {
	app  *fiber.App
	jobs *jobs.Manager
}

func NewServer() *Server {
	cfg := config.Load()
	logger.Init()
	monitoring.Init()

	database := db.Init(cfg.DBPath)
	store := ledger.Open(cfg.DataPath, logger.Log)
	bus := event.NewBus()

	gw := gateway.New(gateway.Config{
		APIKey:     cfg.GatewayKey,
		Sandbox:    cfg.Sandbox,
		IPNSecret:  cfg.IPNSecret,
		WebhookURL: cfg.WebhookURL,
	}, cache.New(cfg.RedisAddr), logger.Log)

	depositSvc := deposit.NewService(store, gw, bus, audit.New(database), logger.Log)

	hub := ws.NewHub()
	notify.Register(bus, hub, logger.Log)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	deposit.RegisterWebhook(app, depositSvc, gw)

	api := app.Group("/api", security.APIKeyGuard())
	deposit.RegisterAPI(api, depositSvc, store, gw)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Handler))

	manager := jobs.New()
	manager.Register(deposit.NewPoller(store, depositSvc, gw, cfg.PollInterval, logger.Log))

	return &Server{app: app, jobs: manager}
}

func (s *Server) Start() error {
	go s.jobs.Start(context.Background())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return s.app.Listen(":" + port)
}
