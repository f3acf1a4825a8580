package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/config"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/database"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/handlers"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/logger"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/publisher"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/query"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/rabbitmq"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/reconcile"
	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/routes"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.Connect(&cfg.Database, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger.Logger); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := database.RunMigrations(&cfg.Database, logger.Logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// The fan-out publisher is optional: without a broker URL the
	// service ingests and persists but publishes nothing.
	var rmq *rabbitmq.Connection
	var pub *publisher.Publisher
	if cfg.RabbitMQ.Enabled() {
		rmq = rabbitmq.NewConnection(&cfg.RabbitMQ, logger.Logger)
		if err := rmq.Connect(); err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rmq.Close()
		pub = publisher.New(rmq, &cfg.RabbitMQ, logger.Logger)
	}

	engine := reconcile.NewEngine(db, logger.Logger)
	querySvc := query.NewService(db)

	webhookHandler := handlers.NewWebhookHandler(engine, &cfg.Providers, pub, logger.Logger)
	eventsHandler := handlers.NewEventsHandler(querySvc, logger.Logger)
	errorsHandler := handlers.NewErrorsHandler(querySvc, logger.Logger)
	healthHandler := handlers.NewHealthHandler(db, rmq, logger.Logger)

	app := fiber.New(fiber.Config{
		AppName:      "Delivery Webhook Service",
		ServerHeader: "Fiber",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key",
	}))

	routes.SetupRoutes(app, webhookHandler, eventsHandler, errorsHandler, healthHandler, cfg.Auth.APIKey)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
