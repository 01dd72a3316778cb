package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"langlearn-api/internal/adapters/events"
	"langlearn-api/internal/adapters/http/middleware"
	"langlearn-api/internal/adapters/http/routes"
	"langlearn-api/internal/adapters/notify"
	"langlearn-api/internal/adapters/persistence/models"
	"langlearn-api/internal/config"
	"langlearn-api/internal/core/services"
	"langlearn-api/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"

	_ "langlearn-api/docs" // Swagger docs
)

// @title Language Learning API
// @version 1.0
// @description Account and authentication API of the language learning platform

// @contact.name API Support
// @contact.email support@langlearn.local

// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed bootstrap admin
	if err := config.NewSeeder(db, cfg).Run(context.Background()); err != nil {
		log.Printf("⚠️ Warning: Failed to seed admin user: %v", err)
	}

	// Optional infrastructure
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	infra := routes.Infra{
		Notifier: notify.NewLogSender(),
		Redis:    rdb,
		Logger:   logger,
	}
	if cfg.RabbitMQ.URL != "" {
		infra.Notifier = notify.NewAMQPSender(cfg.RabbitMQ, cfg.Mail)
		log.Printf("✅ Mail queue enabled [%s]", cfg.Mail.Queue)
	} else {
		log.Println("⚠️ RABBITMQ_URL not set, reset emails are logged only")
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka, logger)
		defer publisher.Close()
		infra.Events = publisher
		log.Printf("✅ Auth events enabled [topic: %s]", cfg.Kafka.Topic)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Language Learning API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg, logger)

	// Setup routes (pass db and cfg for dependency injection)
	svcs, err := routes.Setup(app, db, cfg, infra)
	if err != nil {
		log.Fatalf("❌ Failed to setup routes: %v", err)
	}

	// Purge expired reset tokens on a schedule
	cronService := services.NewCronService(svcs.Resets, cfg.Reset.PurgeSchedule, logger)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
