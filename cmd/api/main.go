package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/bootstrap"
	"github.com/ieltsgenai/prep-api/internal/config"
	"github.com/ieltsgenai/prep-api/internal/handler"
	"github.com/ieltsgenai/prep-api/internal/middleware"
	"github.com/ieltsgenai/prep-api/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	container, err := bootstrap.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialise services: %v", err)
	}
	defer container.Close()

	assessmentHandler := handler.NewAssessmentHandler(container.Assessments, logger)
	safetyHandler := handler.NewSafetyHandler(container.Assessments, container.Summary, logger)
	rubricHandler := handler.NewRubricHandler(container.Rubrics, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    256 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	var jwtMiddleware fiber.Handler
	if cfg.JWTSecret != "" {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret, true)
	}

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: assessmentHandler,
		SafetyHandler:     safetyHandler,
		RubricHandler:     rubricHandler,
		JWTMiddleware:     jwtMiddleware,
		RateLimiter:       middleware.RateLimit("assessments", cfg.RateLimitMax, cfg.RateLimitWindow),
		Logger:            logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
