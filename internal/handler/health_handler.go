package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ieltsgenai/prep-api/internal/config"
	"github.com/ieltsgenai/prep-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Models      map[string]string `json:"models,omitempty"`
}

// HealthCheck returns a handler that reports application health and the configured model chain.
func HealthCheck(cfg config.Config) fiber.Handler {
	models := map[string]string{
		"writing_primary":   cfg.Scoring.WritingPrimaryModel,
		"writing_fallback":  cfg.Scoring.WritingFallbackModel,
		"speaking_primary":  cfg.Scoring.SpeakingPrimaryModel,
		"speaking_fallback": cfg.Scoring.SpeakingFallbackModel,
	}
	if cfg.Scoring.SecondaryProvider != "" && cfg.Scoring.SecondaryProvider != "none" {
		models["secondary"] = cfg.Scoring.SecondaryProvider + ":" + cfg.Scoring.SecondaryModel
	}

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Models:      models,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
