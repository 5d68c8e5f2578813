package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/service"
	"github.com/ieltsgenai/prep-api/internal/utils"
)

const maxSummaryWindow = 30 * 24 * time.Hour

// SafetyHandler exposes the content safety validator and its audit summary.
type SafetyHandler struct {
	assessments service.AssessmentService
	summary     service.SafetySummary
	logger      zerolog.Logger
}

// NewSafetyHandler constructs a safety handler. summary may be nil when audit persistence is off.
func NewSafetyHandler(assessments service.AssessmentService, summary service.SafetySummary, logger zerolog.Logger) *SafetyHandler {
	return &SafetyHandler{
		assessments: assessments,
		summary:     summary,
		logger:      logger.With().Str("component", "safety_handler").Logger(),
	}
}

// Register wires safety routes.
func (h *SafetyHandler) Register(router fiber.Router) {
	router.Post("/check", h.check)
	router.Get("/summary", h.summarize)
}

func (h *SafetyHandler) check(c *fiber.Ctx) error {
	var payload dto.SafetyCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.assessments.CheckSafety(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "safety check failed")
	}

	return utils.SendSuccess(c, "safety check completed", response)
}

func (h *SafetyHandler) summarize(c *fiber.Ctx) error {
	if h.summary == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "safety audit unavailable")
	}

	window := 24 * time.Hour
	if raw := strings.TrimSpace(c.Query("window")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 || parsed > maxSummaryWindow {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid window")
		}
		window = parsed
	}

	response, err := h.summary.Summary(c.UserContext(), window)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to summarise safety audit")
	}

	return utils.SendSuccess(c, "safety summary retrieved", response)
}
