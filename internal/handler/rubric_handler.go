package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/scoring"
	"github.com/ieltsgenai/prep-api/internal/service"
	"github.com/ieltsgenai/prep-api/internal/utils"
)

// RubricHandler serves the band descriptors used for scoring.
type RubricHandler struct {
	service service.RubricService
	logger  zerolog.Logger
}

// NewRubricHandler constructs a rubric handler.
func NewRubricHandler(service service.RubricService, logger zerolog.Logger) *RubricHandler {
	return &RubricHandler{
		service: service,
		logger:  logger.With().Str("component", "rubric_handler").Logger(),
	}
}

// Register wires rubric routes.
func (h *RubricHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:type", h.get)
}

func (h *RubricHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "rubrics retrieved", h.service.List())
}

func (h *RubricHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(c.Params("type"))
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidRubric) {
			return utils.SendError(c, fiber.StatusNotFound, "rubric not found")
		}
		return sendServiceError(c, h.logger, err, "failed to load rubric")
	}

	return utils.SendSuccess(c, "rubric retrieved", response)
}
