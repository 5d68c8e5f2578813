package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/service"
	"github.com/ieltsgenai/prep-api/internal/utils"
)

// AssessmentHandler exposes scoring endpoints.
type AssessmentHandler struct {
	service service.AssessmentService
	logger  zerolog.Logger
}

// NewAssessmentHandler constructs an assessment handler.
func NewAssessmentHandler(service service.AssessmentService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register wires assessment routes.
func (h *AssessmentHandler) Register(router fiber.Router) {
	router.Post("", h.assess)
	router.Post("/writing", h.assessWriting)
	router.Get("", h.history)
	router.Get("/:id", h.get)
}

func (h *AssessmentHandler) assess(c *fiber.Ctx) error {
	var payload dto.AssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.UserID = userIDFromContext(c)

	response, err := h.service.Assess(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "assessment failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment completed", response)
}

func (h *AssessmentHandler) assessWriting(c *fiber.Ctx) error {
	var payload dto.WritingTasksRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.UserID = userIDFromContext(c)

	response, err := h.service.AssessWritingTasks(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "writing assessment failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "writing assessment completed", response)
}

func (h *AssessmentHandler) get(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assessment id")
	}

	response, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load assessment")
	}

	return utils.SendSuccess(c, "assessment retrieved", response)
}

func (h *AssessmentHandler) history(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	responses, err := h.service.History(c.UserContext(), userID, limit)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load assessment history")
	}

	return utils.SendSuccess(c, "assessment history retrieved", responses)
}
