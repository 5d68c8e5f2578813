package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/middleware"
	"github.com/ieltsgenai/prep-api/internal/safety"
	"github.com/ieltsgenai/prep-api/internal/scoring"
	"github.com/ieltsgenai/prep-api/internal/service"
	"github.com/ieltsgenai/prep-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// ErrorStatus maps a service error to the HTTP status, message and optional details
// returned to the caller. The lambda adapter uses the same mapping.
func ErrorStatus(err error) (int, string, interface{}) {
	switch {
	case err == nil:
		return fiber.StatusOK, "", nil
	case isValidationError(err):
		return fiber.StatusBadRequest, "invalid payload", nil
	case errors.Is(err, safety.ErrContentRejected):
		var details interface{}
		if report, ok := safety.RejectedReport(err); ok {
			details = dto.ContentRejectedDetails{
				Category:   report.Category,
				Stage:      report.Stage,
				Confidence: report.Confidence,
			}
		}
		return fiber.StatusUnprocessableEntity, "content rejected by safety validator", details
	case errors.Is(err, scoring.ErrInvalidRubric):
		return fiber.StatusBadRequest, "unsupported assessment type", nil
	case errors.Is(err, service.ErrInvalidSubmission):
		return fiber.StatusBadRequest, "invalid submission", nil
	case errors.Is(err, scoring.ErrScoringUnavailable):
		return fiber.StatusServiceUnavailable, "assessment temporarily unavailable", nil
	case errors.Is(err, service.ErrAssessmentNotFound):
		return fiber.StatusNotFound, "assessment not found", nil
	case errors.Is(err, service.ErrPersistenceDisabled):
		return fiber.StatusServiceUnavailable, "assessment history unavailable", nil
	default:
		return fiber.StatusInternalServerError, "failed to process request", nil
	}
}

func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	status, message, details := ErrorStatus(err)
	log := requestLogger(logger, c)
	switch {
	case status >= fiber.StatusInternalServerError:
		log.Error().Err(err).Int("status", status).Msg(action)
	case status == fiber.StatusUnprocessableEntity:
		log.Info().Err(err).Msg(action)
	default:
		log.Debug().Err(err).Int("status", status).Msg(action)
	}
	return utils.SendErrorWithData(c, status, message, details)
}
