// Package lambdaapi serves the assessment API from AWS Lambda behind an API Gateway HTTP API.
package lambdaapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/handler"
	"github.com/ieltsgenai/prep-api/internal/safety"
	"github.com/ieltsgenai/prep-api/internal/service"
	"github.com/ieltsgenai/prep-api/internal/utils"
)

const apiPrefix = "/api/v1"

// Handler routes API Gateway events to the service layer.
type Handler struct {
	assessments service.AssessmentService
	rubrics     service.RubricService
	logger      zerolog.Logger
}

// NewHandler constructs a lambda handler.
func NewHandler(assessments service.AssessmentService, rubrics service.RubricService, logger zerolog.Logger) *Handler {
	return &Handler{
		assessments: assessments,
		rubrics:     rubrics,
		logger:      logger.With().Str("component", "lambda_handler").Logger(),
	}
}

// Handle serves one API Gateway request. Application failures are reported through the
// response status; the returned error is reserved for failures Lambda should retry.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	correlationID := header(req, "X-Correlation-ID")
	if correlationID == "" {
		correlationID = req.RequestContext.RequestID
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = safety.WithCorrelationID(ctx, correlationID)
	logger := h.logger.With().Str("correlation_id", correlationID).Logger()

	method := req.RequestContext.HTTP.Method
	path := strings.TrimSuffix(req.RawPath, "/")
	if idx := strings.Index(path, apiPrefix); idx >= 0 {
		path = path[idx+len(apiPrefix):]
	}

	body, err := requestBody(req)
	if err != nil {
		return respond(correlationID, http.StatusBadRequest, utils.APIResponse{Message: "invalid payload"})
	}

	userID := userIDFromClaims(req)

	switch {
	case method == http.MethodPost && path == "/assessments":
		var payload dto.AssessmentRequest
		if err := json.Unmarshal(body, &payload); err != nil {
			return respond(correlationID, http.StatusBadRequest, utils.APIResponse{Message: "invalid payload"})
		}
		payload.UserID = userID
		response, err := h.assessments.Assess(ctx, payload)
		if err != nil {
			return h.failure(logger, correlationID, err)
		}
		return respond(correlationID, http.StatusCreated, utils.APIResponse{Success: true, Data: response, Message: "assessment completed"})

	case method == http.MethodPost && path == "/assessments/writing":
		var payload dto.WritingTasksRequest
		if err := json.Unmarshal(body, &payload); err != nil {
			return respond(correlationID, http.StatusBadRequest, utils.APIResponse{Message: "invalid payload"})
		}
		payload.UserID = userID
		response, err := h.assessments.AssessWritingTasks(ctx, payload)
		if err != nil {
			return h.failure(logger, correlationID, err)
		}
		return respond(correlationID, http.StatusCreated, utils.APIResponse{Success: true, Data: response, Message: "writing assessment completed"})

	case method == http.MethodGet && strings.HasPrefix(path, "/assessments/"):
		response, err := h.assessments.Get(ctx, strings.TrimPrefix(path, "/assessments/"))
		if err != nil {
			return h.failure(logger, correlationID, err)
		}
		return respond(correlationID, http.StatusOK, utils.APIResponse{Success: true, Data: response, Message: "assessment retrieved"})

	case method == http.MethodPost && path == "/safety/check":
		var payload dto.SafetyCheckRequest
		if err := json.Unmarshal(body, &payload); err != nil {
			return respond(correlationID, http.StatusBadRequest, utils.APIResponse{Message: "invalid payload"})
		}
		response, err := h.assessments.CheckSafety(ctx, payload)
		if err != nil {
			return h.failure(logger, correlationID, err)
		}
		return respond(correlationID, http.StatusOK, utils.APIResponse{Success: true, Data: response, Message: "safety check completed"})

	case method == http.MethodGet && path == "/rubrics":
		return respond(correlationID, http.StatusOK, utils.APIResponse{Success: true, Data: h.rubrics.List(), Message: "rubrics retrieved"})

	case method == http.MethodGet && strings.HasPrefix(path, "/rubrics/"):
		response, err := h.rubrics.Get(strings.TrimPrefix(path, "/rubrics/"))
		if err != nil {
			return respond(correlationID, http.StatusNotFound, utils.APIResponse{Message: "rubric not found"})
		}
		return respond(correlationID, http.StatusOK, utils.APIResponse{Success: true, Data: response, Message: "rubric retrieved"})

	case method == http.MethodGet && path == "/health":
		return respond(correlationID, http.StatusOK, utils.APIResponse{Success: true, Data: map[string]string{"status": "ok"}, Message: "service healthy"})
	}

	return respond(correlationID, http.StatusNotFound, utils.APIResponse{Message: "route not found"})
}

func (h *Handler) failure(logger zerolog.Logger, correlationID string, err error) (events.APIGatewayV2HTTPResponse, error) {
	status, message, details := handler.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Info().Err(err).Int("status", status).Msg("request rejected")
	}
	return respond(correlationID, status, utils.APIResponse{Data: details, Message: message})
}

func respond(correlationID string, status int, payload utils.APIResponse) (events.APIGatewayV2HTTPResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-ID": correlationID,
		},
		Body: string(body),
	}, nil
}

func requestBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.Body == "" {
		return []byte("{}"), nil
	}
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func header(req events.APIGatewayV2HTTPRequest, name string) string {
	for key, value := range req.Headers {
		if strings.EqualFold(key, name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// userIDFromClaims reads the subject set by an API Gateway JWT authorizer.
func userIDFromClaims(req events.APIGatewayV2HTTPRequest) uint {
	authorizer := req.RequestContext.Authorizer
	if authorizer == nil || authorizer.JWT == nil {
		return 0
	}
	for _, key := range []string{"sub", "user_id"} {
		if raw, ok := authorizer.JWT.Claims[key]; ok {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
				return uint(id)
			}
		}
	}
	return 0
}
