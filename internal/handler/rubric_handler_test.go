package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ieltsgenai/prep-api/internal/config"
	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/handler"
	"github.com/ieltsgenai/prep-api/internal/rubric"
	"github.com/ieltsgenai/prep-api/internal/service"
)

func TestRubricHandler_ListAndGet(t *testing.T) {
	app := fiber.New()
	svc := service.NewRubricService(rubric.NewStaticSource())
	handler.NewRubricHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/rubrics"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/rubrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list struct {
		Data []dto.RubricResponse `json:"data"`
	}
	decodeResponse(t, resp, &list)
	require.Len(t, list.Data, 4)
	for _, r := range list.Data {
		for _, c := range r.Criteria {
			require.Empty(t, c.Descriptors)
		}
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/rubrics/academic_speaking", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var single struct {
		Data dto.RubricResponse `json:"data"`
	}
	decodeResponse(t, resp, &single)
	require.Equal(t, "academic_speaking", string(single.Data.AssessmentType))
	require.NotEmpty(t, single.Data.Criteria)
	require.Len(t, single.Data.Criteria[0].Descriptors, 10)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/rubrics/toefl", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealthCheckReportsModels(t *testing.T) {
	app := fiber.New()
	cfg := config.Config{AppName: "ielts", AppEnv: "test"}
	cfg.Scoring.WritingPrimaryModel = "amazon.nova-micro-v1:0"
	cfg.Scoring.SecondaryProvider = "openai"
	cfg.Scoring.SecondaryModel = "gpt-4o-mini"
	app.Get("/health", handler.HealthCheck(cfg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, "amazon.nova-micro-v1:0", body.Data.Models["writing_primary"])
	require.Equal(t, "openai:gpt-4o-mini", body.Data.Models["secondary"])
}
