package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codearena/judge-api/internal/dto"
	"github.com/codearena/judge-api/internal/handler"
	"github.com/codearena/judge-api/internal/service"
	"github.com/codearena/judge-api/pkg/judge"
)

type mockEvaluationService struct {
	runResponse    dto.RunResponse
	submitResponse dto.SubmitResponse
	lastUserID     uint
	lastProblemID  uint
	err            error
}

func (m *mockEvaluationService) Run(_ context.Context, userID, problemID uint, _ dto.RunRequest) (dto.RunResponse, error) {
	m.lastUserID = userID
	m.lastProblemID = problemID
	if m.err != nil {
		return dto.RunResponse{}, m.err
	}
	return m.runResponse, nil
}

func (m *mockEvaluationService) Submit(_ context.Context, userID, problemID uint, _ dto.SubmitRequest) (dto.SubmitResponse, error) {
	m.lastUserID = userID
	m.lastProblemID = problemID
	if m.err != nil {
		return dto.SubmitResponse{}, m.err
	}
	return m.submitResponse, nil
}

func withUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func newJudgeApp(svc service.EvaluationService, middlewares ...fiber.Handler) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/problems", middlewares...)
	handler.NewJudgeHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop()).Register(group)
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	require.NoError(t, resp.Body.Close())
}

func submitRequest(problemID string) *http.Request {
	body := strings.NewReader(`{"code":"solve()","language":"python"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/"+problemID+"/submit", body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestJudgeHandlerSubmitSuccess(t *testing.T) {
	svc := &mockEvaluationService{submitResponse: dto.SubmitResponse{
		SubmissionID:    11,
		Accepted:        true,
		TotalTestCases:  5,
		PassedTestCases: 5,
		Runtime:         0.42,
		MemoryKB:        2048,
	}}
	app := newJudgeApp(svc, withUser(7))

	resp, err := app.Test(submitRequest("3"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool               `json:"success"`
		Data    dto.SubmitResponse `json:"data"`
		Message string             `json:"message"`
	}
	decodeResponse(t, resp, &body)

	require.True(t, body.Success)
	require.Equal(t, uint(11), body.Data.SubmissionID)
	require.True(t, body.Data.Accepted)
	require.Equal(t, uint(7), svc.lastUserID)
	require.Equal(t, uint(3), svc.lastProblemID)
}

func TestJudgeHandlerSubmitRequiresUser(t *testing.T) {
	app := newJudgeApp(&mockEvaluationService{})

	resp, err := app.Test(submitRequest("3"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJudgeHandlerSubmitInvalidProblemID(t *testing.T) {
	app := newJudgeApp(&mockEvaluationService{}, withUser(7))

	resp, err := app.Test(submitRequest("abc"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestJudgeHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unsupported language", service.ErrUnsupportedLanguage, fiber.StatusBadRequest},
		{"unknown problem", service.ErrProblemNotFound, fiber.StatusNotFound},
		{"judge timeout", judge.ErrTimeout, fiber.StatusGatewayTimeout},
		{"judge unavailable", judge.ErrUnavailable, fiber.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newJudgeApp(&mockEvaluationService{err: tc.err}, withUser(7))

			resp, err := app.Test(submitRequest("3"))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestJudgeHandlerRunSuccess(t *testing.T) {
	svc := &mockEvaluationService{runResponse: dto.RunResponse{
		Success: true,
		TestCases: []dto.TestCaseResult{
			{StatusID: judge.StatusAccepted, Passed: true, Time: 0.1, MemoryKB: 512},
		},
		Runtime:  0.1,
		MemoryKB: 512,
	}}
	app := newJudgeApp(svc, withUser(7))

	body := strings.NewReader(`{"code":"solve()","language":"cpp"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems/3/run", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool            `json:"success"`
		Data    dto.RunResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Data.Success)
	require.Len(t, payload.Data.TestCases, 1)
}
