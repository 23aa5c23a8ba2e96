package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codearena/judge-api/internal/dto"
	"github.com/codearena/judge-api/internal/service"
	"github.com/codearena/judge-api/internal/utils"
	"github.com/codearena/judge-api/pkg/judge"
)

// JudgeHandler exposes the run and submit evaluation endpoints.
type JudgeHandler struct {
	service   service.EvaluationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewJudgeHandler constructs the handler.
func NewJudgeHandler(service service.EvaluationService, validator *validator.Validate, logger zerolog.Logger) *JudgeHandler {
	return &JudgeHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "judge_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *JudgeHandler) Register(router fiber.Router) {
	router.Post("/:id/run", h.run)
	router.Post("/:id/submit", h.submit)
}

func (h *JudgeHandler) run(c *fiber.Ctx) error {
	problemID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.RunRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Run(c.Context(), userID, problemID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "run completed", response)
}

func (h *JudgeHandler) submit(c *fiber.Ctx) error {
	problemID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Submit(c.Context(), userID, problemID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission graded", response)
}

func (h *JudgeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrUnsupportedLanguage):
		return utils.SendError(c, fiber.StatusBadRequest, "language not supported")
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, judge.ErrTimeout):
		requestLogger(h.logger, c).Error().Err(err).Msg("execution service poll timed out")
		return utils.SendError(c, fiber.StatusGatewayTimeout, "execution service timed out")
	case errors.Is(err, judge.ErrUnavailable):
		requestLogger(h.logger, c).Error().Err(err).Msg("execution service unavailable")
		return utils.SendError(c, fiber.StatusBadGateway, "execution service unavailable")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
