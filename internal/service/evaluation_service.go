package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/codearena/judge-api/internal/dto"
	"github.com/codearena/judge-api/internal/models"
	"github.com/codearena/judge-api/internal/observability"
	"github.com/codearena/judge-api/internal/repository"
	"github.com/codearena/judge-api/pkg/judge"
)

// ErrProblemNotFound indicates the problem id does not resolve.
var ErrProblemNotFound = errors.New("problem not found")

// ErrUnsupportedLanguage indicates the requested language is outside the
// supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrNoTestCases indicates a problem without test cases reached evaluation,
// which the authoring path is supposed to prevent.
var ErrNoTestCases = errors.New("problem has no test cases")

// EvaluationService orchestrates run and submit evaluations.
type EvaluationService interface {
	// Run evaluates code against the problem's visible test cases. Nothing is
	// persisted and progress is never touched.
	Run(ctx context.Context, userID, problemID uint, payload dto.RunRequest) (dto.RunResponse, error)
	// Submit grades code against the problem's hidden test cases, records the
	// attempt, and reconciles progress on an accepted verdict.
	Submit(ctx context.Context, userID, problemID uint, payload dto.SubmitRequest) (dto.SubmitResponse, error)
}

type evaluationService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	reconciler  ProgressReconciler
	client      judge.Client
	events      VerdictPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewEvaluationService constructs the evaluation orchestrator. The verdict
// publisher may be nil when no event broker is configured.
func NewEvaluationService(problems repository.ProblemRepository, submissions repository.SubmissionRepository, reconciler ProgressReconciler, client judge.Client, events VerdictPublisher, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		problems:    problems,
		submissions: submissions,
		reconciler:  reconciler,
		client:      client,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/codearena/judge-api/internal/service/evaluation"),
	}
}

func (s *evaluationService) Run(ctx context.Context, userID, problemID uint, payload dto.RunRequest) (dto.RunResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RunResponse{}, err
	}

	language, err := judge.ParseLanguage(payload.Language)
	if err != nil {
		return dto.RunResponse{}, fmt.Errorf("%w: %v", ErrUnsupportedLanguage, err)
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return dto.RunResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "evaluation.run", trace.WithAttributes(
		attribute.Int64("problem.id", int64(problemID)),
		attribute.String("submission.language", language.String()),
	))
	defer span.End()

	results, err := s.evaluate(spanCtx, payload.Code, language, problem.VisibleTestCases)
	if err != nil {
		span.RecordError(err)
		return dto.RunResponse{}, err
	}

	verdict := ReduceVerdict(results)

	testCases := make([]dto.TestCaseResult, 0, len(results))
	for _, result := range results {
		testCases = append(testCases, dto.TestCaseResult{
			StatusID: result.StatusID,
			Passed:   result.StatusID == judge.StatusAccepted,
			Time:     result.TimeSeconds(),
			MemoryKB: result.MemoryKB,
			Stderr:   result.Stderr,
		})
	}

	return dto.RunResponse{
		Success:      verdict.Accepted(),
		TestCases:    testCases,
		Runtime:      verdict.Runtime,
		MemoryKB:     verdict.MemoryKB,
		ErrorMessage: verdict.ErrorMessage,
	}, nil
}

func (s *evaluationService) Submit(ctx context.Context, userID, problemID uint, payload dto.SubmitRequest) (dto.SubmitResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitResponse{}, err
	}

	language, err := judge.ParseLanguage(payload.Language)
	if err != nil {
		return dto.SubmitResponse{}, fmt.Errorf("%w: %v", ErrUnsupportedLanguage, err)
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return dto.SubmitResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "evaluation.submit", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("problem.id", int64(problemID)),
		attribute.String("submission.language", language.String()),
	))
	defer span.End()

	// The pending record goes in before any judge traffic so a crash or a
	// judge outage mid-evaluation still leaves an auditable attempt.
	submission := models.Submission{
		UserID:         userID,
		ProblemID:      problemID,
		Code:           payload.Code,
		Language:       language.String(),
		TestCasesTotal: len(problem.HiddenTestCases),
	}
	if err := s.submissions.Create(spanCtx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmitResponse{}, err
	}

	// Once dispatched the batch cannot be retracted; the evaluation runs to
	// completion and finalizes the record even if the caller hangs up.
	evalCtx := context.WithoutCancel(spanCtx)

	results, err := s.evaluate(evalCtx, payload.Code, language, problem.HiddenTestCases)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).
			Uint("submission_id", submission.ID).
			Msg("evaluation failed, submission left pending")
		return dto.SubmitResponse{}, err
	}

	verdict := ReduceVerdict(results)

	if err := s.submissions.Finalize(evalCtx, submission.ID, verdict); err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrAlreadyFinalized) {
			s.logger.Error().Err(err).
				Uint("submission_id", submission.ID).
				Msg("double finalize attempted")
		}
		return dto.SubmitResponse{}, err
	}

	observability.Verdicts().WithLabelValues(verdict.Status).Inc()

	submission.Status = verdict.Status
	submission.TestCasesPassed = verdict.Passed
	submission.Runtime = verdict.Runtime
	submission.MemoryKB = verdict.MemoryKB
	submission.ErrorMessage = verdict.ErrorMessage

	if err := s.reconciler.Reconcile(evalCtx, userID, problemID, problem.Difficulty, verdict.Status); err != nil {
		// The record is already finalized; surfacing the failure keeps the
		// counter divergence visible instead of pretending it worked.
		span.RecordError(err)
		s.logger.Error().Err(err).
			Uint("user_id", userID).
			Uint("problem_id", problemID).
			Msg("progress reconciliation failed after finalize")
		return dto.SubmitResponse{}, err
	}

	if s.events != nil {
		s.events.PublishFinalized(evalCtx, submission)
	}

	return dto.NewSubmitResponse(submission), nil
}

func (s *evaluationService) loadProblem(ctx context.Context, problemID uint) (models.Problem, error) {
	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Problem{}, ErrProblemNotFound
		}
		return models.Problem{}, err
	}
	return problem, nil
}

// evaluate builds the batch, dispatches it, and waits for terminal results.
// Result ordering matches test-case ordering; the aggregator depends on it.
func (s *evaluationService) evaluate(ctx context.Context, code string, language judge.Language, testCases []models.TestCase) ([]judge.Result, error) {
	if len(testCases) == 0 {
		return nil, ErrNoTestCases
	}

	units := make([]judge.Unit, 0, len(testCases))
	for _, testCase := range testCases {
		units = append(units, judge.Unit{
			SourceCode:     code,
			LanguageID:     language.ID(),
			Stdin:          testCase.Input,
			ExpectedOutput: testCase.ExpectedOutput,
		})
	}

	tokens, err := s.client.SubmitBatch(ctx, units)
	if err != nil {
		return nil, err
	}

	return s.client.AwaitAll(ctx, tokens)
}
