package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codearena/judge-api/internal/dto"
	"github.com/codearena/judge-api/internal/models"
	"github.com/codearena/judge-api/internal/repository"
	"github.com/codearena/judge-api/pkg/judge"
)

// ErrReferenceSolutionRejected indicates a reference solution failed at least
// one visible test case during authoring validation.
var ErrReferenceSolutionRejected = errors.New("reference solution failed visible test cases")

// ProblemService exposes problem authoring and browsing operations. Create
// and update re-run the evaluation pipeline in validation mode: a problem is
// only persisted when every reference solution passes all visible test cases.
type ProblemService interface {
	Create(ctx context.Context, payload dto.ProblemCreateRequest) (dto.ProblemResponse, error)
	Update(ctx context.Context, id uint, payload dto.ProblemUpdateRequest) (dto.ProblemResponse, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (dto.ProblemResponse, error)
	List(ctx context.Context, query repository.ProblemQuery) ([]dto.ProblemSummaryResponse, int64, error)
}

type problemService struct {
	problems  repository.ProblemRepository
	client    judge.Client
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewProblemService constructs a problem service.
func NewProblemService(problems repository.ProblemRepository, client judge.Client, validate *validator.Validate, logger zerolog.Logger) ProblemService {
	return &problemService{
		problems:  problems,
		client:    client,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "problem_service").Logger(),
	}
}

func (s *problemService) Create(ctx context.Context, payload dto.ProblemCreateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProblemResponse{}, err
	}

	problem := payload.Model()
	problem.Description = s.sanitizer.Sanitize(problem.Description)

	if err := s.validateReferenceSolutions(ctx, problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	if err := s.problems.Create(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	s.logger.Info().Uint("problem_id", problem.ID).Str("difficulty", problem.Difficulty).Msg("problem created")
	return dto.NewProblemResponse(problem), nil
}

func (s *problemService) Update(ctx context.Context, id uint, payload dto.ProblemUpdateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProblemResponse{}, err
	}

	existing, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}

	problem := payload.Model()
	problem.ID = existing.ID
	problem.CreatedAt = existing.CreatedAt
	problem.Description = s.sanitizer.Sanitize(problem.Description)

	if err := s.validateReferenceSolutions(ctx, problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	if err := s.problems.Update(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	return dto.NewProblemResponse(problem), nil
}

func (s *problemService) Delete(ctx context.Context, id uint) error {
	if err := s.problems.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProblemNotFound
		}
		return err
	}
	return nil
}

func (s *problemService) Get(ctx context.Context, id uint) (dto.ProblemResponse, error) {
	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}
	return dto.NewProblemResponse(problem), nil
}

func (s *problemService) List(ctx context.Context, query repository.ProblemQuery) ([]dto.ProblemSummaryResponse, int64, error) {
	problems, total, err := s.problems.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]dto.ProblemSummaryResponse, 0, len(problems))
	for _, problem := range problems {
		summaries = append(summaries, dto.NewProblemSummaryResponse(problem))
	}
	return summaries, total, nil
}

// validateReferenceSolutions runs every reference solution against the
// problem's visible test cases through the regular evaluation pipeline.
func (s *problemService) validateReferenceSolutions(ctx context.Context, problem models.Problem) error {
	for _, solution := range problem.ReferenceSolutions {
		language, err := judge.ParseLanguage(solution.Language)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedLanguage, err)
		}

		units := make([]judge.Unit, 0, len(problem.VisibleTestCases))
		for _, testCase := range problem.VisibleTestCases {
			units = append(units, judge.Unit{
				SourceCode:     solution.Code,
				LanguageID:     language.ID(),
				Stdin:          testCase.Input,
				ExpectedOutput: testCase.ExpectedOutput,
			})
		}

		tokens, err := s.client.SubmitBatch(ctx, units)
		if err != nil {
			return err
		}

		results, err := s.client.AwaitAll(ctx, tokens)
		if err != nil {
			return err
		}

		verdict := ReduceVerdict(results)
		if !verdict.Accepted() {
			return fmt.Errorf("%w: %s solution passed %d of %d", ErrReferenceSolutionRejected, language, verdict.Passed, verdict.Total)
		}
	}

	return nil
}
