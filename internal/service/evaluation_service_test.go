package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/codearena/judge-api/internal/dto"
	"github.com/codearena/judge-api/internal/models"
	"github.com/codearena/judge-api/internal/repository"
	"github.com/codearena/judge-api/pkg/judge"
)

type stubProblemRepo struct {
	problem models.Problem
	err     error
}

func (s *stubProblemRepo) Create(ctx context.Context, problem *models.Problem) error { return s.err }
func (s *stubProblemRepo) Update(ctx context.Context, problem *models.Problem) error { return s.err }
func (s *stubProblemRepo) Delete(ctx context.Context, id uint) error                 { return s.err }

func (s *stubProblemRepo) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	if s.err != nil {
		return models.Problem{}, s.err
	}
	if s.problem.ID == 0 {
		return models.Problem{}, gorm.ErrRecordNotFound
	}
	return s.problem, nil
}

func (s *stubProblemRepo) List(ctx context.Context, query repository.ProblemQuery) ([]models.Problem, int64, error) {
	return nil, 0, errors.New("not implemented")
}

type stubSubmissionLog struct {
	created     *models.Submission
	finalizedID uint
	verdict     *models.Verdict
	createErr   error
	finalizeErr error
}

func (s *stubSubmissionLog) Create(ctx context.Context, submission *models.Submission) error {
	if s.createErr != nil {
		return s.createErr
	}
	submission.ID = 11
	submission.Status = models.SubmissionStatusPending
	clone := *submission
	s.created = &clone
	return nil
}

func (s *stubSubmissionLog) Finalize(ctx context.Context, id uint, verdict models.Verdict) error {
	if s.finalizeErr != nil {
		return s.finalizeErr
	}
	s.finalizedID = id
	clone := verdict
	s.verdict = &clone
	return nil
}

func (s *stubSubmissionLog) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (s *stubSubmissionLog) ListByUserAndProblem(ctx context.Context, userID, problemID uint) ([]models.Submission, error) {
	return nil, nil
}

type stubReconciler struct {
	calls  int
	status string
	err    error
}

func (s *stubReconciler) Reconcile(ctx context.Context, userID, problemID uint, difficulty, verdictStatus string) error {
	s.calls++
	s.status = verdictStatus
	return s.err
}

type stubJudgeClient struct {
	units     []judge.Unit
	results   []judge.Result
	submitErr error
	awaitErr  error
}

func (s *stubJudgeClient) SubmitBatch(ctx context.Context, units []judge.Unit) ([]judge.Token, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.units = units
	tokens := make([]judge.Token, len(units))
	for i := range units {
		tokens[i] = judge.Token(rune('a' + i))
	}
	return tokens, nil
}

func (s *stubJudgeClient) AwaitAll(ctx context.Context, tokens []judge.Token) ([]judge.Result, error) {
	if s.awaitErr != nil {
		return nil, s.awaitErr
	}
	return s.results, nil
}

type stubPublisher struct {
	published []models.Submission
}

func (s *stubPublisher) PublishFinalized(ctx context.Context, submission models.Submission) {
	s.published = append(s.published, submission)
}

func testProblem() models.Problem {
	return models.Problem{
		ID:         3,
		Title:      "Two Sum",
		Difficulty: models.DifficultyEasy,
		VisibleTestCases: datatypes.NewJSONSlice([]models.TestCase{
			{Input: "1 2", ExpectedOutput: "3", Explanation: "adds"},
		}),
		HiddenTestCases: datatypes.NewJSONSlice([]models.TestCase{
			{Input: "1 2", ExpectedOutput: "3"},
			{Input: "2 3", ExpectedOutput: "5"},
		}),
	}
}

func newEvaluationFixture(client judge.Client) (EvaluationService, *stubSubmissionLog, *stubReconciler, *stubPublisher) {
	submissions := &stubSubmissionLog{}
	reconciler := &stubReconciler{}
	publisher := &stubPublisher{}
	svc := NewEvaluationService(
		&stubProblemRepo{problem: testProblem()},
		submissions,
		reconciler,
		client,
		publisher,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
	return svc, submissions, reconciler, publisher
}

func TestSubmitAcceptedFinalizesAndReconciles(t *testing.T) {
	client := &stubJudgeClient{results: []judge.Result{
		{StatusID: judge.StatusAccepted, Time: "0.10", MemoryKB: 1500},
		{StatusID: judge.StatusAccepted, Time: "0.20", MemoryKB: 2500},
	}}
	svc, submissions, reconciler, publisher := newEvaluationFixture(client)

	response, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Code: "solve()", Language: "python"})
	require.NoError(t, err)

	require.True(t, response.Accepted)
	require.Equal(t, uint(11), response.SubmissionID)
	require.Equal(t, 2, response.TotalTestCases)
	require.Equal(t, 2, response.PassedTestCases)
	require.InDelta(t, 0.30, response.Runtime, 1e-9)
	require.Equal(t, 2500, response.MemoryKB)

	require.NotNil(t, submissions.created)
	require.Equal(t, models.SubmissionStatusPending, submissions.created.Status)
	require.Equal(t, uint(11), submissions.finalizedID)
	require.Equal(t, models.SubmissionStatusAccepted, submissions.verdict.Status)

	require.Equal(t, 1, reconciler.calls)
	require.Equal(t, models.SubmissionStatusAccepted, reconciler.status)

	require.Len(t, publisher.published, 1)
	require.Equal(t, models.SubmissionStatusAccepted, publisher.published[0].Status)
}

func TestSubmitHiddenCasesAreTheGradingSet(t *testing.T) {
	client := &stubJudgeClient{results: []judge.Result{
		{StatusID: judge.StatusAccepted, Time: "0.1"},
		{StatusID: judge.StatusAccepted, Time: "0.1"},
	}}
	svc, _, _, _ := newEvaluationFixture(client)

	_, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Code: "solve()", Language: "go"})
	require.NoError(t, err)
	require.Len(t, client.units, 2)
	require.Equal(t, "2 3", client.units[1].Stdin)
	require.Equal(t, "5", client.units[1].ExpectedOutput)
}

func TestSubmitWrongAnswerStillReconciled(t *testing.T) {
	client := &stubJudgeClient{results: []judge.Result{
		{StatusID: judge.StatusAccepted, Time: "0.1"},
		{StatusID: 5, Stderr: "expected 5 got 4"},
	}}
	svc, submissions, reconciler, _ := newEvaluationFixture(client)

	response, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Code: "solve()", Language: "go"})
	require.NoError(t, err)
	require.False(t, response.Accepted)
	require.Equal(t, 1, response.PassedTestCases)

	require.Equal(t, models.SubmissionStatusWrong, submissions.verdict.Status)
	require.Equal(t, "expected 5 got 4", submissions.verdict.ErrorMessage)

	// The reconciler sees the verdict and decides for itself; a wrong answer
	// must not move counters, which the reconciler handles by status.
	require.Equal(t, 1, reconciler.calls)
	require.Equal(t, models.SubmissionStatusWrong, reconciler.status)
}

func TestSubmitJudgeOutageLeavesSubmissionPending(t *testing.T) {
	client := &stubJudgeClient{awaitErr: judge.ErrTimeout}
	svc, submissions, reconciler, publisher := newEvaluationFixture(client)

	_, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Code: "solve()", Language: "go"})
	require.ErrorIs(t, err, judge.ErrTimeout)

	require.NotNil(t, submissions.created, "pending record must exist before dispatch")
	require.Zero(t, submissions.finalizedID, "a failed evaluation must not finalize")
	require.Zero(t, reconciler.calls)
	require.Empty(t, publisher.published)
}

func TestSubmitReconcilerFailureSurfaces(t *testing.T) {
	client := &stubJudgeClient{results: []judge.Result{{StatusID: judge.StatusAccepted, Time: "0.1"}, {StatusID: judge.StatusAccepted, Time: "0.1"}}}
	submissions := &stubSubmissionLog{}
	reconciler := &stubReconciler{err: errors.New("counter update failed")}
	svc := NewEvaluationService(&stubProblemRepo{problem: testProblem()}, submissions, reconciler, client, nil, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	_, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Code: "solve()", Language: "go"})
	require.Error(t, err)
	require.Equal(t, uint(11), submissions.finalizedID, "record stays finalized even when reconciliation fails")
}

func TestSubmitNormalizesCPPAlias(t *testing.T) {
	client := &stubJudgeClient{results: []judge.Result{
		{StatusID: judge.StatusAccepted, Time: "0.1"},
		{StatusID: judge.StatusAccepted, Time: "0.1"},
	}}
	svc, submissions, _, _ := newEvaluationFixture(client)

	_, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Code: "int main(){}", Language: "cpp"})
	require.NoError(t, err)
	require.Equal(t, "c++", submissions.created.Language)
	require.Equal(t, 54, client.units[0].LanguageID)
}

func TestSubmitRejectsUnsupportedLanguage(t *testing.T) {
	svc, submissions, _, _ := newEvaluationFixture(&stubJudgeClient{})

	_, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Code: "puts 'hi'", Language: "ruby"})
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
	require.Nil(t, submissions.created, "nothing is persisted for a rejected language")
}

func TestSubmitUnknownProblem(t *testing.T) {
	svc := NewEvaluationService(&stubProblemRepo{}, &stubSubmissionLog{}, &stubReconciler{}, &stubJudgeClient{}, nil, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	_, err := svc.Submit(context.Background(), 7, 99, dto.SubmitRequest{Code: "solve()", Language: "go"})
	require.ErrorIs(t, err, ErrProblemNotFound)
}

func TestSubmitValidatesPayload(t *testing.T) {
	svc, _, _, _ := newEvaluationFixture(&stubJudgeClient{})

	_, err := svc.Submit(context.Background(), 7, 3, dto.SubmitRequest{Language: "go"})
	require.Error(t, err)
}

func TestRunUsesVisibleCasesAndPersistsNothing(t *testing.T) {
	client := &stubJudgeClient{results: []judge.Result{
		{StatusID: judge.StatusAccepted, Time: "0.15", MemoryKB: 640},
	}}
	svc, submissions, reconciler, publisher := newEvaluationFixture(client)

	response, err := svc.Run(context.Background(), 7, 3, dto.RunRequest{Code: "solve()", Language: "python"})
	require.NoError(t, err)

	require.True(t, response.Success)
	require.Len(t, response.TestCases, 1)
	require.True(t, response.TestCases[0].Passed)
	require.InDelta(t, 0.15, response.TestCases[0].Time, 1e-9)

	require.Len(t, client.units, 1)
	require.Equal(t, "1 2", client.units[0].Stdin)

	require.Nil(t, submissions.created)
	require.Zero(t, reconciler.calls)
	require.Empty(t, publisher.published)
}

func TestRunReportsFailureDetails(t *testing.T) {
	client := &stubJudgeClient{results: []judge.Result{
		{StatusID: judge.StatusRuntimeError, Stderr: "division by zero"},
	}}
	svc, _, _, _ := newEvaluationFixture(client)

	response, err := svc.Run(context.Background(), 7, 3, dto.RunRequest{Code: "solve()", Language: "python"})
	require.NoError(t, err)
	require.False(t, response.Success)
	require.Equal(t, "division by zero", response.ErrorMessage)
	require.False(t, response.TestCases[0].Passed)
}
