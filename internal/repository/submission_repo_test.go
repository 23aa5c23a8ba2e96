package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/codearena/judge-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Problem{}, &models.Submission{}, &models.SolvedProblem{}))
	return db
}

func TestSubmissionRepositoryCreateForcesPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	submission := models.Submission{
		UserID:    1,
		ProblemID: 2,
		Code:      "print(42)",
		Language:  "python",
		Status:    models.SubmissionStatusAccepted,
	}
	require.NoError(t, repo.Create(context.Background(), &submission))
	require.NotZero(t, submission.ID)
	require.Equal(t, models.SubmissionStatusPending, submission.Status)

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, stored.Status)
	require.False(t, stored.IsTerminal())
}

func TestSubmissionRepositoryFinalizeHappensOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	submission := models.Submission{UserID: 1, ProblemID: 2, Code: "x", Language: "go"}
	require.NoError(t, repo.Create(context.Background(), &submission))

	verdict := models.Verdict{
		Status:   models.SubmissionStatusAccepted,
		Passed:   5,
		Total:    5,
		Runtime:  1.25,
		MemoryKB: 2048,
	}
	require.NoError(t, repo.Finalize(context.Background(), submission.ID, verdict))

	stored, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAccepted, stored.Status)
	require.Equal(t, 5, stored.TestCasesPassed)
	require.InDelta(t, 1.25, stored.Runtime, 1e-9)
	require.Equal(t, 2048, stored.MemoryKB)
	require.True(t, stored.IsTerminal())

	// Second finalize must fail loudly, not overwrite.
	second := models.Verdict{Status: models.SubmissionStatusWrong, ErrorMessage: "late"}
	err = repo.Finalize(context.Background(), submission.ID, second)
	require.ErrorIs(t, err, ErrAlreadyFinalized)

	stored, err = repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAccepted, stored.Status)
	require.Empty(t, stored.ErrorMessage)
}

func TestSubmissionRepositoryFinalizeRejectsPendingVerdict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	submission := models.Submission{UserID: 1, ProblemID: 2, Code: "x", Language: "go"}
	require.NoError(t, repo.Create(context.Background(), &submission))

	err := repo.Finalize(context.Background(), submission.ID, models.Verdict{Status: models.SubmissionStatusPending})
	require.ErrorIs(t, err, ErrVerdictNotTerminal)
}

func TestSubmissionRepositoryFinalizeMissingRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	err := repo.Finalize(context.Background(), 999, models.Verdict{Status: models.SubmissionStatusWrong})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	for _, code := range []string{"first", "second", "third"} {
		submission := models.Submission{UserID: 7, ProblemID: 3, Code: code, Language: "python"}
		require.NoError(t, repo.Create(context.Background(), &submission))
	}
	other := models.Submission{UserID: 8, ProblemID: 3, Code: "not mine", Language: "python"}
	require.NoError(t, repo.Create(context.Background(), &other))

	submissions, err := repo.ListByUserAndProblem(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Len(t, submissions, 3)
	for _, submission := range submissions {
		require.Equal(t, uint(7), submission.UserID)
	}
}
