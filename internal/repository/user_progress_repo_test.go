package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codearena/judge-api/internal/models"
)

func TestMarkSolvedIncrementsCounterOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserProgressRepository(db)

	user := models.User{DisplayName: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(&user).Error)

	newlySolved, err := repo.MarkSolved(context.Background(), user.ID, 42, models.DifficultyMedium)
	require.NoError(t, err)
	require.True(t, newlySolved)

	// Resubmitting an already-solved problem must not move the counter.
	newlySolved, err = repo.MarkSolved(context.Background(), user.ID, 42, models.DifficultyMedium)
	require.NoError(t, err)
	require.False(t, newlySolved)

	stored, err := repo.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.MediumSolved)
	require.Zero(t, stored.EasySolved)
	require.Zero(t, stored.HardSolved)
}

func TestMarkSolvedTracksDifficultiesIndependently(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserProgressRepository(db)

	user := models.User{DisplayName: "Grace", Email: "grace@example.com"}
	require.NoError(t, db.Create(&user).Error)

	for problemID, difficulty := range map[uint]string{
		1: models.DifficultyEasy,
		2: models.DifficultyEasy,
		3: models.DifficultyHard,
	} {
		newlySolved, err := repo.MarkSolved(context.Background(), user.ID, problemID, difficulty)
		require.NoError(t, err)
		require.True(t, newlySolved)
	}

	stored, err := repo.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.EasySolved)
	require.Zero(t, stored.MediumSolved)
	require.Equal(t, 1, stored.HardSolved)
}

func TestMarkSolvedRejectsUnknownDifficulty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserProgressRepository(db)

	_, err := repo.MarkSolved(context.Background(), 1, 1, "brutal")
	require.Error(t, err)
}

func TestListSolvedReturnsUsersProblems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserProgressRepository(db)

	user := models.User{DisplayName: "Linus", Email: "linus@example.com"}
	require.NoError(t, db.Create(&user).Error)

	problems := []models.Problem{
		{Title: "Two Sum", Description: "d", Difficulty: models.DifficultyEasy},
		{Title: "LRU Cache", Description: "d", Difficulty: models.DifficultyMedium},
		{Title: "Median of Streams", Description: "d", Difficulty: models.DifficultyHard},
	}
	for i := range problems {
		require.NoError(t, db.Create(&problems[i]).Error)
	}

	for _, problem := range problems[:2] {
		newlySolved, err := repo.MarkSolved(context.Background(), user.ID, problem.ID, problem.Difficulty)
		require.NoError(t, err)
		require.True(t, newlySolved)
	}

	solved, err := repo.ListSolved(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, solved, 2)

	titles := []string{solved[0].Title, solved[1].Title}
	require.ElementsMatch(t, []string{"Two Sum", "LRU Cache"}, titles)
}
