package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codearena/judge-api/internal/models"
)

// UserProgressRepository owns the user's solved-problem set and the
// per-difficulty counters.
type UserProgressRepository interface {
	// MarkSolved adds the problem to the user's solved set and increments the
	// matching difficulty counter as one atomic conditional mutation. It
	// returns true when the problem was newly marked, false when the user had
	// already solved it (in which case no counter moves).
	MarkSolved(ctx context.Context, userID, problemID uint, difficulty string) (bool, error)
	GetUser(ctx context.Context, userID uint) (models.User, error)
	ListSolved(ctx context.Context, userID uint) ([]models.Problem, error)
}

// NewUserProgressRepository constructs a user progress repository.
func NewUserProgressRepository(db *gorm.DB) UserProgressRepository {
	return &userProgressRepository{db: db}
}

type userProgressRepository struct {
	db *gorm.DB
}

func (r *userProgressRepository) MarkSolved(ctx context.Context, userID, problemID uint, difficulty string) (bool, error) {
	column, err := difficultyColumn(difficulty)
	if err != nil {
		return false, err
	}

	newlySolved := false
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The composite unique index on (user_id, problem_id) arbitrates
		// concurrent accepted submissions: exactly one insert takes effect.
		insert := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SolvedProblem{UserID: userID, ProblemID: problemID})
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return nil
		}

		newlySolved = true
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	})
	if err != nil {
		return false, err
	}

	return newlySolved, nil
}

func (r *userProgressRepository) GetUser(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userProgressRepository) ListSolved(ctx context.Context, userID uint) ([]models.Problem, error) {
	var problems []models.Problem
	err := r.db.WithContext(ctx).Model(&models.Problem{}).
		Joins("JOIN solved_problems ON solved_problems.problem_id = problems.id").
		Where("solved_problems.user_id = ?", userID).
		Order("solved_problems.created_at DESC").
		Find(&problems).Error
	if err != nil {
		return nil, err
	}
	return problems, nil
}

func difficultyColumn(difficulty string) (string, error) {
	switch difficulty {
	case models.DifficultyEasy:
		return "easy_solved", nil
	case models.DifficultyMedium:
		return "medium_solved", nil
	case models.DifficultyHard:
		return "hard_solved", nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", difficulty)
	}
}
