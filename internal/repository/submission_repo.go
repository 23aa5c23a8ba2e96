package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/codearena/judge-api/internal/models"
)

// ErrAlreadyFinalized indicates a second finalize was attempted on a
// submission that already reached a terminal status. This is a programming
// error on the caller's side, never silently absorbed.
var ErrAlreadyFinalized = errors.New("submission already finalized")

// ErrVerdictNotTerminal indicates a finalize was attempted with a pending
// verdict status.
var ErrVerdictNotTerminal = errors.New("verdict status is not terminal")

// SubmissionRepository is the durable log of submission attempts. Records
// follow an append-then-update-once lifecycle and are never deleted here.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	Finalize(ctx context.Context, id uint, verdict models.Verdict) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListByUserAndProblem(ctx context.Context, userID, problemID uint) ([]models.Submission, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	submission.Status = models.SubmissionStatusPending
	return r.db.WithContext(ctx).Create(submission).Error
}

// Finalize applies the verdict as a single conditional update guarded by the
// pending status. The guard is what makes the transition exactly-once: a
// record that already left pending matches zero rows.
func (r *submissionRepository) Finalize(ctx context.Context, id uint, verdict models.Verdict) error {
	if verdict.Status == models.SubmissionStatusPending {
		return ErrVerdictNotTerminal
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusPending).
		Updates(map[string]interface{}{
			"status":            verdict.Status,
			"test_cases_passed": verdict.Passed,
			"runtime":           verdict.Runtime,
			"memory_kb":         verdict.MemoryKB,
			"error_message":     verdict.ErrorMessage,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Submission{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrAlreadyFinalized
	}

	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ListByUserAndProblem(ctx context.Context, userID, problemID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}
