package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/codearena/judge-api/internal/models"
	"github.com/codearena/judge-api/internal/repository"
)

// ProgressReconciler updates a user's solved set and difficulty counters
// after an accepted submission.
type ProgressReconciler interface {
	// Reconcile is a no-op unless verdictStatus is accepted. When it is, the
	// problem is added to the user's solved set and the difficulty counter is
	// incremented, exactly once across resubmissions and concurrent submits.
	Reconcile(ctx context.Context, userID, problemID uint, difficulty, verdictStatus string) error
}

type progressReconciler struct {
	progress repository.UserProgressRepository
	cache    ProgressInvalidator
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// ProgressInvalidator drops cached progress views after a counter mutation.
type ProgressInvalidator interface {
	Invalidate(ctx context.Context, userID uint)
}

// NewProgressReconciler constructs a progress reconciler. The invalidator may
// be nil when no progress cache is configured.
func NewProgressReconciler(progress repository.UserProgressRepository, cache ProgressInvalidator, logger zerolog.Logger) ProgressReconciler {
	return &progressReconciler{
		progress: progress,
		cache:    cache,
		logger:   logger.With().Str("component", "progress_reconciler").Logger(),
		tracer:   otel.Tracer("github.com/codearena/judge-api/internal/service/progress"),
	}
}

func (r *progressReconciler) Reconcile(ctx context.Context, userID, problemID uint, difficulty, verdictStatus string) error {
	if verdictStatus != models.SubmissionStatusAccepted {
		return nil
	}

	spanCtx, span := r.tracer.Start(ctx, "progress.reconcile", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("problem.id", int64(problemID)),
		attribute.String("problem.difficulty", difficulty),
	))
	defer span.End()

	newlySolved, err := r.progress.MarkSolved(spanCtx, userID, problemID, difficulty)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if !newlySolved {
		r.logger.Debug().
			Uint("user_id", userID).
			Uint("problem_id", problemID).
			Msg("problem already solved, counters untouched")
		return nil
	}

	if r.cache != nil {
		r.cache.Invalidate(spanCtx, userID)
	}

	r.logger.Info().
		Uint("user_id", userID).
		Uint("problem_id", problemID).
		Str("difficulty", difficulty).
		Msg("problem marked solved")
	return nil
}
