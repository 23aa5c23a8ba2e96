package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codearena/judge-api/internal/dto"
	"github.com/codearena/judge-api/internal/repository"
)

// ErrUserNotFound indicates the user id does not resolve.
var ErrUserNotFound = errors.New("user not found")

// ProgressService serves a user's solved problems and difficulty counters,
// cached in Redis with a TTL. The reconciler invalidates the cache whenever
// a counter moves.
type ProgressService interface {
	ProgressInvalidator
	GetProgress(ctx context.Context, userID uint) (dto.ProgressResponse, error)
}

type progressService struct {
	progress repository.UserProgressRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewProgressService builds the progress aggregator. The cache client may be
// nil, in which case every read hits the database.
func NewProgressService(progress repository.UserProgressRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	return &progressService{
		progress: progress,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) GetProgress(ctx context.Context, userID uint) (dto.ProgressResponse, error) {
	cacheKey := progressCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	user, err := s.progress.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressResponse{}, ErrUserNotFound
		}
		return dto.ProgressResponse{}, err
	}

	solved, err := s.progress.ListSolved(ctx, userID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	response := dto.NewProgressResponse(user, solved)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached progress view for a user.
func (s *progressService) Invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, progressCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate progress cache")
	}
}

func progressCacheKey(userID uint) string {
	return fmt.Sprintf("progress:user:%d", userID)
}
