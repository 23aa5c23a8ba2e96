package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codearena/judge-api/internal/models"
)

// VerdictPublisher broadcasts submission-finalized events so frontends can
// stream live verdicts. Publishing is best-effort: a broker outage never
// fails the submit path.
type VerdictPublisher interface {
	PublishFinalized(ctx context.Context, submission models.Submission)
}

type verdictEvent struct {
	Source       string    `json:"source"`
	SubmissionID uint      `json:"submission_id"`
	UserID       uint      `json:"user_id"`
	ProblemID    uint      `json:"problem_id"`
	Status       string    `json:"status"`
	Passed       int       `json:"passed"`
	Total        int       `json:"total"`
	SentAt       time.Time `json:"sent_at"`
}

type verdictPublisher struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	nodeID      string
}

// NewVerdictPublisher constructs a verdict publisher. Either broker may be
// nil; events go to whichever is configured.
func NewVerdictPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) VerdictPublisher {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":verdicts"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".verdicts"
	}

	return &verdictPublisher{
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "verdict_publisher").Logger(),
		nodeID:      uuid.NewString(),
	}
}

func (p *verdictPublisher) PublishFinalized(ctx context.Context, submission models.Submission) {
	event := verdictEvent{
		Source:       p.nodeID,
		SubmissionID: submission.ID,
		UserID:       submission.UserID,
		ProblemID:    submission.ProblemID,
		Status:       submission.Status,
		Passed:       submission.TestCasesPassed,
		Total:        submission.TestCasesTotal,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode verdict event")
		return
	}

	if p.redis != nil && p.redisStream != "" {
		if err := p.redis.Publish(ctx, p.redisStream, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Msg("failed to publish verdict to redis")
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Msg("failed to publish verdict to nats")
		}
	}
}
