package jobs

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/funillab/insta-dash-server/internal/config"
)

// ExpiredSessionDeleter is the slice of the session repository the job needs.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionCleanupJob deletes expired dashboard session rows.
type SessionCleanupJob struct {
	sessions ExpiredSessionDeleter
}

func NewSessionCleanupJob(sessions ExpiredSessionDeleter) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions}
}

func (j *SessionCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), config.CleanupRunTimeout)
	defer cancel()

	count, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup expired sessions")
		return
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up expired sessions")
	}
}
