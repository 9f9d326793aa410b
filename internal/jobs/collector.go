package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/funillab/insta-dash-server/internal/config"
)

// MetricsCollector is the slice of the collector service the job needs.
type MetricsCollector interface {
	CollectAll(ctx context.Context) (collected, failed int)
}

// CollectorJob runs the daily metrics collection across all clients.
type CollectorJob struct {
	collector MetricsCollector
}

func NewCollectorJob(collector MetricsCollector) *CollectorJob {
	return &CollectorJob{collector: collector}
}

func (j *CollectorJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), config.CollectorRunTimeout)
	defer cancel()

	start := time.Now()
	collected, failed := j.collector.CollectAll(ctx)
	log.Info().
		Int("collected", collected).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("metrics collection run finished")
}
