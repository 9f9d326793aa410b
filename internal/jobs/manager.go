package jobs

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Manager owns the cron engine and the background jobs registered on it.
type Manager struct {
	engine *cron.Cron
}

func NewManager() *Manager {
	return &Manager{
		engine: cron.New(),
	}
}

func (m *Manager) Register(schedule string, job cron.Job) error {
	if _, err := m.engine.AddJob(schedule, job); err != nil {
		return err
	}
	return nil
}

func (m *Manager) Start() {
	m.engine.Start()
	log.Info().Msg("job scheduler started")
}

// Stop halts scheduling. Jobs already running finish on their own; each job
// bounds itself with a context timeout.
func (m *Manager) Stop() {
	m.engine.Stop()
	log.Info().Msg("job scheduler stopped")
}
