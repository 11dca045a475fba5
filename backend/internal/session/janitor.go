package session

import (
	"fmt"
	"time"

	"continuum/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically ends sessions that have been idle too long
type Janitor struct {
	store     *Store
	maxIdle   time.Duration
	cron      *cron.Cron
	onExpired func(*Session)
	logger    *zap.Logger
}

// NewJanitor schedules Sweep on store using a cron spec such as
// "@every 5m". onExpired, if set, is called for each expired session.
func NewJanitor(store *Store, schedule string, maxIdle time.Duration, onExpired func(*Session)) (*Janitor, error) {
	j := &Janitor{
		store:     store,
		maxIdle:   maxIdle,
		cron:      cron.New(),
		onExpired: onExpired,
		logger:    logger.Named("session_janitor"),
	}

	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins running the schedule in the background
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("Session janitor started", zap.Duration("max_idle", j.maxIdle))
}

// Stop halts the schedule and waits for a running sweep to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce performs a single sweep
func (j *Janitor) RunOnce() {
	expired := j.store.Sweep(j.maxIdle)
	for _, sess := range expired {
		j.logger.Info("Session expired", zap.String("session_id", sess.ID))
		if j.onExpired != nil {
			j.onExpired(sess)
		}
	}
}
