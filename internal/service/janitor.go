package service

import (
	"context"
	"log/slog"
	"time"
)

// SessionCollector evicts expired sessions and reports how many went.
// *session.Gate satisfies it.
type SessionCollector interface {
	Collect(ctx context.Context) int
}

// Janitor periodically evicts expired sessions and drops workspaces nobody
// has touched for longer than idle.
type Janitor struct {
	sessions   SessionCollector
	workspaces *Workspaces
	log        *slog.Logger
	interval   time.Duration
	idle       time.Duration
	stopCh     chan struct{}
}

// NewJanitor returns a janitor sweeping every interval.
func NewJanitor(sessions SessionCollector, workspaces *Workspaces, log *slog.Logger, interval, idle time.Duration) *Janitor {
	return &Janitor{
		sessions:   sessions,
		workspaces: workspaces,
		log:        log,
		interval:   interval,
		idle:       idle,
		stopCh:     make(chan struct{}),
	}
}

// Start sweeps once, then again every interval until ctx is done or Stop is
// called.
func (j *Janitor) Start(ctx context.Context) {
	j.Collect(ctx)

	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.Collect(ctx)
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the periodic sweep. Call it at most once.
func (j *Janitor) Stop() {
	close(j.stopCh)
}

// Collect runs one sweep.
func (j *Janitor) Collect(ctx context.Context) {
	sessions := j.sessions.Collect(ctx)
	dropped := j.workspaces.Sweep(j.workspaces.now().Add(-j.idle))
	if sessions > 0 || dropped > 0 {
		j.log.InfoContext(ctx, "janitor sweep",
			"sessions_evicted", sessions,
			"workspaces_dropped", dropped,
			"workspaces_live", j.workspaces.Len(),
		)
	}
}
