package service

import (
	"context"
	"log"
	"time"
)

// SessionJanitor periodically evicts replay-cache sessions that have been
// idle longer than the retention period. It runs as a background goroutine
// and is safe to stop via its context or the Stop method.
//
// A retention of 0 disables the janitor entirely.
type SessionJanitor struct {
	cache     *ReplayCache
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// JanitorConfig holds the parameters for NewSessionJanitor.
type JanitorConfig struct {
	// Retention is how long an idle session stays cached.
	// 0 means keep everything (janitor will not start).
	Retention time.Duration

	// Interval is how often the janitor runs. Defaults to 1 minute.
	Interval time.Duration
}

// NewSessionJanitor creates a janitor but does not start it.
// Call Start to begin the background loop.
func NewSessionJanitor(cache *ReplayCache, cfg JanitorConfig, logger *log.Logger) *SessionJanitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	return &SessionJanitor{
		cache:     cache,
		retention: cfg.Retention,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background eviction loop. It runs an immediate sweep on
// startup, then repeats on the configured interval. The loop exits when
// ctx is cancelled or Stop is called.
func (j *SessionJanitor) Start(ctx context.Context) {
	if j.retention <= 0 {
		j.logger.Printf("session janitor disabled (retention=0)")
		close(j.done)
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)

	go j.loop(ctx)

	j.logger.Printf("session janitor started (retention=%s, interval=%s)", j.retention, j.interval)
}

// Stop signals the janitor to exit and waits for it to finish.
func (j *SessionJanitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	<-j.done
}

func (j *SessionJanitor) loop(ctx context.Context) {
	defer close(j.done)

	j.sweep()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SessionJanitor) sweep() {
	cutoff := time.Now().UTC().Add(-j.retention)
	if evicted := j.cache.PruneOlderThan(cutoff); evicted > 0 {
		j.logger.Printf("session janitor: evicted %d idle sessions", evicted)
	}
}
