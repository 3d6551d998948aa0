package service

import (
	"strings"
	"sync"
	"time"

	"github.com/coteri/server/internal/coteri/types"
)

// DefaultReplayWindow is how long a staff session's previous result is
// replayed for repeated submissions. Long enough to absorb a double-tap or
// a network retry, short enough that deliberate re-scans are re-evaluated.
const DefaultReplayWindow = time.Second

// ReplayCache de-duplicates rapid repeat submissions from one staff
// session. It is keyed per session, not per membership — the goal is to
// stop a device double-submitting a single physical scan, not to stop a
// member being scanned twice.
type ReplayCache struct {
	mu       sync.Mutex
	window   time.Duration
	sessions map[string]*replayEntry
}

type replayEntry struct {
	lastAttemptAt time.Time
	lastResult    types.VerifyResult
}

func NewReplayCache(window time.Duration) *ReplayCache {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &ReplayCache{
		window:   window,
		sessions: make(map[string]*replayEntry),
	}
}

// Check returns the session's cached result when the previous attempt was
// inside the replay window. The returned copy is marked RateLimited so the
// caller can suppress the duplicate audit write.
func (c *ReplayCache) Check(sessionID string, now time.Time) (types.VerifyResult, bool) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return types.VerifyResult{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.sessions[sessionID]
	if !ok || now.Sub(e.lastAttemptAt) >= c.window {
		return types.VerifyResult{}, false
	}

	res := e.lastResult
	res.RateLimited = true
	return res, true
}

// Store records the session's latest attempt. Last write wins.
func (c *ReplayCache) Store(sessionID string, now time.Time, res types.VerifyResult) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[sessionID] = &replayEntry{lastAttemptAt: now, lastResult: res}
}

// PruneOlderThan drops sessions whose last attempt predates the cutoff.
// Returns the number of sessions evicted.
func (c *ReplayCache) PruneOlderThan(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, e := range c.sessions {
		if e.lastAttemptAt.Before(cutoff) {
			delete(c.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live sessions. Test-only helper.
func (c *ReplayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
