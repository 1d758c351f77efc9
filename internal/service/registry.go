package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DashboardRegistry keeps one Dashboard per session id. Entries idle for
// longer than the ttl are evicted by Sweep.
type DashboardRegistry struct {
	newDashboard func() *Dashboard
	ttl          time.Duration
	logger       *logrus.Logger
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	dashboard *Dashboard
	lastSeen  time.Time
}

func NewDashboardRegistry(newDashboard func() *Dashboard, ttl time.Duration, logger *logrus.Logger) *DashboardRegistry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DashboardRegistry{
		newDashboard: newDashboard,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
		entries:      make(map[string]*registryEntry),
	}
}

func (r *DashboardRegistry) Get(sessionID string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		entry = &registryEntry{dashboard: r.newDashboard()}
		r.entries[sessionID] = entry
	}
	entry.lastSeen = r.now()
	return entry.dashboard
}

func (r *DashboardRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

func (r *DashboardRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts idle entries and returns how many were removed.
func (r *DashboardRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *DashboardRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.WithField("count", n).Debug("Idle dashboards evicted")
			}
		}
	}
}
