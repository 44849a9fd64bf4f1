package copier

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rate-copy-manager/backend/internal/storage"
)

// Janitor periodically prunes idle sessions and expired history rows.
type Janitor struct {
	cron      *cron.Cron
	sessions  *Store
	history   *storage.HistoryRepository
	retention time.Duration
}

// NewJanitor creates a janitor for the given session store. history may be
// nil when no database is configured; retention <= 0 disables history
// pruning.
func NewJanitor(sessions *Store, history *storage.HistoryRepository, retention time.Duration) *Janitor {
	return &Janitor{
		cron:      cron.New(),
		sessions:  sessions,
		history:   history,
		retention: retention,
	}
}

// Start begins the periodic cleanup jobs.
func (j *Janitor) Start() {
	j.cron.AddFunc("@every 1m", func() {
		if pruned := j.sessions.PruneIdle(); pruned > 0 {
			log.Printf("Pruned %d idle session(s)", pruned)
		}
	})

	if j.history != nil && j.retention > 0 {
		j.cron.AddFunc("@every 24h", func() {
			cutoff := time.Now().Add(-j.retention)
			deleted, err := j.history.DeleteOlderThan(context.Background(), cutoff)
			if err != nil {
				log.Printf("History pruning failed: %v", err)
				return
			}
			if deleted > 0 {
				log.Printf("Pruned %d submission history row(s)", deleted)
			}
		})
	}

	j.cron.Start()
}

// Stop halts the cleanup jobs, waiting for any running job to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
