package jobs

import (
	"context"
	"log"
	"time"

	"rapex.backend/internal/domain/entities"
)

// merchantPruner is the slice of the merchant repository the job needs
type merchantPruner interface {
	ListStaleIncomplete(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Merchant, error)
	Delete(ctx context.Context, id uint) error
}

// RegistrationCleanupJob prunes abandoned registrations: inactive records
// stuck below the final step past the configured age. This keeps half-done
// step-1 records from squatting on usernames and emails forever.
type RegistrationCleanupJob struct {
	repo     merchantPruner
	interval time.Duration
	maxAge   time.Duration
	stop     chan struct{}
}

func NewRegistrationCleanupJob(repo merchantPruner, interval, maxAge time.Duration) *RegistrationCleanupJob {
	return &RegistrationCleanupJob{
		repo:     repo,
		interval: interval,
		maxAge:   maxAge,
		stop:     make(chan struct{}),
	}
}

func (j *RegistrationCleanupJob) Start(ctx context.Context) {
	log.Println("🕐 Starting stale registration cleanup job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Stale registration cleanup job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Stale registration cleanup job stopped")
			return
		case <-ticker.C:
			j.pruneStale(ctx)
		}
	}
}

func (j *RegistrationCleanupJob) Stop() {
	close(j.stop)
}

func (j *RegistrationCleanupJob) pruneStale(ctx context.Context) {
	cutoff := time.Now().Add(-j.maxAge)

	stale, err := j.repo.ListStaleIncomplete(ctx, cutoff, 100)
	if err != nil {
		log.Printf("❌ Error fetching stale registrations: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("🔄 Pruning %d stale registrations...", len(stale))

	removed := 0
	for _, m := range stale {
		if err := j.repo.Delete(ctx, m.ID); err != nil {
			log.Printf("❌ Error deleting stale registration %d: %v", m.ID, err)
			continue
		}
		removed++
	}

	log.Printf("✅ Pruned %d stale registrations", removed)
}
