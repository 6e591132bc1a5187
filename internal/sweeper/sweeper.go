package sweeper

import (
	"context"
	"log"
	"time"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/metrics"
	"parking-gate-backend/internal/store"
)

// Service periodically purges daily records past the retention window and
// reconciles the occupancy counter against the entry list.
type Service struct {
	cfg   *config.Config
	store store.Store
}

// NewService creates a new sweeper service.
func NewService(cfg *config.Config, s store.Store) *Service {
	return &Service{cfg: cfg, store: s}
}

// Run starts the sweep loop. It blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting retention sweeper...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Parking.SweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retention sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Parking.SweepInterval)
		}
	}
}

// SweepOnce performs a single purge and reconciliation pass.
func (s *Service) SweepOnce(ctx context.Context) {
	cutoff := time.Now().In(s.cfg.Parking.Location()).
		AddDate(0, 0, -s.cfg.Parking.RetentionDays)

	purged, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Error purging records before %s: %v", cutoff.Format("2006-01-02"), err)
	} else if purged > 0 {
		log.Printf("Purged %d daily records older than %s", purged, cutoff.Format("2006-01-02"))
	}

	drift, err := s.store.Reconcile(ctx)
	if err != nil {
		log.Printf("Error reconciling occupancy counter: %v", err)
		return
	}
	metrics.CounterDrift.Set(float64(drift))
	if drift != 0 {
		log.Printf("Warning: occupied-slot counter drift detected: %d", drift)
	}
}
