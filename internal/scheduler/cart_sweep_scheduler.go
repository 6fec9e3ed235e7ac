package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 5 * time.Minute

// CartPurger deletes anonymous carts idle for longer than idleFor
type CartPurger interface {
	PurgeAbandonedCarts(ctx context.Context, idleFor time.Duration) (int64, error)
}

// CartSweepScheduler removes abandoned anonymous carts on a cron schedule.
// Carts idle longer than the cart cookie lifetime can no longer be reached.
type CartSweepScheduler struct {
	cron     *cron.Cron
	purger   CartPurger
	schedule string
	idleFor  time.Duration
}

func NewCartSweepScheduler(purger CartPurger, schedule string, idleFor time.Duration) *CartSweepScheduler {
	return &CartSweepScheduler{
		cron:     cron.New(),
		purger:   purger,
		schedule: schedule,
		idleFor:  idleFor,
	}
}

// Sweep runs one purge
func (s *CartSweepScheduler) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	logger.Info("Starting abandoned cart sweep", logger.Fields{
		"idle_for": s.idleFor.String(),
	})

	purged, err := s.purger.PurgeAbandonedCarts(ctx, s.idleFor)
	if err != nil {
		logger.Error("Abandoned cart sweep failed", err)
		return
	}

	logger.Info("Abandoned cart sweep finished", logger.Fields{
		"purged": purged,
	})
}

func (s *CartSweepScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		logger.Error("Failed to add cron job for cart sweep", err, logger.Fields{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cart sweep scheduler started", logger.Fields{
		"schedule": s.schedule,
	})
	return nil
}

// Stop waits for a running sweep to finish
func (s *CartSweepScheduler) Stop() {
	logger.Info("Stopping cart sweep scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Cart sweep scheduler stopped")
}
