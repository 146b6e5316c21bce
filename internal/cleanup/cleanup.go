// Package cleanup runs the background sweepers that keep the ticket
// lifecycle honest: listings that never completed their custodial transfer
// are purged, tickets stuck mid-verification are returned to the seller, and
// lapsed reservations are released back to the market.
package cleanup

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/studentseats/ticket-marketplace/internal/config"
	"github.com/studentseats/ticket-marketplace/internal/repository"
)

// Start launches the three sweeper goroutines. They stop when ctx is
// cancelled. Each tick runs one bounded statement; errors are logged and the
// ticker keeps going.
func Start(ctx context.Context, cfg config.Config, tickets *repository.TicketRepo) {
	go run(ctx, "expired-unverified", cfg.DeadlineInterval, func(ctx context.Context) (int64, error) {
		return tickets.DeleteExpiredUnverified(ctx)
	})
	go run(ctx, "stuck-verifying", cfg.CleanupInterval, func(ctx context.Context) (int64, error) {
		return tickets.ResetStuckVerifying(ctx, cfg.VerifyingTimeout)
	})
	go run(ctx, "expired-reservations", cfg.CleanupInterval, func(ctx context.Context) (int64, error) {
		return tickets.ReleaseExpiredReservations(ctx, cfg.ReservationWindow)
	})
}

func run(ctx context.Context, name string, every time.Duration, sweep func(context.Context) (int64, error)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		n, err := sweep(callCtx)
		cancel()
		if err != nil {
			log.WithError(err).WithField("sweeper", name).Error("cleanup sweep failed")
			continue
		}
		if n > 0 {
			log.WithFields(log.Fields{"sweeper": name, "affected": n}).Info("cleanup sweep")
		}
	}
}
