package booking

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSweeper schedules a background expiry sweep at the given
// interval and starts the scheduler.  The interval sweep complements
// the sweep-before-read every protocol operation already performs;
// it keeps the availability map fresh even when no one is writing.
// Sweep failures are logged and retried on the next tick, never
// fatal.  The returned scheduler should be shut down on exit.
func StartSweeper(svc *Service, every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			res, err := svc.SweepExpired(ctx, time.Time{})
			if err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
				return
			}
			if res.ReleasedHolds > 0 || res.CancelledBookings > 0 {
				log.Printf("sweeper: released %d holds, expired %d bookings",
					res.ReleasedHolds, res.CancelledBookings)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
