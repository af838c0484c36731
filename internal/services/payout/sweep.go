package payout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Notifier delivers overdue payout reminders. Delivery channels live outside
// the settlement engine.
type Notifier interface {
	NotifyOverdue(ctx context.Context, overdue []OverduePayout) error
}

// LogNotifier writes reminders to the standard logger.
type LogNotifier struct{}

func (LogNotifier) NotifyOverdue(_ context.Context, overdue []OverduePayout) error {
	for _, o := range overdue {
		log.Printf("⏰ Payout overdue: tournament %d (%s) installment %d amount %d, %d days past %s",
			o.TournamentID, o.TournamentName, o.Installment, o.Amount, o.DaysOverdue, o.DueAt.Format("2006-01-02"))
	}
	return nil
}

// Sweeper runs ListOverdue once a day and hands the result to a Notifier.
// It never mutates settlement state.
type Sweeper struct {
	service  *Service
	notifier Notifier
	sched    gocron.Scheduler
	timeout  time.Duration
}

func NewSweeper(service *Service, notifier Notifier) *Sweeper {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Sweeper{service: service, notifier: notifier, timeout: time.Minute}
}

// RunOnce performs a single sweep at the service clock's current time.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	overdue, err := s.service.ListOverdue(ctx, s.service.cfg.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue payouts: %w", err)
	}
	if len(overdue) == 0 {
		return 0, nil
	}
	if err := s.notifier.NotifyOverdue(ctx, overdue); err != nil {
		return len(overdue), fmt.Errorf("failed to notify overdue payouts: %w", err)
	}
	return len(overdue), nil
}

// Start schedules the daily sweep at hour:00 local time.
func (s *Sweeper) Start(hour uint) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			n, err := s.RunOnce(ctx)
			if err != nil {
				log.Printf("[Scheduler] overdue sweep failed: %v", err)
				return
			}
			log.Printf("[Scheduler] overdue sweep found %d installments", n)
		}),
		gocron.WithName("overdue-payout-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}

	sched.Start()
	s.sched = sched
	return nil
}

func (s *Sweeper) Stop() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
