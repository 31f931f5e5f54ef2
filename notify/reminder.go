package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/tasks"
	"github.com/m3rciful/taskbot/users"
)

// ReminderConfig tunes the deadline reminder sweep.
type ReminderConfig struct {
	Enabled         bool `yaml:"enabled" envconfig:"REMINDER_ENABLED"`
	IntervalSeconds int  `yaml:"interval_seconds" envconfig:"REMINDER_INTERVAL_SECONDS"`
	WindowMinutes   int  `yaml:"window_minutes" envconfig:"REMINDER_WINDOW_MINUTES"`
}

func (c ReminderConfig) interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c ReminderConfig) window() time.Duration {
	if c.WindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.WindowMinutes) * time.Minute
}

// ReminderStore is the slice of task storage the sweep needs.
type ReminderStore interface {
	DueForReminder(ctx context.Context, before time.Time) ([]*tasks.Task, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}

// UserLookup resolves internal user ids to users.
type UserLookup interface {
	Get(ctx context.Context, id string) (*users.User, error)
}

// Reminder periodically scans for tasks whose deadline enters the reminder
// window and pings their owners once per task.
type Reminder struct {
	store    ReminderStore
	users    UserLookup
	sink     *Sink
	interval time.Duration
	window   time.Duration
	now      func() time.Time
}

// NewReminder wires a Reminder. A zero interval defaults to a minute, a
// zero window to an hour.
func NewReminder(store ReminderStore, lookup UserLookup, sink *Sink, cfg ReminderConfig) *Reminder {
	return &Reminder{
		store:    store,
		users:    lookup,
		sink:     sink,
		interval: cfg.interval(),
		window:   cfg.window(),
		now:      time.Now,
	}
}

// Run executes the sweep loop until the context is cancelled.
func (r *Reminder) Run(ctx context.Context) error {
	logger.LogEvent(ctx, logger.NTF, slog.LevelInfo, "reminder.start",
		slog.Duration("interval", r.interval),
		slog.Duration("window", r.window),
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.LogEvent(ctx, logger.NTF, slog.LevelInfo, "reminder.stop")
			return ctx.Err()
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil && ctx.Err() == nil {
				logger.LogEvent(ctx, logger.NTF, slog.LevelError, "reminder.sweep_failed",
					slog.String("err", err.Error()),
				)
			}
		}
	}
}

func (r *Reminder) sweep(ctx context.Context) error {
	now := r.now().UTC()
	due, err := r.store.DueForReminder(ctx, now.Add(r.window))
	if err != nil {
		return fmt.Errorf("scan due tasks: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	logger.LogEvent(ctx, logger.NTF, slog.LevelDebug, "reminder.sweep",
		slog.Int("reminders", len(due)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, t := range due {
		t := t
		g.Go(func() error {
			return r.remind(gctx, t, now)
		})
	}
	return g.Wait()
}

func (r *Reminder) remind(ctx context.Context, t *tasks.Task, now time.Time) error {
	owner, err := r.users.Get(ctx, t.UserID)
	if err != nil {
		// Orphaned task; stamp it anyway so it stops surfacing.
		_ = r.store.MarkReminded(ctx, t.ID, now)
		return fmt.Errorf("resolve owner of %s: %w", t.ID, err)
	}

	text := fmt.Sprintf("⏰ Reminder: '%s' is due %s.", t.Title, t.Deadline.Format("02.01.2006 15:04"))
	if t.Deadline.Before(now) {
		text = fmt.Sprintf("⚠️ Overdue: '%s' was due %s.", t.Title, t.Deadline.Format("02.01.2006 15:04"))
	}
	r.sink.Notify(ctx, owner, text)

	if err := r.store.MarkReminded(ctx, t.ID, now); err != nil {
		return err
	}
	return nil
}
