// Package notify delivers out-of-band messages to users: operation
// confirmations and deadline reminders. Delivery is best-effort and never
// fails the operation that triggered it.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/core/telegram/sender"
	"github.com/m3rciful/taskbot/users"
)

// SendFunc pushes a text message to a Telegram chat. It is bound once the
// bot is up.
type SendFunc func(chatID int64, text string) error

// Sink queues notifications through the shared outgoing dispatcher. Until
// Bind is called, notifications are dropped with a debug log.
type Sink struct {
	disp *sender.Dispatcher
	send atomic.Pointer[SendFunc]
}

// NewSink creates a Sink on the given dispatcher. disp may be nil, in which
// case sends run inline.
func NewSink(disp *sender.Dispatcher) *Sink {
	return &Sink{disp: disp}
}

// Bind installs the transport send function.
func (s *Sink) Bind(send SendFunc) {
	s.send.Store(&send)
}

// Notify delivers a text message to the user, honoring the notifications
// preference.
func (s *Sink) Notify(ctx context.Context, u *users.User, text string) {
	if u == nil || !u.Notifications {
		return
	}
	fn := s.send.Load()
	if fn == nil {
		logger.LogEvent(ctx, logger.NTF, slog.LevelDebug, "notify.unbound",
			slog.String("user_id", u.ID),
		)
		return
	}
	run := func() error { return (*fn)(u.TelegramID, text) }

	if s.disp == nil {
		s.deliver(ctx, u, run)
		return
	}
	err := s.disp.Enqueue(ctx, "notify", "sendMessage", run)
	if err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			s.deliver(ctx, u, run)
			return
		}
		logger.LogEvent(ctx, logger.NTF, slog.LevelWarn, "notify.enqueue_failed",
			slog.String("user_id", u.ID),
			slog.String("err", err.Error()),
		)
	}
}

func (s *Sink) deliver(ctx context.Context, u *users.User, run func() error) {
	if err := run(); err != nil {
		logger.LogEvent(ctx, logger.NTF, slog.LevelWarn, "notify.send_failed",
			slog.String("user_id", u.ID),
			slog.String("err", err.Error()),
		)
	}
}
