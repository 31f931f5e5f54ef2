package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/users"
)

// Store persists task records.
type Store interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	Search(ctx context.Context, ownerID, term string) ([]*Task, error)
	DueWithin(ctx context.Context, ownerID string, from, to time.Time) ([]*Task, error)
}

// Notifier delivers out-of-band confirmations to users. Delivery is
// best-effort and must not block or fail the calling operation.
type Notifier interface {
	Notify(ctx context.Context, u *users.User, text string)
}

// Service implements the task use cases on top of a Store. Every accessor
// checks ownership: a task belonging to another user is never returned.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates a task Service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// Create stores a new task with default status and priority.
func (s *Service) Create(ctx context.Context, owner *users.User, title string) (*Task, error) {
	now := s.now().UTC()
	t := &Task{
		ID:        NewID(now),
		UserID:    owner.ID,
		Title:     title,
		Status:    StatusTodo,
		Priority:  PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCTasks, slog.LevelInfo, "task.created",
		slog.String("task_id", t.ID),
		slog.String("user_id", t.UserID),
	)
	s.notify(ctx, owner, fmt.Sprintf("New task created: %s", t.Title))
	return t, nil
}

// Get returns a task owned by the given user. A task that exists but belongs
// to someone else yields ErrUnauthorized.
func (s *Service) Get(ctx context.Context, owner *users.User, id string) (*Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != owner.ID {
		logger.LogEvent(ctx, logger.SVCTasks, slog.LevelWarn, "task.access_denied",
			slog.String("task_id", id),
			slog.String("user_id", owner.ID),
		)
		return nil, ErrUnauthorized
	}
	return t, nil
}

// Save validates and persists a mutated task. Deadlines, when present on a
// task that is still open, must lie in the future.
func (s *Service) Save(ctx context.Context, owner *users.User, t *Task) error {
	if t.UserID != owner.ID {
		return ErrUnauthorized
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Deadline != nil && t.Status != StatusCompleted && !t.Deadline.After(s.now()) {
		return ErrPastDeadline
	}
	t.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, t); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// Complete marks the task completed and notifies the owner.
func (s *Service) Complete(ctx context.Context, owner *users.User, id string) (*Task, error) {
	t, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	t.SetStatus(StatusCompleted, s.now().UTC())
	if err := s.store.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCTasks, slog.LevelInfo, "task.completed",
		slog.String("task_id", t.ID),
		slog.String("user_id", t.UserID),
	)
	s.notify(ctx, owner, fmt.Sprintf("Task completed: %s", t.Title))
	return t, nil
}

// Delete removes a task after an ownership check.
func (s *Service) Delete(ctx context.Context, owner *users.User, id string) error {
	t, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCTasks, slog.LevelInfo, "task.deleted",
		slog.String("task_id", t.ID),
		slog.String("user_id", t.UserID),
	)
	return nil
}

// List returns every task of the owner, newest first.
func (s *Service) List(ctx context.Context, owner *users.User) ([]*Task, error) {
	list, err := s.store.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return list, nil
}

// Search matches the term against titles, descriptions and tags.
func (s *Service) Search(ctx context.Context, owner *users.User, term string) ([]*Task, error) {
	list, err := s.store.Search(ctx, owner.ID, term)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return list, nil
}

// UpcomingDeadlines returns open tasks whose deadline falls within the next
// N days, ordered by deadline.
func (s *Service) UpcomingDeadlines(ctx context.Context, owner *users.User, days int) ([]*Task, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now().UTC()
	list, err := s.store.DueWithin(ctx, owner.ID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("upcoming deadlines: %w", err)
	}
	return list, nil
}

func (s *Service) notify(ctx context.Context, owner *users.User, text string) {
	if s.notifier == nil || owner == nil || !owner.Notifications {
		return
	}
	s.notifier.Notify(ctx, owner, text)
}

// IsNotFound reports whether err means the task does not exist or is not
// visible to the caller. Both cases render the same way to the user.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
}
