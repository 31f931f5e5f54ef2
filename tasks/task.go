package tasks

import (
	"fmt"
	"strings"
	"time"
)

// Status enumerates the lifecycle states of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Priority enumerates task priorities from low to urgent.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority maps a wire value to a Priority. Unknown values fall back to
// medium, mirroring how priority buttons have always been interpreted.
func ParsePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	case PriorityUrgent:
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

// MaxTitleLen bounds task titles at the validation layer.
const MaxTitleLen = 200

// Task is the record the bot reads, mutates in place, and writes back.
type Task struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Status      Status     `db:"status"`
	Priority    Priority   `db:"priority"`
	Deadline    *time.Time `db:"deadline"`
	Tags        []string   `db:"-"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	CompletedAt *time.Time `db:"completed_at"`
	RemindedAt  *time.Time `db:"reminded_at"`
}

// SetStatus transitions the task and stamps completion time when the new
// status is completed. Completion is always an explicit transition.
func (t *Task) SetStatus(status Status, now time.Time) {
	t.Status = status
	t.UpdatedAt = now
	if status == StatusCompleted {
		done := now
		t.CompletedAt = &done
	}
}

// AddTags appends tags that are not already present.
func (t *Task) AddTags(tags []string) {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		exists := false
		for _, have := range t.Tags {
			if have == tag {
				exists = true
				break
			}
		}
		if !exists {
			t.Tags = append(t.Tags, tag)
		}
	}
}

// IsOverdue reports whether the deadline has passed on an unfinished task.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	return now.After(*t.Deadline) && t.Status != StatusCompleted
}

// Validate checks the task invariants enforced before every write.
func (t *Task) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalid)
	}
	if len([]rune(t.Title)) > MaxTitleLen {
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalid, MaxTitleLen)
	}
	return nil
}
