// Package postgres implements the task and user stores on PostgreSQL
// via sqlx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/taskbot/tasks"
)

// TaskStore persists tasks in the tasks table.
type TaskStore struct {
	db *sqlx.DB
}

// NewTaskStore creates a TaskStore on the given pool.
func NewTaskStore(db *sqlx.DB) *TaskStore {
	return &TaskStore{db: db}
}

// taskRow mirrors the tasks table; tags travel as a Postgres text array.
type taskRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	Priority    string         `db:"priority"`
	Deadline    *time.Time     `db:"deadline"`
	Tags        pq.StringArray `db:"tags"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	CompletedAt *time.Time     `db:"completed_at"`
	RemindedAt  *time.Time     `db:"reminded_at"`
}

func (r taskRow) toTask() *tasks.Task {
	return &tasks.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Status:      tasks.Status(r.Status),
		Priority:    tasks.Priority(r.Priority),
		Deadline:    r.Deadline,
		Tags:        []string(r.Tags),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
		RemindedAt:  r.RemindedAt,
	}
}

func rowFromTask(t *tasks.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Deadline:    t.Deadline,
		Tags:        pq.StringArray(t.Tags),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
		RemindedAt:  t.RemindedAt,
	}
}

const taskColumns = `id, user_id, title, description, status, priority,
	deadline, tags, created_at, updated_at, completed_at, reminded_at`

// Create inserts a new task.
func (s *TaskStore) Create(ctx context.Context, t *tasks.Task) error {
	const q = `
		INSERT INTO tasks (id, user_id, title, description, status, priority,
			deadline, tags, created_at, updated_at, completed_at, reminded_at)
		VALUES (:id, :user_id, :title, :description, :status, :priority,
			:deadline, :tags, :created_at, :updated_at, :completed_at, :reminded_at)`
	if _, err := s.db.NamedExecContext(ctx, q, rowFromTask(t)); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Get fetches a task by id.
func (s *TaskStore) Get(ctx context.Context, id string) (*tasks.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tasks.ErrNotFound
		}
		return nil, fmt.Errorf("select task: %w", err)
	}
	return row.toTask(), nil
}

// Update rewrites all mutable columns of the task.
func (s *TaskStore) Update(ctx context.Context, t *tasks.Task) error {
	const q = `
		UPDATE tasks SET
			title = :title,
			description = :description,
			status = :status,
			priority = :priority,
			deadline = :deadline,
			tags = :tags,
			updated_at = :updated_at,
			completed_at = :completed_at,
			reminded_at = :reminded_at
		WHERE id = :id`
	res, err := s.db.NamedExecContext(ctx, q, rowFromTask(t))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tasks.ErrNotFound
	}
	return nil
}

// Delete removes the task.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tasks.ErrNotFound
	}
	return nil
}

// ListByOwner returns all tasks of a user, newest first.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string) ([]*tasks.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return toTasks(rows), nil
}

// Search matches the term case-insensitively against title, description and
// tags.
func (s *TaskStore) Search(ctx context.Context, ownerID, term string) ([]*tasks.Task, error) {
	pattern := "%" + term + "%"
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1
		  AND (title ILIKE $2
		   OR description ILIKE $2
		   OR array_to_string(tags, ' ') ILIKE $2)
		ORDER BY created_at DESC`, ownerID, pattern)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return toTasks(rows), nil
}

// DueWithin returns open tasks with a deadline inside [from, to], ordered by
// deadline.
func (s *TaskStore) DueWithin(ctx context.Context, ownerID string, from, to time.Time) ([]*tasks.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1
		  AND deadline IS NOT NULL
		  AND deadline BETWEEN $2 AND $3
		  AND status NOT IN ('completed', 'cancelled')
		ORDER BY deadline ASC`, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("deadlines: %w", err)
	}
	return toTasks(rows), nil
}

// DueForReminder returns open tasks whose deadline falls before the cutoff
// and which have not been reminded about yet.
func (s *TaskStore) DueForReminder(ctx context.Context, before time.Time) ([]*tasks.Task, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+` FROM tasks
		WHERE deadline IS NOT NULL
		  AND deadline <= $1
		  AND reminded_at IS NULL
		  AND status NOT IN ('completed', 'cancelled')
		ORDER BY deadline ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("reminder scan: %w", err)
	}
	return toTasks(rows), nil
}

// MarkReminded stamps the reminder so the sweep never fires twice.
func (s *TaskStore) MarkReminded(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET reminded_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

func toTasks(rows []taskRow) []*tasks.Task {
	out := make([]*tasks.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toTask())
	}
	return out
}
