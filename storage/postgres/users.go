package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/taskbot/users"
)

// UserStore persists users in the users table.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore creates a UserStore on the given pool.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, telegram_id, username, full_name, language, notifications, created_at`

// GetByTelegramID fetches a user by Telegram account id.
func (s *UserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Get fetches a user by internal id.
func (s *UserStore) Get(ctx context.Context, id string) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user. Re-registration of an existing Telegram account
// is a no-op.
func (s *UserStore) Create(ctx context.Context, u *users.User) error {
	const q = `
		INSERT INTO users (id, telegram_id, username, full_name, language, notifications, created_at)
		VALUES (:id, :telegram_id, :username, :full_name, :language, :notifications, :created_at)
		ON CONFLICT (telegram_id) DO NOTHING`
	if _, err := s.db.NamedExecContext(ctx, q, u); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update rewrites the mutable user columns.
func (s *UserStore) Update(ctx context.Context, u *users.User) error {
	const q = `
		UPDATE users SET
			username = :username,
			full_name = :full_name,
			language = :language,
			notifications = :notifications
		WHERE telegram_id = :telegram_id`
	res, err := s.db.NamedExecContext(ctx, q, u)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return users.ErrNotFound
	}
	return nil
}
