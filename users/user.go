package users

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no user record exists for a Telegram account.
var ErrNotFound = errors.New("user not found")

// User is a registered bot user.
type User struct {
	ID            string    `db:"id"`
	TelegramID    int64     `db:"telegram_id"`
	Username      string    `db:"username"`
	FullName      string    `db:"full_name"`
	Language      string    `db:"language"`
	Notifications bool      `db:"notifications"`
	CreatedAt     time.Time `db:"created_at"`
}

// Profile carries the sender identity attached to every incoming update.
type Profile struct {
	TelegramID int64
	Username   string
	FullName   string
	Language   string
}
