package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/taskbot/core/logger"
)

// Store persists user records.
type Store interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

// Directory resolves Telegram senders to registered users and handles
// first-contact registration.
type Directory struct {
	store Store
	now   func() time.Time
}

// NewDirectory creates a Directory backed by the given store.
func NewDirectory(store Store) *Directory {
	return &Directory{store: store, now: time.Now}
}

// Resolve returns the registered user for a Telegram account, or ErrNotFound.
func (d *Directory) Resolve(ctx context.Context, telegramID int64) (*User, error) {
	return d.store.GetByTelegramID(ctx, telegramID)
}

// Register returns the existing user for the profile or creates a new one.
// The second return value reports whether a new record was created.
func (d *Directory) Register(ctx context.Context, p Profile) (*User, bool, error) {
	u, err := d.store.GetByTelegramID(ctx, p.TelegramID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	now := d.now().UTC()
	lang := p.Language
	if lang == "" {
		lang = "en"
	}
	u = &User{
		ID:            fmt.Sprintf("user_%d", p.TelegramID),
		TelegramID:    p.TelegramID,
		Username:      p.Username,
		FullName:      strings.TrimSpace(p.FullName),
		Language:      lang,
		Notifications: true,
		CreatedAt:     now,
	}
	if err := d.store.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "user.registered",
		slog.String("user_id", u.ID),
		slog.String("lang", u.Language),
	)
	return u, true, nil
}

// SetLanguage updates the stored language preference.
func (d *Directory) SetLanguage(ctx context.Context, u *User, lang string) error {
	u.Language = lang
	if err := d.store.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
