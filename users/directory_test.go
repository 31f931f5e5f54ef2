package users

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu sync.Mutex
	m  map[int64]User
}

func newFakeStore() *fakeStore {
	return &fakeStore{m: make(map[int64]User)}
}

func (s *fakeStore) GetByTelegramID(_ context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (s *fakeStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[u.TelegramID] = *u
	return nil
}

func (s *fakeStore) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[u.TelegramID]; !ok {
		return ErrNotFound
	}
	s.m[u.TelegramID] = *u
	return nil
}

func TestRegisterCreatesOnce(t *testing.T) {
	d := NewDirectory(newFakeStore())
	ctx := context.Background()
	profile := Profile{TelegramID: 42, Username: "alice", FullName: " Alice Smith ", Language: "de"}

	u, created, err := d.Register(ctx, profile)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "user_42", u.ID)
	assert.Equal(t, "Alice Smith", u.FullName)
	assert.Equal(t, "de", u.Language)
	assert.True(t, u.Notifications)

	again, created, err := d.Register(ctx, profile)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
}

func TestRegisterDefaultsLanguage(t *testing.T) {
	d := NewDirectory(newFakeStore())
	u, _, err := d.Register(context.Background(), Profile{TelegramID: 7})
	require.NoError(t, err)
	assert.Equal(t, "en", u.Language)
}

func TestResolveUnknown(t *testing.T) {
	d := NewDirectory(newFakeStore())
	_, err := d.Resolve(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetLanguage(t *testing.T) {
	store := newFakeStore()
	d := NewDirectory(store)
	ctx := context.Background()

	u, _, err := d.Register(ctx, Profile{TelegramID: 9})
	require.NoError(t, err)
	require.NoError(t, d.SetLanguage(ctx, u, "fr"))

	reloaded, err := d.Resolve(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "fr", reloaded.Language)
}
