package tasks

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/taskbot/users"
)

type fakeStore struct {
	mu sync.Mutex
	m  map[string]Task
}

func newFakeStore() *fakeStore {
	return &fakeStore{m: make(map[string]Task)}
}

func (s *fakeStore) Create(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[t.ID] = *t
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (s *fakeStore) Update(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[t.ID]; !ok {
		return ErrNotFound
	}
	s.m[t.ID] = *t
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *fakeStore) ListByOwner(_ context.Context, ownerID string) ([]*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Task
	for _, t := range s.m {
		if t.UserID == ownerID {
			cp := t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) Search(_ context.Context, ownerID, term string) ([]*Task, error) {
	all, _ := s.ListByOwner(context.Background(), ownerID)
	var out []*Task
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(term)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) DueWithin(_ context.Context, ownerID string, from, to time.Time) ([]*Task, error) {
	all, _ := s.ListByOwner(context.Background(), ownerID)
	var out []*Task
	for _, t := range all {
		if t.Deadline != nil && !t.Deadline.Before(from) && !t.Deadline.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *fakeNotifier) Notify(_ context.Context, _ *users.User, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
}

var owner = &users.User{ID: "user_1", TelegramID: 1, Notifications: true}

func TestServiceCreate(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, notifier)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Regexp(t, `^task_\d+_[0-9a-f]{8}$`, task.ID)

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "Buy milk")
}

func TestServiceCreateRejectsBadTitles(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "  ")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(ctx, owner, strings.Repeat("x", MaxTitleLen+1))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestServiceOwnership(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, "Mine")
	require.NoError(t, err)

	stranger := &users.User{ID: "user_2", TelegramID: 2}
	_, err = svc.Get(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = svc.Delete(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Still present.
	_, err = store.Get(ctx, task.ID)
	require.NoError(t, err)
}

func TestServiceSaveRejectsPastDeadline(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, "Timed")
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	task.Deadline = &past
	assert.ErrorIs(t, svc.Save(ctx, owner, task), ErrPastDeadline)

	future := time.Now().Add(time.Hour)
	task.Deadline = &future
	assert.NoError(t, svc.Save(ctx, owner, task))
}

func TestServiceCompleteNotifies(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, notifier)
	ctx := context.Background()

	task, err := svc.Create(ctx, owner, "Finish")
	require.NoError(t, err)

	done, err := svc.Complete(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	require.Len(t, notifier.sent, 2)
	assert.Contains(t, notifier.sent[1], "completed")
}

func TestServiceMutedOwnerGetsNoNotifications(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, notifier)
	ctx := context.Background()

	muted := &users.User{ID: "user_3", TelegramID: 3, Notifications: false}
	_, err := svc.Create(ctx, muted, "Quiet")
	require.NoError(t, err)
	assert.Empty(t, notifier.sent)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(ErrUnauthorized))
	assert.False(t, IsNotFound(ErrInvalid))
	assert.False(t, IsNotFound(nil))
}
