package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/taskbot/tasks"
	"github.com/m3rciful/taskbot/users"
)

type memReminderStore struct {
	mu       sync.Mutex
	tasks    []*tasks.Task
	reminded map[string]time.Time
}

func (s *memReminderStore) DueForReminder(_ context.Context, before time.Time) ([]*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*tasks.Task
	for _, t := range s.tasks {
		if _, done := s.reminded[t.ID]; done {
			continue
		}
		if t.Deadline != nil && !t.Deadline.After(before) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memReminderStore) MarkReminded(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminded[id] = at
	return nil
}

type memLookup struct{ m map[string]*users.User }

func (l *memLookup) Get(_ context.Context, id string) (*users.User, error) {
	u, ok := l.m[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

type captureSend struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureSend) fn(_ int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *captureSend) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func fixedNow() time.Time {
	return time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
}

func newSweepFixture(due ...*tasks.Task) (*Reminder, *memReminderStore, *captureSend) {
	store := &memReminderStore{tasks: due, reminded: make(map[string]time.Time)}
	lookup := &memLookup{m: map[string]*users.User{
		"user_1": {ID: "user_1", TelegramID: 1, Notifications: true},
	}}
	capture := &captureSend{}
	sink := NewSink(nil)
	sink.Bind(capture.fn)

	r := NewReminder(store, lookup, sink, ReminderConfig{IntervalSeconds: 60, WindowMinutes: 60})
	r.now = fixedNow
	return r, store, capture
}

func taskDueIn(id string, offset time.Duration) *tasks.Task {
	deadline := fixedNow().Add(offset)
	return &tasks.Task{
		ID:       id,
		UserID:   "user_1",
		Title:    "Task " + id,
		Status:   tasks.StatusTodo,
		Deadline: &deadline,
	}
}

func TestSweepRemindsOnce(t *testing.T) {
	r, store, capture := newSweepFixture(taskDueIn("a", 30*time.Minute))
	ctx := context.Background()

	require.NoError(t, r.sweep(ctx))
	sent := capture.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Task a")

	// Second sweep must not fire again.
	require.NoError(t, r.sweep(ctx))
	assert.Len(t, capture.all(), 1)
	assert.Contains(t, store.reminded, "a")
}

func TestSweepSkipsOutsideWindow(t *testing.T) {
	r, store, capture := newSweepFixture(taskDueIn("far", 3*time.Hour))
	ctx := context.Background()

	require.NoError(t, r.sweep(ctx))
	assert.Empty(t, capture.all())
	assert.NotContains(t, store.reminded, "far")
}

func TestSweepFlagsOverdue(t *testing.T) {
	r, _, capture := newSweepFixture(taskDueIn("late", -time.Hour))
	ctx := context.Background()

	require.NoError(t, r.sweep(ctx))
	sent := capture.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Overdue")
}

func TestSweepStampsOrphans(t *testing.T) {
	orphan := taskDueIn("orphan", 10*time.Minute)
	orphan.UserID = "user_gone"
	r, store, capture := newSweepFixture(orphan)
	ctx := context.Background()

	err := r.sweep(ctx)
	assert.Error(t, err)
	assert.Empty(t, capture.all())
	assert.Contains(t, store.reminded, "orphan", "orphaned tasks must stop resurfacing")
}

func TestSinkHonorsPreference(t *testing.T) {
	capture := &captureSend{}
	sink := NewSink(nil)
	sink.Bind(capture.fn)

	muted := &users.User{ID: "u", TelegramID: 2, Notifications: false}
	sink.Notify(context.Background(), muted, "hello")
	assert.Empty(t, capture.all())
}

func TestUnboundSinkDrops(t *testing.T) {
	sink := NewSink(nil)
	u := &users.User{ID: "u", TelegramID: 2, Notifications: true}
	// Must not panic without a bound transport.
	sink.Notify(context.Background(), u, "hello")
}
