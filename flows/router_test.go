package flows

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/taskbot/tasks"
	"github.com/m3rciful/taskbot/users"
)

type memTaskStore struct {
	mu sync.Mutex
	m  map[string]tasks.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{m: make(map[string]tasks.Task)}
}

func (s *memTaskStore) Create(_ context.Context, t *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[t.ID] = *t
	return nil
}

func (s *memTaskStore) Get(_ context.Context, id string) (*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[id]
	if !ok {
		return nil, tasks.ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (s *memTaskStore) Update(_ context.Context, t *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[t.ID]; !ok {
		return tasks.ErrNotFound
	}
	s.m[t.ID] = *t
	return nil
}

func (s *memTaskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return tasks.ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *memTaskStore) ListByOwner(_ context.Context, ownerID string) ([]*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*tasks.Task
	for _, t := range s.m {
		if t.UserID == ownerID {
			cp := t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memTaskStore) Search(_ context.Context, ownerID, term string) ([]*tasks.Task, error) {
	all, _ := s.ListByOwner(context.Background(), ownerID)
	term = strings.ToLower(term)
	var out []*tasks.Task
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memTaskStore) DueWithin(_ context.Context, ownerID string, from, to time.Time) ([]*tasks.Task, error) {
	all, _ := s.ListByOwner(context.Background(), ownerID)
	var out []*tasks.Task
	for _, t := range all {
		if t.Deadline != nil && !t.Deadline.Before(from) && !t.Deadline.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

type memUserStore struct {
	mu sync.Mutex
	m  map[int64]users.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{m: make(map[int64]users.User)}
}

func (s *memUserStore) GetByTelegramID(_ context.Context, id int64) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.m[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (s *memUserStore) Create(_ context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[u.TelegramID] = *u
	return nil
}

func (s *memUserStore) Update(_ context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[u.TelegramID] = *u
	return nil
}

type routerFixture struct {
	router  *Router
	store   *memTaskStore
	profile users.Profile
	owner   *users.User
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	store := newMemTaskStore()
	dir := users.NewDirectory(newMemUserStore())
	r := NewRouter(NewPending(), tasks.NewService(store, nil), dir)

	profile := users.Profile{TelegramID: 42, Username: "alice", FullName: "Alice", Language: "en"}
	owner, _, err := dir.Register(context.Background(), profile)
	require.NoError(t, err)

	return &routerFixture{router: r, store: store, profile: profile, owner: owner}
}

func (f *routerFixture) createTask(t *testing.T, title string) *tasks.Task {
	t.Helper()
	svc := tasks.NewService(f.store, nil)
	task, err := svc.Create(context.Background(), f.owner, title)
	require.NoError(t, err)
	return task
}

func TestDeadlineButtonFlow(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Write report")
	ctx := context.Background()

	resp, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbSetDeadline, task.ID))
	require.NoError(t, err)
	assert.True(t, resp.Edit)
	assert.Contains(t, resp.Text, "Write report")
	assert.True(t, f.router.Pending().InProgress(f.profile.TelegramID))

	resp, claimed, err := f.router.HandleText(ctx, f.profile, "tomorrow 18:00")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "Deadline for 'Write report'")
	assert.False(t, f.router.Pending().InProgress(f.profile.TelegramID))

	stored, err := f.store.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Deadline)
	assert.Equal(t, 18, stored.Deadline.Hour())
}

func TestPriorityButtonIsImmediate(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Pay rent")
	ctx := context.Background()

	resp, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbPriority, "high", task.ID))
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "high")
	assert.False(t, f.router.Pending().InProgress(f.profile.TelegramID), "priority selection must not arm a follow-up")

	stored, err := f.store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.PriorityHigh, stored.Priority)
}

func TestSecondButtonOverwritesPending(t *testing.T) {
	f := newRouterFixture(t)
	first := f.createTask(t, "First")
	second := f.createTask(t, "Second")
	ctx := context.Background()

	_, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbSetDeadline, first.ID))
	require.NoError(t, err)
	_, err = f.router.HandleAction(ctx, f.profile, EncodeAction(VerbAddTags, second.ID))
	require.NoError(t, err)

	// The text must feed the tags flow of the second task; the deadline flow
	// of the first was displaced.
	resp, claimed, err := f.router.HandleText(ctx, f.profile, "home urgent")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "Second")

	stored, err := f.store.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "urgent"}, stored.Tags)

	untouched, err := f.store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, untouched.Deadline)
}

func TestUnparseableDeadlineKeepsFlow(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Call dentist")
	ctx := context.Background()

	_, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbSetDeadline, task.ID))
	require.NoError(t, err)

	resp, claimed, err := f.router.HandleText(ctx, f.profile, "whenever")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "could not read")
	assert.True(t, f.router.Pending().InProgress(f.profile.TelegramID), "failed parse must keep the flow armed")

	// A valid retry succeeds without pressing the button again.
	resp, claimed, err = f.router.HandleText(ctx, f.profile, "2 weeks")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "Deadline for")
	assert.False(t, f.router.Pending().InProgress(f.profile.TelegramID))
}

func TestMalformedAndUnknownPayloads(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	for _, payload := range []string{"garbage", "", "frobnicate_task_1_a"} {
		resp, err := f.router.HandleAction(ctx, f.profile, payload)
		require.NoError(t, err)
		assert.Equal(t, "Unknown action.", resp.Text)
	}
	assert.False(t, f.router.Pending().InProgress(f.profile.TelegramID))
}

func TestActionOnMissingTask(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	resp, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbSetDeadline, "task_0_dead"))
	require.NoError(t, err)
	assert.Equal(t, "Task not found.", resp.Text)
	assert.False(t, f.router.Pending().InProgress(f.profile.TelegramID), "missing task must not arm a follow-up")
}

func TestForeignTaskLooksMissing(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Private")
	ctx := context.Background()

	stranger := users.Profile{TelegramID: 99, Username: "mallory", FullName: "Mallory"}
	dir := f.router.users
	_, _, err := dir.Register(ctx, stranger)
	require.NoError(t, err)

	resp, err := f.router.HandleAction(ctx, stranger, EncodeAction(VerbDone, task.ID))
	require.NoError(t, err)
	assert.Equal(t, "Task not found.", resp.Text)

	stored, err := f.store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusTodo, stored.Status)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Old chore")
	ctx := context.Background()

	resp, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbDelete, task.ID))
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "cannot be undone")
	require.NotEmpty(t, resp.Buttons)

	// Still there until confirmed.
	_, err = f.store.Get(ctx, task.ID)
	require.NoError(t, err)

	resp, err = f.router.HandleAction(ctx, f.profile, EncodeAction(VerbConfirmDelete, task.ID))
	require.NoError(t, err)
	assert.Equal(t, "Task deleted.", resp.Text)

	_, err = f.store.Get(ctx, task.ID)
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestDoneMarksCompleted(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Ship release")
	ctx := context.Background()

	resp, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbDone, task.ID))
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Task completed")

	stored, err := f.store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestNewTaskFollowUpFlow(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	resp, err := f.router.NewTask(ctx, f.profile, "")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "called")
	assert.True(t, f.router.Pending().InProgress(f.profile.TelegramID))

	resp, claimed, err := f.router.HandleText(ctx, f.profile, "Buy groceries")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "Buy groceries")
	assert.NotEmpty(t, resp.Buttons)

	list, err := f.store.ListByOwner(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Buy groceries", list[0].Title)
}

func TestOverlongTitleKeepsCreateFlow(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	_, err := f.router.NewTask(ctx, f.profile, "")
	require.NoError(t, err)

	resp, claimed, err := f.router.HandleText(ctx, f.profile, strings.Repeat("x", 201))
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "too long")
	assert.True(t, f.router.Pending().InProgress(f.profile.TelegramID))
}

func TestSearchFollowUpFlow(t *testing.T) {
	f := newRouterFixture(t)
	f.createTask(t, "Water the plants")
	f.createTask(t, "File taxes")
	ctx := context.Background()

	resp, err := f.router.StartSearch(ctx, f.profile, "")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "search")

	resp, claimed, err := f.router.HandleText(ctx, f.profile, "plants")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "Water the plants")
	assert.NotContains(t, resp.Text, "File taxes")
}

func TestIdleTextIsNotClaimed(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	_, claimed, err := f.router.HandleText(ctx, f.profile, "hello there")
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestUnregisteredSenderIsPrompted(t *testing.T) {
	store := newMemTaskStore()
	dir := users.NewDirectory(newMemUserStore())
	r := NewRouter(NewPending(), tasks.NewService(store, nil), dir)
	ctx := context.Background()
	stranger := users.Profile{TelegramID: 7}

	resp, err := r.HandleAction(ctx, stranger, EncodeAction(VerbDone, "task_1_a"))
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "/start")
}

func TestEditTitleFlow(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Old title")
	ctx := context.Background()

	resp, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbEditTitle, task.ID))
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Old title")

	resp, claimed, err := f.router.HandleText(ctx, f.profile, "New title")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Contains(t, resp.Text, "Old title")
	assert.Contains(t, resp.Text, "New title")

	stored, err := f.store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", stored.Title)
}

func TestEditTagsReplaces(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Tagged")
	ctx := context.Background()

	_, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbAddTags, task.ID))
	require.NoError(t, err)
	_, claimed, err := f.router.HandleText(ctx, f.profile, "old stale")
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.router.HandleAction(ctx, f.profile, EncodeAction(VerbEditTags, task.ID))
	require.NoError(t, err)
	resp, claimed, err := f.router.HandleText(ctx, f.profile, "fresh")
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Contains(t, resp.Text, "fresh")

	stored, err := f.store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, stored.Tags)
}

func TestEditCancelClearsPending(t *testing.T) {
	f := newRouterFixture(t)
	task := f.createTask(t, "Anything")
	ctx := context.Background()

	_, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbEditTitle, task.ID))
	require.NoError(t, err)
	require.True(t, f.router.Pending().InProgress(f.profile.TelegramID))

	resp, err := f.router.HandleAction(ctx, f.profile, EncodeAction(VerbEditCancel, task.ID))
	require.NoError(t, err)
	assert.Equal(t, "Edit cancelled.", resp.Text)
	assert.False(t, f.router.Pending().InProgress(f.profile.TelegramID))
}
