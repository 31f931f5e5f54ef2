package tasks

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDFormat(t *testing.T) {
	now := time.Unix(1756100000, 0)
	id := NewID(now)
	assert.Regexp(t, regexp.MustCompile(`^task_1756100000_[0-9a-f]{8}$`), id)
}

func TestNewIDUniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID(now)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestValidate(t *testing.T) {
	ok := &Task{Title: "Fine"}
	assert.NoError(t, ok.Validate())

	empty := &Task{Title: "   "}
	assert.ErrorIs(t, empty.Validate(), ErrInvalid)

	long := &Task{Title: strings.Repeat("x", MaxTitleLen+1)}
	assert.ErrorIs(t, long.Validate(), ErrInvalid)

	exact := &Task{Title: strings.Repeat("x", MaxTitleLen)}
	assert.NoError(t, exact.Validate())
}

func TestSetStatusStampsCompletion(t *testing.T) {
	now := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	task := &Task{Title: "t", Status: StatusTodo}

	task.SetStatus(StatusInProgress, now)
	assert.Nil(t, task.CompletedAt)

	task.SetStatus(StatusCompleted, now)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(now))
}

func TestAddTagsDeduplicates(t *testing.T) {
	task := &Task{Tags: []string{"work"}}
	task.AddTags([]string{"work", "home", "", "home"})
	assert.Equal(t, []string{"work", "home"}, task.Tags)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&Task{Status: StatusTodo}).IsOverdue(now))
	assert.True(t, (&Task{Status: StatusTodo, Deadline: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusTodo, Deadline: &future}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusCompleted, Deadline: &past}).IsOverdue(now))
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityUrgent, ParsePriority("urgent"))
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority(" low "))
	assert.Equal(t, PriorityMedium, ParsePriority("medium"))
	assert.Equal(t, PriorityMedium, ParsePriority("bogus"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
}
