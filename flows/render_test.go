package flows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/taskbot/tasks"
)

func TestRelativeDay(t *testing.T) {
	now := time.Date(2026, time.August, 25, 23, 50, 0, 0, time.UTC)

	assert.Equal(t, "today", relativeDay(now.Add(5*time.Minute), now))
	// Ten minutes later but past midnight is still "tomorrow".
	assert.Equal(t, "tomorrow", relativeDay(now.Add(15*time.Minute), now))
	assert.Equal(t, "in 3 days", relativeDay(now.AddDate(0, 0, 3), now))
	assert.Equal(t, "overdue", relativeDay(now.Add(-24*time.Hour), now))
}

func TestRenderTaskCard(t *testing.T) {
	now := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(-time.Hour)
	task := &tasks.Task{
		Title:       "Write report",
		Status:      tasks.StatusTodo,
		Priority:    tasks.PriorityHigh,
		Description: "quarterly numbers",
		Deadline:    &deadline,
		Tags:        []string{"work", "q3"},
	}

	card := RenderTaskCard(task, now)
	assert.Contains(t, card, "Write report")
	assert.Contains(t, card, "high")
	assert.Contains(t, card, "quarterly numbers")
	assert.Contains(t, card, "work, q3")
	assert.Contains(t, card, "overdue")
}

func TestTaskCardButtonsHideDoneWhenCompleted(t *testing.T) {
	open := &tasks.Task{ID: "task_1_a", Status: tasks.StatusTodo}
	completed := &tasks.Task{ID: "task_1_a", Status: tasks.StatusCompleted}

	hasDone := func(rows [][]Button) bool {
		for _, row := range rows {
			for _, b := range row {
				if b.Payload == EncodeAction(VerbDone, "task_1_a") {
					return true
				}
			}
		}
		return false
	}

	assert.True(t, hasDone(TaskCardButtons(open)))
	assert.False(t, hasDone(TaskCardButtons(completed)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	long := truncate("0123456789", 5)
	assert.Equal(t, "0123…", long)
}
