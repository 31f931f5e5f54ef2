package flows

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingSetTake(t *testing.T) {
	p := NewPending()

	_, ok := p.Take(1)
	assert.False(t, ok, "empty slot must not yield an action")

	p.Set(1, KindSetDeadline, "task_1_a")
	assert.True(t, p.InProgress(1))
	assert.False(t, p.InProgress(2))

	pa, ok := p.Take(1)
	require.True(t, ok)
	assert.Equal(t, KindSetDeadline, pa.Kind)
	assert.Equal(t, "task_1_a", pa.TaskID)

	// Take clears the slot.
	_, ok = p.Take(1)
	assert.False(t, ok)
	assert.False(t, p.InProgress(1))
}

func TestPendingOverwrite(t *testing.T) {
	p := NewPending()
	p.Set(7, KindSetDeadline, "task_a")
	p.Set(7, KindAddTags, "task_b")

	pa, ok := p.Take(7)
	require.True(t, ok)
	assert.Equal(t, KindAddTags, pa.Kind)
	assert.Equal(t, "task_b", pa.TaskID)
}

func TestPendingPerUserIsolation(t *testing.T) {
	p := NewPending()
	p.Set(1, KindSearchTerm, "")
	p.Set(2, KindEditTitle, "task_x")

	pa1, ok := p.Take(1)
	require.True(t, ok)
	assert.Equal(t, KindSearchTerm, pa1.Kind)

	pa2, ok := p.Take(2)
	require.True(t, ok)
	assert.Equal(t, KindEditTitle, pa2.Kind)
}

func TestPendingClear(t *testing.T) {
	p := NewPending()
	p.Set(3, KindAddDescription, "task_c")
	p.Clear(3)
	assert.False(t, p.InProgress(3))
}

func TestPendingConcurrentTakeIsExclusive(t *testing.T) {
	p := NewPending()
	p.Set(9, KindEditTags, "task_z")

	const goroutines = 16
	var wg sync.WaitGroup
	won := make(chan PendingAction, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if pa, ok := p.Take(9); ok {
				won <- pa
			}
		}()
	}
	wg.Wait()
	close(won)

	var winners int
	for range won {
		winners++
	}
	assert.Equal(t, 1, winners, "exactly one taker must win the slot")
}
