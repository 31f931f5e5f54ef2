package flows

import "sync"

// Kind names the follow-up input the bot is waiting for from a user.
type Kind string

const (
	KindNewTaskTitle    Kind = "new_task_title"
	KindSearchTerm      Kind = "search_term"
	KindSetDeadline     Kind = "set_deadline"
	KindAddTags         Kind = "add_tags"
	KindAddDescription  Kind = "add_description"
	KindEditTitle       Kind = "edit_title"
	KindEditDeadline    Kind = "edit_deadline"
	KindEditTags        Kind = "edit_tags"
	KindEditDescription Kind = "edit_description"
)

// NeedsTask reports whether the kind targets an existing task.
func (k Kind) NeedsTask() bool {
	switch k {
	case KindNewTaskTitle, KindSearchTerm:
		return false
	}
	return true
}

// PendingAction is what the next free-text message from a user will be
// interpreted as.
type PendingAction struct {
	Kind   Kind
	TaskID string
}

// Pending holds at most one pending action per user. Setting a new action
// overwrites any previous one; taking an action clears the slot.
type Pending struct {
	mu    sync.Mutex
	slots map[int64]PendingAction
}

// NewPending creates an empty pending-action store.
func NewPending() *Pending {
	return &Pending{slots: make(map[int64]PendingAction)}
}

// Set arms the slot for the user, replacing whatever was there.
func (p *Pending) Set(userID int64, kind Kind, taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[userID] = PendingAction{Kind: kind, TaskID: taskID}
}

// Take returns the pending action for the user and clears the slot in the
// same step, so a slot is consumed exactly once.
func (p *Pending) Take(userID int64) (PendingAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pa, ok := p.slots[userID]
	if ok {
		delete(p.slots, userID)
	}
	return pa, ok
}

// InProgress reports whether the user has a pending action.
func (p *Pending) InProgress(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.slots[userID]
	return ok
}

// Clear drops any pending action for the user.
func (p *Pending) Clear(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.slots, userID)
}
