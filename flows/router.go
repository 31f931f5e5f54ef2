package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/tasks"
	"github.com/m3rciful/taskbot/users"
)

// TaskService is the slice of task use cases the router drives.
type TaskService interface {
	Create(ctx context.Context, owner *users.User, title string) (*tasks.Task, error)
	Get(ctx context.Context, owner *users.User, id string) (*tasks.Task, error)
	Save(ctx context.Context, owner *users.User, t *tasks.Task) error
	Complete(ctx context.Context, owner *users.User, id string) (*tasks.Task, error)
	Delete(ctx context.Context, owner *users.User, id string) error
	List(ctx context.Context, owner *users.User) ([]*tasks.Task, error)
	Search(ctx context.Context, owner *users.User, term string) ([]*tasks.Task, error)
	UpcomingDeadlines(ctx context.Context, owner *users.User, days int) ([]*tasks.Task, error)
}

// UserDirectory resolves and registers bot users.
type UserDirectory interface {
	Resolve(ctx context.Context, telegramID int64) (*users.User, error)
	Register(ctx context.Context, p users.Profile) (*users.User, bool, error)
	SetLanguage(ctx context.Context, u *users.User, lang string) error
}

// Button is a transport-agnostic inline button.
type Button struct {
	Text    string
	Payload string
}

// Response is what a routed interaction asks the transport layer to do.
// A zero Response means "do nothing" (the update was deliberately ignored).
type Response struct {
	Text     string
	Buttons  [][]Button
	MainMenu bool
	Edit     bool
}

// Router is the interaction state machine. It is stateless apart from the
// pending-action slots: every button press and every follow-up message is
// resolved against the slot, the codec and the task service.
type Router struct {
	pending *Pending
	tasks   TaskService
	users   UserDirectory
	now     func() time.Time
}

// NewRouter wires the router. now defaults to time.Now.
func NewRouter(pending *Pending, taskSvc TaskService, dir UserDirectory) *Router {
	return &Router{pending: pending, tasks: taskSvc, users: dir, now: time.Now}
}

// Pending exposes the slot store for transport-level routing decisions.
func (r *Router) Pending() *Pending { return r.pending }

// HandleAction processes a decoded button press from the given sender.
func (r *Router) HandleAction(ctx context.Context, p users.Profile, payload string) (Response, error) {
	action, err := DecodeAction(payload)
	if err != nil {
		logger.LogEvent(ctx, logger.TWire, slog.LevelWarn, "action.malformed",
			slog.String("payload", logger.SanitizeLimit(payload, 128)),
		)
		return Response{Text: "Unknown action.", Edit: true}, nil
	}

	if action.Verb == VerbLang {
		return r.handleLanguage(ctx, p, action.TaskID)
	}

	owner, err := r.users.Resolve(ctx, p.TelegramID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Response{Text: "Please register first with /start."}, nil
		}
		return Response{}, err
	}

	switch action.Verb {
	case VerbDone:
		return r.handleDone(ctx, owner, action.TaskID)
	case VerbDelete:
		return r.handleDeleteAsk(ctx, owner, action.TaskID)
	case VerbConfirmDelete:
		return r.handleDeleteConfirm(ctx, owner, action.TaskID)
	case VerbCancelDelete:
		r.pending.Clear(owner.TelegramID)
		return Response{Text: "Deletion cancelled.", Edit: true}, nil
	case VerbEditCancel:
		r.pending.Clear(owner.TelegramID)
		return Response{Text: "Edit cancelled.", Edit: true}, nil
	case VerbSetPriority, VerbEditPriority:
		return r.handlePriorityAsk(ctx, owner, action.TaskID)
	case VerbPriority:
		return r.handlePrioritySet(ctx, owner, action.Value, action.TaskID)
	case VerbEditSelect:
		return r.handleEditSelect(ctx, owner, action.TaskID)
	case VerbSetDeadline:
		return r.armFollowUp(ctx, owner, KindSetDeadline, action.TaskID)
	case VerbEditDeadline:
		return r.armFollowUp(ctx, owner, KindEditDeadline, action.TaskID)
	case VerbAddTags:
		return r.armFollowUp(ctx, owner, KindAddTags, action.TaskID)
	case VerbEditTags:
		return r.armFollowUp(ctx, owner, KindEditTags, action.TaskID)
	case VerbAddDescription:
		return r.armFollowUp(ctx, owner, KindAddDescription, action.TaskID)
	case VerbEditDesc:
		return r.armFollowUp(ctx, owner, KindEditDescription, action.TaskID)
	case VerbEditTitle:
		return r.armFollowUp(ctx, owner, KindEditTitle, action.TaskID)
	default:
		logger.LogEvent(ctx, logger.TWire, slog.LevelWarn, "action.unknown_verb",
			slog.String("payload", logger.SanitizeLimit(payload, 128)),
		)
		return Response{Text: "Unknown action.", Edit: true}, nil
	}
}

// HandleText consumes the pending action of the sender, if any. The second
// return value reports whether the message was claimed by a flow.
func (r *Router) HandleText(ctx context.Context, p users.Profile, text string) (Response, bool, error) {
	pa, ok := r.pending.Take(p.TelegramID)
	if !ok {
		return Response{}, false, nil
	}

	owner, err := r.users.Resolve(ctx, p.TelegramID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Response{Text: "Please register first with /start."}, true, nil
		}
		return Response{}, true, err
	}

	text = strings.TrimSpace(text)

	switch pa.Kind {
	case KindNewTaskTitle:
		return r.finishCreate(ctx, owner, text)
	case KindSearchTerm:
		return r.finishSearch(ctx, owner, text)
	}

	t, err := r.tasks.Get(ctx, owner, pa.TaskID)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found."}, true, nil
		}
		return Response{}, true, err
	}

	switch pa.Kind {
	case KindSetDeadline, KindEditDeadline:
		return r.finishDeadline(ctx, owner, t, pa, text)
	case KindAddTags, KindEditTags:
		return r.finishTags(ctx, owner, t, pa, text)
	case KindAddDescription, KindEditDescription:
		return r.finishDescription(ctx, owner, t, pa, text)
	case KindEditTitle:
		return r.finishTitle(ctx, owner, t, text)
	}

	logger.LogEvent(ctx, logger.TWire, slog.LevelWarn, "follow_up.unknown_kind",
		slog.String("pending", string(pa.Kind)),
	)
	return Response{}, false, nil
}

func (r *Router) handleLanguage(ctx context.Context, p users.Profile, lang string) (Response, error) {
	owner, _, err := r.users.Register(ctx, p)
	if err != nil {
		return Response{}, err
	}
	if err := r.users.SetLanguage(ctx, owner, lang); err != nil {
		return Response{}, err
	}
	return Response{Text: "Language updated.", Edit: true}, nil
}

func (r *Router) handleDone(ctx context.Context, owner *users.User, id string) (Response, error) {
	t, err := r.tasks.Complete(ctx, owner, id)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found.", Edit: true}, nil
		}
		return Response{}, err
	}
	return Response{Text: fmt.Sprintf("Task completed: %s", t.Title), Edit: true}, nil
}

func (r *Router) handleDeleteAsk(ctx context.Context, owner *users.User, id string) (Response, error) {
	t, err := r.tasks.Get(ctx, owner, id)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found.", Edit: true}, nil
		}
		return Response{}, err
	}
	return Response{
		Text:    fmt.Sprintf("Delete task '%s'? This cannot be undone.", t.Title),
		Buttons: confirmDeleteButtons(t.ID),
		Edit:    true,
	}, nil
}

func (r *Router) handleDeleteConfirm(ctx context.Context, owner *users.User, id string) (Response, error) {
	if err := r.tasks.Delete(ctx, owner, id); err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found.", Edit: true}, nil
		}
		return Response{}, err
	}
	return Response{Text: "Task deleted.", Edit: true}, nil
}

func (r *Router) handlePriorityAsk(ctx context.Context, owner *users.User, id string) (Response, error) {
	t, err := r.tasks.Get(ctx, owner, id)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found.", Edit: true}, nil
		}
		return Response{}, err
	}
	return Response{
		Text:    fmt.Sprintf("Choose a priority for '%s':", t.Title),
		Buttons: priorityButtons(t.ID),
		Edit:    true,
	}, nil
}

func (r *Router) handlePrioritySet(ctx context.Context, owner *users.User, value, id string) (Response, error) {
	t, err := r.tasks.Get(ctx, owner, id)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found.", Edit: true}, nil
		}
		return Response{}, err
	}
	t.Priority = tasks.ParsePriority(value)
	if err := r.tasks.Save(ctx, owner, t); err != nil {
		return Response{}, err
	}
	return Response{
		Text: fmt.Sprintf("Priority of '%s' set to %s %s.", t.Title, priorityEmoji(t.Priority), t.Priority),
		Edit: true,
	}, nil
}

func (r *Router) handleEditSelect(ctx context.Context, owner *users.User, id string) (Response, error) {
	t, err := r.tasks.Get(ctx, owner, id)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found.", Edit: true}, nil
		}
		return Response{}, err
	}
	return Response{
		Text:    fmt.Sprintf("What do you want to edit in '%s'?", t.Title),
		Buttons: editOptionButtons(t.ID),
		Edit:    true,
	}, nil
}

// armFollowUp loads the task, arms the pending slot and prompts for input.
// Arming overwrites any previous pending action for the user.
func (r *Router) armFollowUp(ctx context.Context, owner *users.User, kind Kind, id string) (Response, error) {
	t, err := r.tasks.Get(ctx, owner, id)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found.", Edit: true}, nil
		}
		return Response{}, err
	}
	r.pending.Set(owner.TelegramID, kind, t.ID)
	logger.LogEvent(ctx, logger.TWire, slog.LevelDebug, "follow_up.armed",
		slog.String("pending", string(kind)),
		slog.String("task_id", t.ID),
	)
	return Response{Text: followUpPrompt(kind, t), Edit: true}, nil
}

func (r *Router) finishCreate(ctx context.Context, owner *users.User, title string) (Response, bool, error) {
	t, err := r.tasks.Create(ctx, owner, title)
	if err != nil {
		if errors.Is(err, tasks.ErrInvalid) {
			r.pending.Set(owner.TelegramID, KindNewTaskTitle, "")
			return Response{Text: invalidTitleMessage(err)}, true, nil
		}
		return Response{}, true, err
	}
	return Response{
		Text:    fmt.Sprintf("Task created: %s\n\nYou can refine it right away:", t.Title),
		Buttons: newTaskButtons(t.ID),
	}, true, nil
}

func (r *Router) finishSearch(ctx context.Context, owner *users.User, term string) (Response, bool, error) {
	if term == "" {
		r.pending.Set(owner.TelegramID, KindSearchTerm, "")
		return Response{Text: "Send a keyword to search for."}, true, nil
	}
	found, err := r.tasks.Search(ctx, owner, term)
	if err != nil {
		return Response{}, true, err
	}
	return Response{Text: renderSearchResults(term, found, r.now())}, true, nil
}

func (r *Router) finishDeadline(ctx context.Context, owner *users.User, t *tasks.Task, pa PendingAction, text string) (Response, bool, error) {
	deadline, ok := ParseDeadline(text, r.now())
	if !ok {
		// Stay in the flow: the user can retry without pressing the
		// button again.
		r.pending.Set(owner.TelegramID, pa.Kind, pa.TaskID)
		return Response{Text: deadlineFormatHint()}, true, nil
	}
	previous := t.Deadline
	t.Deadline = &deadline
	if err := r.tasks.Save(ctx, owner, t); err != nil {
		if errors.Is(err, tasks.ErrPastDeadline) {
			r.pending.Set(owner.TelegramID, pa.Kind, pa.TaskID)
			return Response{Text: "That moment is already in the past. Send a future deadline."}, true, nil
		}
		return Response{}, true, err
	}
	if pa.Kind == KindEditDeadline && previous != nil {
		return Response{Text: fmt.Sprintf("Deadline of '%s' changed from %s to %s.",
			t.Title, formatTime(*previous), formatTime(deadline))}, true, nil
	}
	return Response{Text: fmt.Sprintf("Deadline for '%s' set to %s.", t.Title, formatTime(deadline))}, true, nil
}

func (r *Router) finishTags(ctx context.Context, owner *users.User, t *tasks.Task, pa PendingAction, text string) (Response, bool, error) {
	tags := SplitTags(text)
	if len(tags) == 0 {
		r.pending.Set(owner.TelegramID, pa.Kind, pa.TaskID)
		return Response{Text: "No valid tags found. Separate tags with commas or spaces."}, true, nil
	}
	var previous []string
	if pa.Kind == KindEditTags {
		previous = t.Tags
		t.Tags = tags
	} else {
		t.AddTags(tags)
	}
	if err := r.tasks.Save(ctx, owner, t); err != nil {
		return Response{}, true, err
	}
	if pa.Kind == KindEditTags {
		return Response{Text: fmt.Sprintf("Tags of '%s' changed from [%s] to [%s].",
			t.Title, strings.Join(previous, ", "), strings.Join(tags, ", "))}, true, nil
	}
	return Response{Text: fmt.Sprintf("Tags added to '%s': %s", t.Title, strings.Join(tags, ", "))}, true, nil
}

func (r *Router) finishDescription(ctx context.Context, owner *users.User, t *tasks.Task, pa PendingAction, text string) (Response, bool, error) {
	previous := t.Description
	t.Description = text
	if err := r.tasks.Save(ctx, owner, t); err != nil {
		return Response{}, true, err
	}
	if pa.Kind == KindEditDescription && previous != "" {
		return Response{Text: fmt.Sprintf("Description of '%s' updated.\n\nWas: %s\nNow: %s",
			t.Title, truncate(previous, 100), truncate(text, 200))}, true, nil
	}
	return Response{Text: fmt.Sprintf("Description added to '%s'.", t.Title)}, true, nil
}

func (r *Router) finishTitle(ctx context.Context, owner *users.User, t *tasks.Task, text string) (Response, bool, error) {
	previous := t.Title
	t.Title = text
	if err := r.tasks.Save(ctx, owner, t); err != nil {
		if errors.Is(err, tasks.ErrInvalid) {
			t.Title = previous
			r.pending.Set(owner.TelegramID, KindEditTitle, t.ID)
			return Response{Text: invalidTitleMessage(err)}, true, nil
		}
		return Response{}, true, err
	}
	return Response{Text: fmt.Sprintf("Title changed from '%s' to '%s'.", previous, text)}, true, nil
}

func invalidTitleMessage(err error) string {
	if strings.Contains(err.Error(), "longer") {
		return fmt.Sprintf("That title is too long (max %d characters). Try a shorter one.", tasks.MaxTitleLen)
	}
	return "The title cannot be empty. Send the task title."
}
