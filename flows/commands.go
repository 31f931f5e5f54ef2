package flows

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/taskbot/tasks"
	"github.com/m3rciful/taskbot/users"
)

// maxTaskCards bounds how many task cards a single /tasks call sends.
const maxTaskCards = 10

const defaultDeadlineDays = 7

// Start registers the sender (or welcomes them back) and attaches the main
// menu keyboard.
func (r *Router) Start(ctx context.Context, p users.Profile) (Response, error) {
	u, created, err := r.users.Register(ctx, p)
	if err != nil {
		return Response{}, err
	}
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	text := fmt.Sprintf("Welcome back, %s! 👋", name)
	if created {
		text = fmt.Sprintf("Hi %s! 👋 I keep track of your tasks.\n\nUse the menu below or /help to see what I can do.", name)
	}
	return Response{Text: text, MainMenu: true}, nil
}

// Help renders the command overview.
func (r *Router) Help() Response {
	return Response{Text: strings.Join([]string{
		"What I can do:",
		"",
		"/tasks — list your tasks",
		"/add_task [title] — create a task",
		"/deadline [days] — upcoming deadlines (default 7 days)",
		"/search [keyword] — search titles, descriptions and tags",
		"/edit_task <id> — edit a task by id",
		"/edit — pick a task to edit",
		"",
		"Deadlines understand: 25.12.2026 18:00, today 18:00, tomorrow 09:30, 3 days, 2 weeks.",
	}, "\n")}
}

// ListTasks renders the task list as a header plus one card per task, each
// with its action buttons. The list is capped; the trailer says so.
func (r *Router) ListTasks(ctx context.Context, p users.Profile) ([]Response, error) {
	owner, resp, err := r.resolve(ctx, p)
	if owner == nil {
		return []Response{resp}, err
	}
	list, err := r.tasks.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []Response{{Text: "You have no tasks yet. Create one with /add_task."}}, nil
	}

	out := []Response{{Text: fmt.Sprintf("📋 Your tasks (%d):", len(list))}}
	now := r.now()
	shown := list
	if len(shown) > maxTaskCards {
		shown = shown[:maxTaskCards]
	}
	for _, t := range shown {
		out = append(out, Response{
			Text:    RenderTaskCard(t, now),
			Buttons: TaskCardButtons(t),
		})
	}
	if len(list) > maxTaskCards {
		out = append(out, Response{
			Text: fmt.Sprintf("…and %d more. Use /search to narrow the list.", len(list)-maxTaskCards),
		})
	}
	return out, nil
}

// NewTask creates a task from the inline argument, or arms the title
// follow-up when the command comes bare.
func (r *Router) NewTask(ctx context.Context, p users.Profile, arg string) (Response, error) {
	owner, resp, err := r.resolve(ctx, p)
	if owner == nil {
		return resp, err
	}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		r.pending.Set(owner.TelegramID, KindNewTaskTitle, "")
		return Response{Text: "What should the task be called?"}, nil
	}
	t, err := r.tasks.Create(ctx, owner, arg)
	if err != nil {
		if errors.Is(err, tasks.ErrInvalid) {
			return Response{Text: invalidTitleMessage(err)}, nil
		}
		return Response{}, err
	}
	return Response{
		Text:    fmt.Sprintf("Task created: %s\n\nYou can refine it right away:", t.Title),
		Buttons: newTaskButtons(t.ID),
	}, nil
}

// Deadlines renders the upcoming-deadlines digest. The optional argument is
// the horizon in days.
func (r *Router) Deadlines(ctx context.Context, p users.Profile, arg string) (Response, error) {
	owner, resp, err := r.resolve(ctx, p)
	if owner == nil {
		return resp, err
	}
	days := defaultDeadlineDays
	if arg = strings.TrimSpace(arg); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return Response{Text: "Usage: /deadline [days], e.g. /deadline 3"}, nil
		}
		days = n
	}
	list, err := r.tasks.UpcomingDeadlines(ctx, owner, days)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: RenderDeadlines(list, days, r.now())}, nil
}

// StartSearch runs a search for the inline keyword, or arms the keyword
// follow-up when the command comes bare.
func (r *Router) StartSearch(ctx context.Context, p users.Profile, arg string) (Response, error) {
	owner, resp, err := r.resolve(ctx, p)
	if owner == nil {
		return resp, err
	}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		r.pending.Set(owner.TelegramID, KindSearchTerm, "")
		return Response{Text: "What should I search for?"}, nil
	}
	found, err := r.tasks.Search(ctx, owner, arg)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: renderSearchResults(arg, found, r.now())}, nil
}

// EditByID opens the edit-option menu for an explicit task id.
func (r *Router) EditByID(ctx context.Context, p users.Profile, id string) (Response, error) {
	owner, resp, err := r.resolve(ctx, p)
	if owner == nil {
		return resp, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Response{Text: "Usage: /edit_task <id>. Or use /edit to pick from a list."}, nil
	}
	t, err := r.tasks.Get(ctx, owner, id)
	if err != nil {
		if tasks.IsNotFound(err) {
			return Response{Text: "Task not found."}, nil
		}
		return Response{}, err
	}
	return Response{
		Text:    fmt.Sprintf("What do you want to edit in '%s'?", t.Title),
		Buttons: editOptionButtons(t.ID),
	}, nil
}

// EditPicker lists the user's tasks as buttons leading to the edit menu.
func (r *Router) EditPicker(ctx context.Context, p users.Profile) (Response, error) {
	owner, resp, err := r.resolve(ctx, p)
	if owner == nil {
		return resp, err
	}
	list, err := r.tasks.List(ctx, owner)
	if err != nil {
		return Response{}, err
	}
	if len(list) == 0 {
		return Response{Text: "You have no tasks yet. Create one with /add_task."}, nil
	}
	if len(list) > maxTaskCards {
		list = list[:maxTaskCards]
	}
	return Response{
		Text:    "Pick a task to edit:",
		Buttons: EditPickerButtons(list),
	}, nil
}

// resolve maps the sender to a registered user. When the user is unknown,
// the returned Response carries the registration hint and owner is nil.
func (r *Router) resolve(ctx context.Context, p users.Profile) (*users.User, Response, error) {
	owner, err := r.users.Resolve(ctx, p.TelegramID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, Response{Text: "Please register first with /start."}, nil
		}
		return nil, Response{}, err
	}
	return owner, Response{}, nil
}
