package flows

import (
	"strings"

	tg "github.com/m3rciful/taskbot/core/telegram"
	"github.com/m3rciful/taskbot/core/telegram/callbacks"
	"github.com/m3rciful/taskbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"
	"github.com/m3rciful/taskbot/core/telegram/keyboard"
	"github.com/m3rciful/taskbot/users"

	tele "gopkg.in/telebot.v4"
)

// Handler adapts the Router to telebot: it registers the commands and
// callback verbs and converts Responses into outgoing messages.
type Handler struct {
	router *Router
}

// NewHandler wraps a Router for Telegram.
func NewHandler(router *Router) *Handler {
	return &Handler{router: router}
}

// InProgress reports whether the sender is mid-flow. Satisfies the text
// router's follow-up contract.
func (h *Handler) InProgress(userID int64) bool {
	return h.router.Pending().InProgress(userID)
}

// HandleFollowUp feeds a free-text message into the pending flow.
func (h *Handler) HandleFollowUp(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	resp, claimed, err := h.router.HandleText(ctx, profileFrom(c), c.Text())
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	return h.send(c, resp)
}

// Register wires every command and callback verb into the registry.
func (h *Handler) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Description: "Register and show the main menu",
		Handler:     h.respondWith(h.cmdStart),
	})
	reg.RegisterCommand("/help", commands.Command{
		Description: "Show what the bot can do",
		Aliases:     []string{LabelHelp},
		Handler:     h.respondWith(func(c tele.Context) (Response, error) { return h.router.Help(), nil }),
	})
	reg.RegisterCommand("/tasks", commands.Command{
		Description: "List your tasks",
		Aliases:     []string{LabelMyTasks},
		Handler:     h.cmdTasks,
	})
	reg.RegisterCommand("/add_task", commands.Command{
		Description: "Create a task",
		Aliases:     []string{LabelNewTask},
		Handler: h.respondWith(func(c tele.Context) (Response, error) {
			return h.router.NewTask(tghelpers.BuildContext(c), profileFrom(c), commandArg(c))
		}),
	})
	reg.RegisterCommand("/deadline", commands.Command{
		Description: "Upcoming deadlines",
		Aliases:     []string{LabelDeadlines},
		Handler: h.respondWith(func(c tele.Context) (Response, error) {
			return h.router.Deadlines(tghelpers.BuildContext(c), profileFrom(c), commandArg(c))
		}),
	})
	reg.RegisterCommand("/search", commands.Command{
		Description: "Search your tasks",
		Aliases:     []string{LabelSearch},
		Handler: h.respondWith(func(c tele.Context) (Response, error) {
			return h.router.StartSearch(tghelpers.BuildContext(c), profileFrom(c), commandArg(c))
		}),
	})
	reg.RegisterCommand("/edit_task", commands.Command{
		Description: "Edit a task by id",
		Hidden:      true,
		Handler: h.respondWith(func(c tele.Context) (Response, error) {
			return h.router.EditByID(tghelpers.BuildContext(c), profileFrom(c), commandArg(c))
		}),
	})
	reg.RegisterCommand("/edit", commands.Command{
		Description: "Pick a task to edit",
		Aliases:     []string{LabelEdit},
		Handler: h.respondWith(func(c tele.Context) (Response, error) {
			return h.router.EditPicker(tghelpers.BuildContext(c), profileFrom(c))
		}),
	})

	for _, verb := range []string{
		VerbSetDeadline, VerbAddTags, VerbAddDescription, VerbSetPriority,
		VerbDelete, VerbConfirmDelete, VerbCancelDelete, VerbDone,
		VerbEditSelect, VerbEditTitle, VerbEditDeadline, VerbEditTags,
		VerbEditDesc, VerbEditPriority, VerbEditCancel,
		VerbPriority, VerbLang,
	} {
		_ = reg.RegisterCallback(verb, h.handleCallback)
	}

	reg.SetTextFallback(func(c tele.Context) error {
		return tghelpers.SendText(c, "I did not understand that. Try /help.")
	})
}

func (h *Handler) cmdStart(c tele.Context) (Response, error) {
	return h.router.Start(tghelpers.BuildContext(c), profileFrom(c))
}

func (h *Handler) cmdTasks(c tele.Context) error {
	responses, err := h.router.ListTasks(tghelpers.BuildContext(c), profileFrom(c))
	if err != nil {
		return err
	}
	for _, resp := range responses {
		if err := h.send(c, resp); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) handleCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	resp, err := h.router.HandleAction(ctx, profileFrom(c), callbacks.RawPayload(c))
	if err != nil {
		return err
	}
	return h.send(c, resp)
}

// respondWith lifts a Response-producing function into a telebot handler.
func (h *Handler) respondWith(fn func(c tele.Context) (Response, error)) tele.HandlerFunc {
	return func(c tele.Context) error {
		resp, err := fn(c)
		if err != nil {
			return err
		}
		return h.send(c, resp)
	}
}

func (h *Handler) send(c tele.Context, resp Response) error {
	if resp.Text == "" {
		return nil
	}
	markup := buildMarkup(resp)
	if resp.Edit && c.Callback() != nil {
		if markup != nil {
			return tghelpers.EditOrSendMD(c, resp.Text, markup)
		}
		return tghelpers.EditOrSendMD(c, resp.Text)
	}
	if markup != nil {
		return tghelpers.SendMD(c, resp.Text, markup)
	}
	return tghelpers.SendMD(c, resp.Text)
}

func buildMarkup(resp Response) *tele.ReplyMarkup {
	if resp.MainMenu {
		return keyboard.ReplyButtons(MainMenuRows()...)
	}
	if len(resp.Buttons) == 0 {
		return nil
	}
	rows := make([][]keyboard.Btn, len(resp.Buttons))
	for i, row := range resp.Buttons {
		r := make([]keyboard.Btn, len(row))
		for j, b := range row {
			r[j] = keyboard.Btn{Text: b.Text, Payload: b.Payload}
		}
		rows[i] = r
	}
	return keyboard.Inline(rows...)
}

func profileFrom(c tele.Context) users.Profile {
	u := c.Sender()
	if u == nil {
		return users.Profile{}
	}
	return users.Profile{
		TelegramID: u.ID,
		Username:   u.Username,
		FullName:   strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName)),
		Language:   u.LanguageCode,
	}
}

func commandArg(c tele.Context) string {
	if m := c.Message(); m != nil {
		return strings.TrimSpace(m.Payload)
	}
	return ""
}
