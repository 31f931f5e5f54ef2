package flows

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/taskbot/tasks"
)

// Reply-keyboard labels. They double as command aliases so pressing a menu
// button behaves exactly like typing the command.
const (
	LabelMyTasks   = "📋 My tasks"
	LabelNewTask   = "➕ New task"
	LabelDeadlines = "⏰ Deadlines"
	LabelSearch    = "🔍 Search"
	LabelEdit      = "✏️ Edit"
	LabelHelp      = "❓ Help"
)

// MainMenuRows lays out the persistent reply keyboard.
func MainMenuRows() [][]string {
	return [][]string{
		{LabelMyTasks, LabelNewTask},
		{LabelDeadlines, LabelSearch},
		{LabelEdit, LabelHelp},
	}
}

func statusEmoji(s tasks.Status) string {
	switch s {
	case tasks.StatusCompleted:
		return "✅"
	case tasks.StatusInProgress:
		return "🔄"
	case tasks.StatusCancelled:
		return "🚫"
	default:
		return "📌"
	}
}

func priorityEmoji(p tasks.Priority) string {
	switch p {
	case tasks.PriorityUrgent:
		return "🔴"
	case tasks.PriorityHigh:
		return "🟠"
	case tasks.PriorityLow:
		return "🟢"
	default:
		return "🟡"
	}
}

func formatTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// RenderTaskCard renders the full card shown per task in /tasks.
func RenderTaskCard(t *tasks.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n", statusEmoji(t.Status), t.Title)
	fmt.Fprintf(&b, "%s %s", priorityEmoji(t.Priority), t.Priority)
	if t.Deadline != nil {
		b.WriteString("\n⏰ ")
		b.WriteString(formatTime(*t.Deadline))
		if t.IsOverdue(now) {
			b.WriteString(" ⚠️ overdue")
		}
	}
	if t.Description != "" {
		b.WriteString("\n📝 ")
		b.WriteString(truncate(t.Description, 100))
	}
	if len(t.Tags) > 0 {
		b.WriteString("\n🏷 ")
		b.WriteString(strings.Join(t.Tags, ", "))
	}
	return b.String()
}

func renderTaskLine(t *tasks.Task, now time.Time) string {
	line := fmt.Sprintf("%s %s %s", statusEmoji(t.Status), priorityEmoji(t.Priority), t.Title)
	if t.Deadline != nil {
		line += " — " + formatTime(*t.Deadline)
		if t.IsOverdue(now) {
			line += " ⚠️"
		}
	}
	return line
}

func renderSearchResults(term string, found []*tasks.Task, now time.Time) string {
	if len(found) == 0 {
		return fmt.Sprintf("Nothing found for '%s'.", term)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d task(s) for '%s':\n", len(found), term)
	for _, t := range found {
		b.WriteString("\n")
		b.WriteString(renderTaskLine(t, now))
	}
	return b.String()
}

// RenderDeadlines renders the upcoming-deadlines digest with relative
// phrasing.
func RenderDeadlines(list []*tasks.Task, days int, now time.Time) string {
	if len(list) == 0 {
		return fmt.Sprintf("No deadlines in the next %d day(s). 🎉", days)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Deadlines in the next %d day(s):\n", days)
	for _, t := range list {
		fmt.Fprintf(&b, "\n%s %s — %s (%s)",
			priorityEmoji(t.Priority), t.Title, formatTime(*t.Deadline), relativeDay(*t.Deadline, now))
	}
	return b.String()
}

// relativeDay phrases a deadline relative to now: today, tomorrow or
// "in N days".
func relativeDay(deadline, now time.Time) string {
	midnight := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	days := int(midnight(deadline).Sub(midnight(now)).Hours() / 24)
	switch {
	case days < 0:
		return "overdue"
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// TaskCardButtons is the action row set attached to each task card.
func TaskCardButtons(t *tasks.Task) [][]Button {
	rows := [][]Button{
		{
			{Text: "⏰ Deadline", Payload: EncodeAction(VerbSetDeadline, t.ID)},
			{Text: "🏷 Tags", Payload: EncodeAction(VerbAddTags, t.ID)},
		},
		{
			{Text: "📝 Description", Payload: EncodeAction(VerbAddDescription, t.ID)},
			{Text: "🎯 Priority", Payload: EncodeAction(VerbSetPriority, t.ID)},
		},
	}
	bottom := []Button{
		{Text: "✏️ Edit", Payload: EncodeAction(VerbEditSelect, t.ID)},
		{Text: "🗑 Delete", Payload: EncodeAction(VerbDelete, t.ID)},
	}
	if t.Status != tasks.StatusCompleted {
		bottom = append([]Button{{Text: "✅ Done", Payload: EncodeAction(VerbDone, t.ID)}}, bottom...)
	}
	return append(rows, bottom)
}

func newTaskButtons(id string) [][]Button {
	return [][]Button{
		{
			{Text: "⏰ Deadline", Payload: EncodeAction(VerbSetDeadline, id)},
			{Text: "🎯 Priority", Payload: EncodeAction(VerbSetPriority, id)},
		},
		{
			{Text: "🏷 Tags", Payload: EncodeAction(VerbAddTags, id)},
			{Text: "📝 Description", Payload: EncodeAction(VerbAddDescription, id)},
		},
	}
}

func priorityButtons(id string) [][]Button {
	return [][]Button{
		{
			{Text: "🔴 Urgent", Payload: EncodeAction(VerbPriority, string(tasks.PriorityUrgent), id)},
			{Text: "🟠 High", Payload: EncodeAction(VerbPriority, string(tasks.PriorityHigh), id)},
		},
		{
			{Text: "🟡 Medium", Payload: EncodeAction(VerbPriority, string(tasks.PriorityMedium), id)},
			{Text: "🟢 Low", Payload: EncodeAction(VerbPriority, string(tasks.PriorityLow), id)},
		},
	}
}

func confirmDeleteButtons(id string) [][]Button {
	return [][]Button{{
		{Text: "🗑 Yes, delete", Payload: EncodeAction(VerbConfirmDelete, id)},
		{Text: "↩️ Cancel", Payload: EncodeAction(VerbCancelDelete, id)},
	}}
}

func editOptionButtons(id string) [][]Button {
	return [][]Button{
		{
			{Text: "📝 Title", Payload: EncodeAction(VerbEditTitle, id)},
			{Text: "⏰ Deadline", Payload: EncodeAction(VerbEditDeadline, id)},
		},
		{
			{Text: "🏷 Tags", Payload: EncodeAction(VerbEditTags, id)},
			{Text: "📄 Description", Payload: EncodeAction(VerbEditDesc, id)},
		},
		{
			{Text: "🎯 Priority", Payload: EncodeAction(VerbEditPriority, id)},
			{Text: "↩️ Cancel", Payload: EncodeAction(VerbEditCancel, id)},
		},
	}
}

// EditPickerButtons lists the user's tasks, one per row, each opening the
// edit-option menu.
func EditPickerButtons(list []*tasks.Task) [][]Button {
	rows := make([][]Button, 0, len(list))
	for _, t := range list {
		rows = append(rows, []Button{{
			Text:    truncate(t.Title, 40),
			Payload: EncodeAction(VerbEditSelect, t.ID),
		}})
	}
	return rows
}

func deadlineFormatHint() string {
	return strings.Join([]string{
		"I could not read that deadline. Try one of:",
		"• 25.12.2026 18:00",
		"• today 18:00",
		"• tomorrow 09:30",
		"• 3 days",
		"• 2 weeks",
	}, "\n")
}

func followUpPrompt(kind Kind, t *tasks.Task) string {
	switch kind {
	case KindSetDeadline:
		return fmt.Sprintf("When is '%s' due?\n\n%s", t.Title, deadlineExamples())
	case KindEditDeadline:
		current := "not set"
		if t.Deadline != nil {
			current = formatTime(*t.Deadline)
		}
		return fmt.Sprintf("Current deadline of '%s': %s\n\nSend a new one.\n%s", t.Title, current, deadlineExamples())
	case KindAddTags:
		return fmt.Sprintf("Send tags for '%s', separated by commas or spaces.", t.Title)
	case KindEditTags:
		current := "none"
		if len(t.Tags) > 0 {
			current = strings.Join(t.Tags, ", ")
		}
		return fmt.Sprintf("Current tags of '%s': %s\n\nSend the new tags; they replace the old ones.", t.Title, current)
	case KindAddDescription:
		return fmt.Sprintf("Send a description for '%s'.", t.Title)
	case KindEditDescription:
		if t.Description != "" {
			return fmt.Sprintf("Current description of '%s':\n%s\n\nSend the new description.", t.Title, truncate(t.Description, 200))
		}
		return fmt.Sprintf("Send a description for '%s'.", t.Title)
	case KindEditTitle:
		return fmt.Sprintf("Current title: '%s'\n\nSend the new title (max %d characters).", t.Title, tasks.MaxTitleLen)
	}
	return "Send your input."
}

func deadlineExamples() string {
	return strings.Join([]string{
		"Formats:",
		"• 25.12.2026 18:00",
		"• today 18:00",
		"• tomorrow 09:30",
		"• 3 days",
		"• 2 weeks",
	}, "\n")
}
