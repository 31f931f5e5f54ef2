package keyboard

import tele "gopkg.in/telebot.v4"

// Btn describes an inline button whose callback payload is sent verbatim,
// without the telebot unique encoding. The payload is the wire contract the
// callback router decodes.
type Btn struct {
	Text    string
	Payload string
}

// ForceReply returns a markup that forces the user to reply.
func ForceReply() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{ForceReply: true}
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a persistent reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// Inline builds an inline keyboard from rows of raw-payload buttons.
func Inline(rows ...[]Btn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Payload}
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineList places each button on its own row.
func InlineList(buttons []Btn) *tele.ReplyMarkup {
	rows := make([][]Btn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []Btn{b})
	}
	return Inline(rows...)
}

// Chunk splits a flat list of buttons into rows with up to n buttons per row.
func Chunk(buttons []Btn, n int) [][]Btn {
	if n <= 1 {
		out := make([][]Btn, 0, len(buttons))
		for _, b := range buttons {
			out = append(out, []Btn{b})
		}
		return out
	}
	var rows [][]Btn
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}
