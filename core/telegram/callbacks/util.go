package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// RawPayload returns the callback payload exactly as carried on the button.
// Buttons built through telebot uniques arrive as "\f<unique>|<payload>";
// buttons built with raw data (the task action buttons) arrive verbatim.
func RawPayload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	raw := strings.TrimPrefix(cb.Data, "\\f")
	if cb.Unique != "" {
		if i := strings.Index(raw, "|"); i >= 0 {
			return raw[i+1:]
		}
		return ""
	}
	return raw
}

// RoutingKey extracts the key used to look up a callback handler.
// For unique-based buttons this is the telebot unique; for raw action
// payloads it is the leading verb token (everything before the first "_").
func RoutingKey(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	raw := strings.TrimPrefix(cb.Data, "\\f")
	if i := strings.Index(raw, "_"); i >= 0 {
		return raw[:i]
	}
	return strings.TrimSpace(raw)
}
