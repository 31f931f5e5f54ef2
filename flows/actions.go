// Package flows implements the conversational surface of the bot: the
// callback action codec, the per-user pending-action slot, deadline
// expression parsing and the interaction router that ties them together.
package flows

import (
	"errors"
	"strings"
)

// Callback verbs carried as the first token of every inline-button payload.
// Task identifiers may themselves contain separators, so decoding always
// treats everything after the fixed prefix as the identity.
const (
	VerbSetDeadline    = "setdeadline"
	VerbAddTags        = "addtags"
	VerbAddDescription = "adddescription"
	VerbSetPriority    = "setpriority"
	VerbDelete         = "delete"
	VerbConfirmDelete  = "confirmdelete"
	VerbCancelDelete   = "canceldelete"
	VerbDone           = "done"
	VerbEditSelect     = "editselect"
	VerbEditTitle      = "edittitle"
	VerbEditDeadline   = "editdeadline"
	VerbEditTags       = "edittags"
	VerbEditDesc       = "editdesc"
	VerbEditPriority   = "editpriority"
	VerbEditCancel     = "editcancel"
	VerbPriority       = "priority"
	VerbLang           = "lang"
)

const actionSep = "_"

// ErrMalformedPayload is returned when a callback payload cannot be decoded.
var ErrMalformedPayload = errors.New("malformed action payload")

// Action is a decoded callback payload: a verb, an optional fixed sub-value
// (only priority payloads carry one) and the task identity.
type Action struct {
	Verb   string
	Value  string
	TaskID string
}

// EncodeAction joins a verb and its arguments into a wire payload.
func EncodeAction(verb string, args ...string) string {
	if len(args) == 0 {
		return verb
	}
	return verb + actionSep + strings.Join(args, actionSep)
}

// DecodeAction splits a payload back into its action. Priority payloads have
// the three-token form priority_<value>_<id>; everything else is
// verb_<id>. The identity is rejoined greedily so ids containing the
// separator survive the round trip.
func DecodeAction(payload string) (Action, error) {
	parts := strings.Split(payload, actionSep)
	if parts[0] == VerbPriority {
		if len(parts) < 3 {
			return Action{}, ErrMalformedPayload
		}
		return Action{
			Verb:   VerbPriority,
			Value:  parts[1],
			TaskID: strings.Join(parts[2:], actionSep),
		}, nil
	}
	if len(parts) < 2 || parts[0] == "" {
		return Action{}, ErrMalformedPayload
	}
	return Action{
		Verb:   parts[0],
		TaskID: strings.Join(parts[1:], actionSep),
	}, nil
}
