package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		verb   string
		taskID string
	}{
		{"plain id", VerbSetDeadline, "abc123"},
		{"id with separators", VerbDone, "task_1756100000_9f3a1c2d"},
		{"single char id", VerbDelete, "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := EncodeAction(tc.verb, tc.taskID)
			action, err := DecodeAction(payload)
			require.NoError(t, err)
			assert.Equal(t, tc.verb, action.Verb)
			assert.Equal(t, tc.taskID, action.TaskID)
			assert.Empty(t, action.Value)
		})
	}
}

func TestDecodePriorityForm(t *testing.T) {
	payload := EncodeAction(VerbPriority, "high", "task_1756100000_9f3a1c2d")
	action, err := DecodeAction(payload)
	require.NoError(t, err)
	assert.Equal(t, VerbPriority, action.Verb)
	assert.Equal(t, "high", action.Value)
	assert.Equal(t, "task_1756100000_9f3a1c2d", action.TaskID)
}

func TestDecodeMalformed(t *testing.T) {
	for _, payload := range []string{"", "delete", "priority", "priority_high", "_abc"} {
		t.Run(payload, func(t *testing.T) {
			_, err := DecodeAction(payload)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestDecodeEmptyIdentity(t *testing.T) {
	// A trailing separator yields an empty identity, which decodes but will
	// never match a stored task.
	action, err := DecodeAction("done_")
	require.NoError(t, err)
	assert.Equal(t, VerbDone, action.Verb)
	assert.Empty(t, action.TaskID)
}
