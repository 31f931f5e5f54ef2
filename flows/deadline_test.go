package flows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeadline(t *testing.T) {
	// Tuesday, 14:30 local.
	now := time.Date(2026, time.August, 25, 14, 30, 45, 123, time.UTC)

	cases := []struct {
		name string
		text string
		want time.Time
	}{
		{
			name: "absolute",
			text: "25.12.2026 18:00",
			want: time.Date(2026, time.December, 25, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "today",
			text: "today 18:00",
			want: time.Date(2026, time.August, 25, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "today single digit hour",
			text: "today 9:05",
			want: time.Date(2026, time.August, 25, 9, 5, 0, 0, time.UTC),
		},
		{
			name: "tomorrow",
			text: "tomorrow 09:30",
			want: time.Date(2026, time.August, 26, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "keyword is case insensitive",
			text: "ToMoRrOw 09:30",
			want: time.Date(2026, time.August, 26, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "relative days keep time of day",
			text: "3 days",
			want: time.Date(2026, time.August, 28, 14, 30, 0, 0, time.UTC),
		},
		{
			name: "singular day",
			text: "1 day",
			want: time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC),
		},
		{
			name: "relative weeks",
			text: "2 weeks",
			want: time.Date(2026, time.September, 8, 14, 30, 0, 0, time.UTC),
		},
		{
			name: "surrounding whitespace",
			text: "  tomorrow 09:30  ",
			want: time.Date(2026, time.August, 26, 9, 30, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDeadline(tc.text, now)
			require.True(t, ok)
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
			assert.Zero(t, got.Second())
			assert.Zero(t, got.Nanosecond())
		})
	}
}

func TestParseDeadlineRejects(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 30, 0, 0, time.UTC)

	for _, text := range []string{
		"",
		"whenever",
		"32.01.2026 10:00",
		"29.02.2026 10:00",
		"25.12.2026 25:00",
		"today 24:00",
		"tomorrow 18:75",
		"three days",
		"days 3",
		"25.12.26 18:00",
	} {
		t.Run(text, func(t *testing.T) {
			_, ok := ParseDeadline(text, now)
			assert.False(t, ok)
		})
	}
}

func TestSplitTags(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"work, urgent home", []string{"work", "urgent", "home"}},
		{"a,,b", []string{"a", "b"}},
		{"   ", nil},
		{"solo", []string{"solo"}},
	}
	for _, tc := range cases {
		got := SplitTags(tc.text)
		if tc.want == nil {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, tc.want, got)
	}
}
