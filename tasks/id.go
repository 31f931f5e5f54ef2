package tasks

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewID returns a task identifier of the form task_<unix>_<hex8>.
// The timestamp keeps ids roughly sortable; the random suffix avoids
// collisions between tasks created within the same second.
func NewID(now time.Time) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// the nanosecond clock rather than panic in a handler.
		return fmt.Sprintf("task_%d_%08x", now.Unix(), now.Nanosecond())
	}
	return fmt.Sprintf("task_%d_%s", now.Unix(), hex.EncodeToString(buf))
}
