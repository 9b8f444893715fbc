// Package ops implements the user-facing operations. Every operation is
// a package-level function taking the database, config, and an input
// struct; outputs are plain structs the CLI, MCP, and web layers render.
package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// generateULID returns a new ULID for the given timestamp.
func generateULID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// nowOrDefault lets callers pin the clock; the zero time means wall
// clock. Tests rely on pinning.
func nowOrDefault(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now()
	}
	return now
}

// cleanOptionalString trims and nils out empty optional strings.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
