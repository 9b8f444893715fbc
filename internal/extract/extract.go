// Package extract defines the natural-language extraction contract and
// its backends. The pipeline never depends on a specific provider: any
// backend satisfying Service can classify notes.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/attachehq/attache/internal/card"
)

// Hints carries the current user context into the extraction call so the
// backend can bias toward known projects, people, and themes.
type Hints struct {
	Projects []string `json:"projects,omitempty"`
	People   []string `json:"people,omitempty"`
	Themes   []string `json:"themes,omitempty"`
}

// Result is the structured record a backend returns for one note.
// Fields a backend cannot determine are left zero; Finalize applies the
// contract defaults.
type Result struct {
	// Type is the card classification; empty or unknown defaults to note.
	Type string `json:"card_type"`

	// Description is the cleaned-up note text; empty defaults to the raw note.
	Description string `json:"description"`

	// DueAt is the resolved due time. Backends that only produce a date
	// phrase may set DueText instead and leave DueAt nil.
	DueAt *time.Time `json:"-"`

	// DueText is an unresolved date expression ("next Monday", ISO date).
	DueText string `json:"due_at,omitempty"`

	// Assignee is the extracted person or team, if any.
	Assignee string `json:"assignee,omitempty"`

	// Priority is the urgency classification; empty or unknown defaults
	// to medium.
	Priority string `json:"priority"`

	// Keywords is the ordered keyword list; duplicates are removed by
	// Finalize.
	Keywords []string `json:"keywords"`

	// ContextHints is the ordered list of candidate envelope names.
	ContextHints []string `json:"project_context"`
}

// Service is the extraction boundary. Implementations must honor the
// defaulting contract (note/medium) and resolve relative dates against
// the supplied now, never the wall clock. Backends that cannot produce
// a result return an error the caller maps to EXTRACTION_UNAVAILABLE.
type Service interface {
	Extract(ctx context.Context, text string, hints Hints, now time.Time) (*Result, error)
}

// ForBackend selects a backend by name. "openai" requires an API key;
// without one the rule-based backend is used.
func ForBackend(backend, apiKey, model string, timeout time.Duration) Service {
	if backend == "openai" && apiKey != "" {
		return NewOpenAI(apiKey, model, timeout)
	}
	return NewHeuristic()
}

// Finalize applies the contract defaults to a backend result: closed
// enums collapse to note/medium, keywords are normalized and
// deduplicated, and a textual due date is resolved against now.
func Finalize(r *Result, rawNote string, now time.Time) *Result {
	out := *r

	out.Type = string(card.ParseType(strings.TrimSpace(out.Type)))
	out.Priority = string(card.ParsePriority(strings.TrimSpace(out.Priority)))

	out.Description = strings.TrimSpace(out.Description)
	if out.Description == "" {
		out.Description = strings.TrimSpace(rawNote)
	}

	out.Assignee = strings.TrimSpace(out.Assignee)
	out.Keywords = card.NormalizeKeywords(out.Keywords)

	var hints []string
	seen := make(map[string]bool)
	for _, h := range out.ContextHints {
		h = strings.TrimSpace(h)
		norm := card.Normalize(h)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		hints = append(hints, h)
	}
	out.ContextHints = hints

	if out.DueAt == nil && out.DueText != "" {
		out.DueAt = ResolveDate(out.DueText, now)
	}

	return &out
}
