// Package analysis implements the suggestion strategies. Every strategy
// is a pure function of a Snapshot: no clock reads, no database access,
// so the same snapshot always yields the same suggestions in the same
// order.
package analysis

import (
	"time"

	"github.com/attachehq/attache/internal/card"
)

// Snapshot is the immutable input to an analysis run. Cards holds every
// non-archived card, completed ones included; Envelopes holds all
// envelopes. LastRunAt is the zero time if analysis has never run.
type Snapshot struct {
	Cards     []card.Card
	Envelopes []card.Envelope
	LastRunAt time.Time
	Now       time.Time
}

// Params are the tunable thresholds, populated from config.
type Params struct {
	ConflictWindow      time.Duration
	CompletionRateAlert float64
	UrgentCountAlert    int
}

// Run executes all strategies in a fixed order and concatenates their
// suggestions. Returned suggestions carry kind, message, and references
// only; the caller assigns identity and persistence fields.
func Run(s Snapshot, p Params) []card.Suggestion {
	var out []card.Suggestion
	out = append(out, NextSteps(s)...)
	out = append(out, Conflicts(s, p.ConflictWindow)...)
	out = append(out, Reorganizations(s)...)
	out = append(out, Patterns(s, p)...)
	return out
}

// envelopeByID indexes the snapshot's envelopes.
func envelopeByID(s Snapshot) map[string]card.Envelope {
	m := make(map[string]card.Envelope, len(s.Envelopes))
	for _, e := range s.Envelopes {
		m[e.ID] = e
	}
	return m
}

// membersByEnvelope groups the snapshot's cards by envelope ID.
func membersByEnvelope(s Snapshot) map[string][]card.Card {
	m := make(map[string][]card.Card)
	for _, c := range s.Cards {
		if c.EnvelopeID != nil {
			m[*c.EnvelopeID] = append(m[*c.EnvelopeID], c)
		}
	}
	return m
}

func activeOnly(cards []card.Card) []card.Card {
	var out []card.Card
	for _, c := range cards {
		if c.Status == card.StatusActive {
			out = append(out, c)
		}
	}
	return out
}

func dueTime(c card.Card) (time.Time, bool) {
	if c.DueAt == nil {
		return time.Time{}, false
	}
	return time.Unix(*c.DueAt, 0), true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
