package analysis

import (
	"fmt"
	"sort"

	"github.com/attachehq/attache/internal/card"
)

// minEnvelopeMembers is the smallest envelope the completion-rate check
// considers; tiny envelopes produce meaningless rates.
const minEnvelopeMembers = 3

// Patterns reports workload signals: envelopes where little ever gets
// finished, and an overload of urgent cards.
func Patterns(s Snapshot, p Params) []card.Suggestion {
	var out []card.Suggestion
	out = append(out, stalledEnvelopes(s, p.CompletionRateAlert)...)
	out = append(out, urgentOverload(s, p.UrgentCountAlert)...)
	return out
}

func stalledEnvelopes(s Snapshot, threshold float64) []card.Suggestion {
	if threshold <= 0 {
		return nil
	}
	members := membersByEnvelope(s)
	envelopes := envelopeByID(s)

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []card.Suggestion
	for _, id := range ids {
		cards := members[id]
		if len(cards) < minEnvelopeMembers {
			continue
		}
		completed := 0
		for _, c := range cards {
			if c.Status == card.StatusCompleted {
				completed++
			}
		}
		rate := float64(completed) / float64(len(cards))
		if rate >= threshold {
			continue
		}
		env, ok := envelopes[id]
		if !ok {
			continue
		}
		out = append(out, card.Suggestion{
			Kind: card.KindPattern,
			Message: fmt.Sprintf("Envelope %s is stalling: %d of %d cards completed; consider breaking the work down or archiving it",
				env.Name, completed, len(cards)),
			EnvelopeIDs: []string{env.ID},
		})
	}
	return out
}

func urgentOverload(s Snapshot, threshold int) []card.Suggestion {
	if threshold <= 0 {
		return nil
	}
	var urgent []string
	for _, c := range s.Cards {
		if c.Status == card.StatusActive && c.Priority == card.PriorityUrgent {
			urgent = append(urgent, c.ID)
		}
	}
	if len(urgent) < threshold {
		return nil
	}
	sort.Strings(urgent)
	return []card.Suggestion{{
		Kind: card.KindPattern,
		Message: fmt.Sprintf("You have %d urgent cards active; consider triaging which are truly urgent",
			len(urgent)),
		CardIDs: urgent,
	}}
}
