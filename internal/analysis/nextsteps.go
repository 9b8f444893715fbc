package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/attachehq/attache/internal/card"
)

// dueSoonWindow is how far ahead the due-soon check looks.
const dueSoonWindow = 48 * time.Hour

// NextSteps surfaces imminent work, and proposes a follow-up whenever a
// card completed since the last run leaves related active work behind in
// its envelope. Cards already past due belong to the Conflicts strategy.
func NextSteps(s Snapshot) []card.Suggestion {
	var out []card.Suggestion

	for _, c := range s.Cards {
		if c.Status != card.StatusActive {
			continue
		}
		due, ok := dueTime(c)
		if !ok || due.Before(s.Now) {
			continue
		}
		if due.Sub(s.Now) <= dueSoonWindow {
			out = append(out, card.Suggestion{
				Kind:    card.KindNextStep,
				Message: fmt.Sprintf("%q is due %s", truncate(c.Description, 60), due.Format("Jan 2 15:04")),
				CardIDs: []string{c.ID},
			})
		}
	}

	out = append(out, followUps(s)...)
	return out
}

// followUps pairs each card completed since the last run with the most
// pressing remaining active card in the same envelope that shares at
// least one keyword with it. An envelope with no related open work
// produces no suggestion.
func followUps(s Snapshot) []card.Suggestion {
	members := membersByEnvelope(s)
	envelopes := envelopeByID(s)

	var out []card.Suggestion
	for _, c := range s.Cards {
		if c.Status != card.StatusCompleted || c.EnvelopeID == nil {
			continue
		}
		if !s.LastRunAt.IsZero() && c.UpdatedAt <= s.LastRunAt.Unix() {
			continue
		}
		var related []card.Card
		for _, cand := range activeOnly(members[*c.EnvelopeID]) {
			if len(card.SharedKeywords(c.Keywords, cand.Keywords)) > 0 {
				related = append(related, cand)
			}
		}
		if len(related) == 0 {
			continue
		}
		next := pickNext(related)
		env, ok := envelopes[*c.EnvelopeID]
		if !ok {
			continue
		}
		out = append(out, card.Suggestion{
			Kind: card.KindNextStep,
			Message: fmt.Sprintf("You completed %q; next in %s: %q",
				truncate(c.Description, 60), env.Name, truncate(next.Description, 60)),
			CardIDs:     []string{c.ID, next.ID},
			EnvelopeIDs: []string{env.ID},
		})
	}
	return out
}

// pickNext chooses the most pressing card: earliest due first, then
// priority, then age.
func pickNext(cards []card.Card) card.Card {
	sorted := make([]card.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		di, iOK := dueTime(sorted[i])
		dj, jOK := dueTime(sorted[j])
		if iOK != jOK {
			return iOK
		}
		if iOK && !di.Equal(dj) {
			return di.Before(dj)
		}
		if sorted[i].Priority.Rank() != sorted[j].Priority.Rank() {
			return sorted[i].Priority.Rank() < sorted[j].Priority.Rank()
		}
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})
	return sorted[0]
}
