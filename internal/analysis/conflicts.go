package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/attachehq/attache/internal/card"
)

// Conflicts flags overdue work and detects active cards due in the same
// window that compete for the same person or belong to the same
// envelope. The window buckets due times, so a 24h window means "due the
// same day".
func Conflicts(s Snapshot, window time.Duration) []card.Suggestion {
	if window <= 0 {
		window = 24 * time.Hour
	}

	var overdue []card.Card
	buckets := make(map[int64][]card.Card)
	for _, c := range s.Cards {
		if c.Status != card.StatusActive {
			continue
		}
		due, ok := dueTime(c)
		if !ok {
			continue
		}
		if due.Before(s.Now) {
			overdue = append(overdue, c)
			continue
		}
		key := due.UTC().Truncate(window).Unix()
		buckets[key] = append(buckets[key], c)
	}

	sort.Slice(overdue, func(i, j int) bool {
		di, _ := dueTime(overdue[i])
		dj, _ := dueTime(overdue[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return overdue[i].ID < overdue[j].ID
	})

	var out []card.Suggestion
	for _, c := range overdue {
		due, _ := dueTime(c)
		out = append(out, card.Suggestion{
			Kind:    card.KindConflict,
			Message: fmt.Sprintf("%q is overdue (was due %s)", truncate(c.Description, 60), due.Format("Jan 2 15:04")),
			CardIDs: []string{c.ID},
		})
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		group := buckets[k]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if reason := conflictReason(group[i], group[j]); reason != "" {
					out = append(out, card.Suggestion{
						Kind: card.KindConflict,
						Message: fmt.Sprintf("%q and %q are both due around the same time (%s)",
							truncate(group[i].Description, 50), truncate(group[j].Description, 50), reason),
						CardIDs: []string{group[i].ID, group[j].ID},
					})
				}
			}
		}
	}
	return out
}

// conflictReason reports why two same-window cards compete, or empty if
// they do not.
func conflictReason(a, b card.Card) string {
	if a.Assignee != nil && b.Assignee != nil && card.Normalize(*a.Assignee) == card.Normalize(*b.Assignee) {
		return "both assigned to " + *a.Assignee
	}
	if a.EnvelopeID != nil && b.EnvelopeID != nil && *a.EnvelopeID == *b.EnvelopeID {
		return "same envelope"
	}
	return ""
}
