package card

import (
	"math"
	"sort"
	"time"
)

// UserContext is the singleton aggregate of currently salient entities.
// Each map goes from entity name (normalized) to a relevance score that
// decays over time and is incremented on mention.
type UserContext struct {
	ActiveProjects map[string]float64 `json:"active_projects"`
	KeyPeople      map[string]float64 `json:"key_people"`
	Themes         map[string]float64 `json:"themes"`

	// UpdatedAt is the Unix timestamp of the last refinement; decay is
	// computed lazily from the elapsed time since then.
	UpdatedAt int64 `json:"updated_at"`
}

// NewUserContext returns an empty context.
func NewUserContext() *UserContext {
	return &UserContext{
		ActiveProjects: make(map[string]float64),
		KeyPeople:      make(map[string]float64),
		Themes:         make(map[string]float64),
	}
}

// Decay multiplies every score by decayPerDay^elapsedDays and drops
// entries that fall below minScore. Updates are monotonic additions with
// decay, never full overwrites.
func (u *UserContext) Decay(now time.Time, decayPerDay, minScore float64) {
	if u.UpdatedAt == 0 {
		return
	}
	days := now.Sub(time.Unix(u.UpdatedAt, 0)).Hours() / 24
	if days <= 0 {
		return
	}
	factor := math.Pow(decayPerDay, days)
	for _, m := range []map[string]float64{u.ActiveProjects, u.KeyPeople, u.Themes} {
		for name, score := range m {
			score *= factor
			if score < minScore {
				delete(m, name)
			} else {
				m[name] = score
			}
		}
	}
}

// Bump increments the score for name in m, creating the entry if absent.
// Scores are capped at 10, matching the original 1-10 importance scale.
func Bump(m map[string]float64, name string) {
	name = Normalize(name)
	if name == "" {
		return
	}
	score := m[name] + 1
	if score > 10 {
		score = 10
	}
	m[name] = score
}

// Trim keeps at most maxEntries entries across all three maps, dropping
// the lowest-scored first.
func (u *UserContext) Trim(maxEntries int) {
	if maxEntries <= 0 {
		return
	}
	type entry struct {
		m     map[string]float64
		name  string
		score float64
	}
	var all []entry
	for _, m := range []map[string]float64{u.ActiveProjects, u.KeyPeople, u.Themes} {
		for name, score := range m {
			all = append(all, entry{m, name, score})
		}
	}
	if len(all) <= maxEntries {
		return
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].name < all[j].name
	})
	for _, e := range all[maxEntries:] {
		delete(e.m, e.name)
	}
}

// Top returns up to n entry names from m, highest score first. Ties
// break alphabetically so the order is deterministic.
func Top(m map[string]float64, n int) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})
	if n > 0 && len(names) > n {
		names = names[:n]
	}
	return names
}
