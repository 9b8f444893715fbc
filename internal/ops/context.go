package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/db"
)

// ContextEntry is one scored context item.
type ContextEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ContextSummaryOutput contains the result of the ContextSummary
// operation.
type ContextSummaryOutput struct {
	ActiveProjects []ContextEntry `json:"active_projects"`
	KeyPeople      []ContextEntry `json:"key_people"`
	Themes         []ContextEntry `json:"themes"`
	UpdatedAt      int64          `json:"updated_at"`
}

// ContextSummary returns the current user context with decay applied as
// of now, highest-scored entries first. The stored record is not
// modified; decay is materialized on the next ingest.
func ContextSummary(ctx context.Context, database *sql.DB, cfg *config.Config, now time.Time) (*ContextSummaryOutput, error) {
	uc, err := db.GetUserContext(database)
	if err != nil {
		return nil, err
	}
	uc.Decay(nowOrDefault(now), cfg.ContextDecayPerDay, cfg.ContextMinScore)

	return &ContextSummaryOutput{
		ActiveProjects: entries(uc.ActiveProjects),
		KeyPeople:      entries(uc.KeyPeople),
		Themes:         entries(uc.Themes),
		UpdatedAt:      uc.UpdatedAt,
	}, nil
}

func entries(m map[string]float64) []ContextEntry {
	var out []ContextEntry
	for _, name := range card.Top(m, 0) {
		out = append(out, ContextEntry{Name: name, Score: m[name]})
	}
	return out
}
