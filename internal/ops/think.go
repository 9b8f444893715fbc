package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/attachehq/attache/internal/analysis"
	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/db"
)

// ThinkInput contains parameters for the Think operation.
type ThinkInput struct {
	Now time.Time
}

// ThinkOutput contains the result of the Think operation.
type ThinkOutput struct {
	Suggestions []card.Suggestion `json:"suggestions"`
	Count       int               `json:"count"`
}

// Think runs the analysis engine over a snapshot of the store and
// persists the resulting suggestions as pending. Archived cards are
// excluded from the snapshot; completed ones stay in so follow-up and
// completion-rate strategies can see them.
func Think(ctx context.Context, database *sql.DB, cfg *config.Config, input ThinkInput) (*ThinkOutput, error) {
	now := nowOrDefault(input.Now)

	snapshot, err := loadSnapshot(database, now)
	if err != nil {
		return nil, err
	}

	suggestions := analysis.Run(snapshot, analysis.Params{
		ConflictWindow:      cfg.ConflictWindow(),
		CompletionRateAlert: cfg.CompletionRateAlertThreshold,
		UrgentCountAlert:    cfg.UrgentCountAlertThreshold,
	})

	err = db.WithTx(database, cfg.WriteRetries, func(tx *sql.Tx) error {
		for i := range suggestions {
			suggestions[i].ID = generateULID(now)
			suggestions[i].Status = card.SuggestionPending
			suggestions[i].CreatedAt = now.Unix()
			if err := db.InsertSuggestion(tx, &suggestions[i]); err != nil {
				return err
			}
		}
		return db.RecordAnalysisRun(tx, now)
	})
	if err != nil {
		return nil, err
	}
	return &ThinkOutput{Suggestions: suggestions, Count: len(suggestions)}, nil
}

// loadSnapshot reads everything a run needs in one place.
func loadSnapshot(database *sql.DB, now time.Time) (analysis.Snapshot, error) {
	var s analysis.Snapshot
	s.Now = now

	cards, err := db.ListCards(database, db.CardFilter{})
	if err != nil {
		return s, err
	}
	for _, c := range cards {
		if c.Status != card.StatusArchived {
			s.Cards = append(s.Cards, c)
		}
	}

	s.Envelopes, err = db.ListEnvelopes(database)
	if err != nil {
		return s, err
	}

	s.LastRunAt, err = db.LastAnalysisRun(database)
	if err != nil {
		return s, err
	}
	return s, nil
}
