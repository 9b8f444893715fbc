package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/db"
	"github.com/attachehq/attache/internal/errors"
)

// FetchCardInput contains parameters for the FetchCard operation.
type FetchCardInput struct {
	ID string // required
}

// FetchCardOutput contains the result of the FetchCard operation.
type FetchCardOutput struct {
	Card     *card.Card     `json:"card"`
	Envelope *card.Envelope `json:"envelope,omitempty"`
}

// FetchCard retrieves a card and, when filed, its envelope.
func FetchCard(ctx context.Context, database *sql.DB, input FetchCardInput) (*FetchCardOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("card id is required")
	}
	c, err := db.GetCard(database, input.ID)
	if err != nil {
		return nil, err
	}
	out := &FetchCardOutput{Card: c}
	if c.EnvelopeID != nil {
		env, err := db.GetEnvelope(database, *c.EnvelopeID)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		out.Envelope = env
	}
	return out, nil
}

// ListCardsInput contains parameters for the ListCards operation.
type ListCardsInput struct {
	Status     string // optional: active, completed, archived
	Type       string // optional: task, reminder, idea, note
	EnvelopeID string // optional
	DueBefore  *time.Time
	DueAfter   *time.Time
}

// ListCardsOutput contains the result of the ListCards operation.
type ListCardsOutput struct {
	Cards []card.Card `json:"cards"`
	Count int         `json:"count"`
}

// ListCards returns cards matching the filter, oldest first.
func ListCards(ctx context.Context, database *sql.DB, input ListCardsInput) (*ListCardsOutput, error) {
	filter := db.CardFilter{EnvelopeID: input.EnvelopeID}
	if input.Status != "" {
		if !card.ValidStatus(input.Status) {
			return nil, errors.NewInvalidRequest("status must be one of: active, completed, archived")
		}
		filter.Status = card.Status(input.Status)
	}
	if input.Type != "" {
		if card.ParseType(input.Type) != card.Type(input.Type) {
			return nil, errors.NewInvalidRequest("type must be one of: task, reminder, idea, note")
		}
		filter.Type = card.Type(input.Type)
	}
	if input.DueAfter != nil {
		v := input.DueAfter.Unix()
		filter.DueAfter = &v
	}
	if input.DueBefore != nil {
		v := input.DueBefore.Unix()
		filter.DueBefore = &v
	}

	cards, err := db.ListCards(database, filter)
	if err != nil {
		return nil, err
	}
	return &ListCardsOutput{Cards: cards, Count: len(cards)}, nil
}

// SearchCardsInput contains parameters for the SearchCards operation.
type SearchCardsInput struct {
	Query string // required
}

// SearchCardsOutput contains the result of the SearchCards operation.
type SearchCardsOutput struct {
	Cards []card.Card `json:"cards"`
	Count int         `json:"count"`
}

// SearchCards matches the query against card descriptions and keywords.
func SearchCards(ctx context.Context, database *sql.DB, input SearchCardsInput) (*SearchCardsOutput, error) {
	cards, err := db.SearchCards(database, input.Query)
	if err != nil {
		return nil, err
	}
	return &SearchCardsOutput{Cards: cards, Count: len(cards)}, nil
}

// SetCardStatusInput contains parameters for the SetCardStatus operation.
type SetCardStatusInput struct {
	ID     string // required
	Status string // required: active, completed, archived
	Now    time.Time
}

// SetCardStatusOutput contains the result of the SetCardStatus operation.
type SetCardStatusOutput struct {
	Card *card.Card `json:"card"`
}

// SetCardStatus moves a card through its lifecycle. Archiving is the
// only removal; cards are never hard-deleted.
func SetCardStatus(ctx context.Context, database *sql.DB, cfg *config.Config, input SetCardStatusInput) (*SetCardStatusOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("card id is required")
	}
	if !card.ValidStatus(input.Status) {
		return nil, errors.NewInvalidRequest("status must be one of: active, completed, archived")
	}
	now := nowOrDefault(input.Now)

	err := db.WithTx(database, cfg.WriteRetries, func(tx *sql.Tx) error {
		return db.UpdateCardStatus(tx, input.ID, card.Status(input.Status), now)
	})
	if err != nil {
		return nil, err
	}
	c, err := db.GetCard(database, input.ID)
	if err != nil {
		return nil, err
	}
	return &SetCardStatusOutput{Card: c}, nil
}

// RefileCardInput contains parameters for the RefileCard operation.
type RefileCardInput struct {
	ID         string  // required
	EnvelopeID *string // nil detaches the card
	Now        time.Time
}

// RefileCardOutput contains the result of the RefileCard operation.
type RefileCardOutput struct {
	Card     *card.Card     `json:"card"`
	Envelope *card.Envelope `json:"envelope,omitempty"`
}

// RefileCard moves a card to another envelope, or detaches it when no
// envelope is given. The destination absorbs the card's keywords.
func RefileCard(ctx context.Context, database *sql.DB, cfg *config.Config, input RefileCardInput) (*RefileCardOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("card id is required")
	}
	now := nowOrDefault(input.Now)

	out := &RefileCardOutput{}
	err := db.WithTx(database, cfg.WriteRetries, func(tx *sql.Tx) error {
		c, err := db.GetCard(tx, input.ID)
		if err != nil {
			return err
		}

		if input.EnvelopeID == nil {
			if c.EnvelopeID != nil {
				if err := db.TouchEnvelope(tx, *c.EnvelopeID, now); err != nil {
					return err
				}
			}
			return db.SetCardEnvelope(tx, c.ID, nil, now)
		}

		env, err := db.GetEnvelope(tx, *input.EnvelopeID)
		if err != nil {
			return err
		}
		if err := db.SetCardEnvelope(tx, c.ID, &env.ID, now); err != nil {
			return err
		}
		env.Keywords = card.MergeKeywords(env.Keywords, c.Keywords)
		if err := db.UpdateEnvelopeKeywords(tx, env.ID, env.Keywords, now); err != nil {
			return err
		}
		out.Envelope = env
		return nil
	})
	if err != nil {
		return nil, err
	}

	c, err := db.GetCard(database, input.ID)
	if err != nil {
		return nil, err
	}
	out.Card = c
	return out, nil
}
