package ops

import (
	"context"
	"database/sql"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/db"
	"github.com/attachehq/attache/internal/errors"
)

// EnvelopeStats summarizes an envelope's membership.
type EnvelopeStats struct {
	Total     int     `json:"total"`
	Active    int     `json:"active"`
	Completed int     `json:"completed"`
	Archived  int     `json:"archived"`
	Rate      float64 `json:"completion_rate"`
}

// FetchEnvelopeInput contains parameters for the FetchEnvelope operation.
type FetchEnvelopeInput struct {
	ID   string // one of ID or Name is required
	Name string
}

// FetchEnvelopeOutput contains the result of the FetchEnvelope operation.
type FetchEnvelopeOutput struct {
	Envelope *card.Envelope `json:"envelope"`
	Cards    []card.Card    `json:"cards"`
	Stats    EnvelopeStats  `json:"stats"`
}

// FetchEnvelope retrieves an envelope with its member cards, resolved
// through the weak back-references on the cards table.
func FetchEnvelope(ctx context.Context, database *sql.DB, input FetchEnvelopeInput) (*FetchEnvelopeOutput, error) {
	var env *card.Envelope
	var err error
	switch {
	case input.ID != "":
		env, err = db.GetEnvelope(database, input.ID)
	case input.Name != "":
		env, err = db.GetEnvelopeByName(database, card.Normalize(input.Name))
	default:
		return nil, errors.NewInvalidRequest("envelope id or name is required")
	}
	if err != nil {
		return nil, err
	}

	cards, err := db.ListCards(database, db.CardFilter{EnvelopeID: env.ID})
	if err != nil {
		return nil, err
	}
	return &FetchEnvelopeOutput{
		Envelope: env,
		Cards:    cards,
		Stats:    statsFor(cards),
	}, nil
}

// ListEnvelopesOutput contains the result of the ListEnvelopes operation.
type ListEnvelopesOutput struct {
	Envelopes []EnvelopeSummary `json:"envelopes"`
	Count     int               `json:"count"`
}

// EnvelopeSummary pairs an envelope with its membership stats.
type EnvelopeSummary struct {
	Envelope card.Envelope `json:"envelope"`
	Stats    EnvelopeStats `json:"stats"`
}

// ListEnvelopes returns all envelopes with membership stats, oldest
// first.
func ListEnvelopes(ctx context.Context, database *sql.DB) (*ListEnvelopesOutput, error) {
	envelopes, err := db.ListEnvelopes(database)
	if err != nil {
		return nil, err
	}

	byEnvelope := make(map[string][]card.Card)
	cards, err := db.ListCards(database, db.CardFilter{})
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if c.EnvelopeID != nil {
			byEnvelope[*c.EnvelopeID] = append(byEnvelope[*c.EnvelopeID], c)
		}
	}

	out := &ListEnvelopesOutput{Count: len(envelopes)}
	for _, env := range envelopes {
		out.Envelopes = append(out.Envelopes, EnvelopeSummary{
			Envelope: env,
			Stats:    statsFor(byEnvelope[env.ID]),
		})
	}
	return out, nil
}

// SearchEnvelopesInput contains parameters for the SearchEnvelopes
// operation.
type SearchEnvelopesInput struct {
	Query string // required
}

// SearchEnvelopesOutput contains the result of the SearchEnvelopes
// operation.
type SearchEnvelopesOutput struct {
	Envelopes []card.Envelope `json:"envelopes"`
	Count     int             `json:"count"`
}

// SearchEnvelopes matches the query against envelope names and keywords.
func SearchEnvelopes(ctx context.Context, database *sql.DB, input SearchEnvelopesInput) (*SearchEnvelopesOutput, error) {
	envelopes, err := db.SearchEnvelopes(database, input.Query)
	if err != nil {
		return nil, err
	}
	return &SearchEnvelopesOutput{Envelopes: envelopes, Count: len(envelopes)}, nil
}

func statsFor(cards []card.Card) EnvelopeStats {
	s := EnvelopeStats{Total: len(cards)}
	for _, c := range cards {
		switch c.Status {
		case card.StatusActive:
			s.Active++
		case card.StatusCompleted:
			s.Completed++
		case card.StatusArchived:
			s.Archived++
		}
	}
	if s.Total > 0 {
		s.Rate = float64(s.Completed) / float64(s.Total)
	}
	return s
}
