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

// ListSuggestionsInput contains parameters for the ListSuggestions
// operation.
type ListSuggestionsInput struct {
	Status string // optional: pending, dismissed, accepted
}

// ListSuggestionsOutput contains the result of the ListSuggestions
// operation.
type ListSuggestionsOutput struct {
	Suggestions []card.Suggestion `json:"suggestions"`
	Count       int               `json:"count"`
}

// ListSuggestions returns suggestions, optionally filtered by status,
// oldest first.
func ListSuggestions(ctx context.Context, database *sql.DB, input ListSuggestionsInput) (*ListSuggestionsOutput, error) {
	var status card.SuggestionStatus
	if input.Status != "" {
		if !card.ValidSuggestionStatus(input.Status) {
			return nil, errors.NewInvalidRequest("status must be one of: pending, dismissed, accepted")
		}
		status = card.SuggestionStatus(input.Status)
	}
	suggestions, err := db.ListSuggestions(database, status)
	if err != nil {
		return nil, err
	}
	return &ListSuggestionsOutput{Suggestions: suggestions, Count: len(suggestions)}, nil
}

// SearchSuggestionsInput contains parameters for the SearchSuggestions
// operation.
type SearchSuggestionsInput struct {
	Query string // required
}

// SearchSuggestionsOutput contains the result of the SearchSuggestions
// operation.
type SearchSuggestionsOutput struct {
	Suggestions []card.Suggestion `json:"suggestions"`
	Count       int               `json:"count"`
}

// SearchSuggestions matches the query against suggestion messages.
func SearchSuggestions(ctx context.Context, database *sql.DB, input SearchSuggestionsInput) (*SearchSuggestionsOutput, error) {
	suggestions, err := db.SearchSuggestions(database, input.Query)
	if err != nil {
		return nil, err
	}
	return &SearchSuggestionsOutput{Suggestions: suggestions, Count: len(suggestions)}, nil
}

// ResolveSuggestionInput contains parameters for the ResolveSuggestion
// operation.
type ResolveSuggestionInput struct {
	ID     string // required
	Accept bool   // true accepts, false dismisses
	Now    time.Time
}

// ResolveSuggestionOutput contains the result of the ResolveSuggestion
// operation.
type ResolveSuggestionOutput struct {
	Suggestion *card.Suggestion `json:"suggestion"`
}

// ResolveSuggestion records the user's verdict on a suggestion.
func ResolveSuggestion(ctx context.Context, database *sql.DB, cfg *config.Config, input ResolveSuggestionInput) (*ResolveSuggestionOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("suggestion id is required")
	}
	status := card.SuggestionDismissed
	if input.Accept {
		status = card.SuggestionAccepted
	}

	err := db.WithTx(database, cfg.WriteRetries, func(tx *sql.Tx) error {
		return db.UpdateSuggestionStatus(tx, input.ID, status)
	})
	if err != nil {
		return nil, err
	}
	s, err := db.GetSuggestion(database, input.ID)
	if err != nil {
		return nil, err
	}
	return &ResolveSuggestionOutput{Suggestion: s}, nil
}
