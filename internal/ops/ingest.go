package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/config"
	"github.com/attachehq/attache/internal/db"
	"github.com/attachehq/attache/internal/errors"
	"github.com/attachehq/attache/internal/extract"
)

// hintLimit caps how many context entries are passed to extraction.
const hintLimit = 10

// IngestInput contains parameters for the Ingest operation.
type IngestInput struct {
	Text string // required: the raw note
	Now  time.Time
}

// IngestOutput contains the result of the Ingest operation.
type IngestOutput struct {
	Card            *card.Card     `json:"card"`
	Envelope        *card.Envelope `json:"envelope,omitempty"`
	EnvelopeCreated bool           `json:"envelope_created,omitempty"`
}

// Ingest turns a raw note into a card: extraction, envelope matching,
// and context refinement. The card insert, envelope attach, and context
// update commit in one transaction; if any part fails, nothing is
// persisted.
func Ingest(ctx context.Context, database *sql.DB, cfg *config.Config, svc extract.Service, input IngestInput) (*IngestOutput, error) {
	if card.Normalize(input.Text) == "" {
		return nil, errors.NewInvalidRequest("note text is required")
	}
	now := nowOrDefault(input.Now)

	uc, err := db.GetUserContext(database)
	if err != nil {
		return nil, err
	}
	hints := extract.Hints{
		Projects: card.Top(uc.ActiveProjects, hintLimit),
		People:   card.Top(uc.KeyPeople, hintLimit),
		Themes:   card.Top(uc.Themes, hintLimit),
	}

	extractCtx, cancel := context.WithTimeout(ctx, cfg.ExtractionTimeout())
	defer cancel()
	result, err := svc.Extract(extractCtx, input.Text, hints, now)
	if err != nil {
		if _, ok := err.(*errors.AttacheError); ok {
			return nil, err
		}
		return nil, errors.NewExtractionUnavailable(err)
	}
	result = extract.Finalize(result, input.Text, now)

	if err := validateResult(result); err != nil {
		return nil, err
	}

	c := &card.Card{
		ID:          generateULID(now),
		Type:        card.Type(result.Type),
		Description: result.Description,
		Priority:    card.Priority(result.Priority),
		Keywords:    result.Keywords,
		Status:      card.StatusActive,
		RawInput:    input.Text,
		CreatedAt:   now.Unix(),
		UpdatedAt:   now.Unix(),
	}
	if result.DueAt != nil {
		due := result.DueAt.Unix()
		c.DueAt = &due
	}
	if result.Assignee != "" {
		assignee := result.Assignee
		c.Assignee = &assignee
	}

	out := &IngestOutput{Card: c}
	err = db.WithTx(database, cfg.WriteRetries, func(tx *sql.Tx) error {
		if err := db.InsertCard(tx, c); err != nil {
			return err
		}

		env, created, err := resolveEnvelope(tx, cfg, result, now)
		if err != nil {
			return err
		}
		if env != nil {
			c.EnvelopeID = &env.ID
			if err := db.SetCardEnvelope(tx, c.ID, &env.ID, now); err != nil {
				return err
			}
			env.Keywords = card.MergeKeywords(env.Keywords, c.Keywords)
			if err := db.UpdateEnvelopeKeywords(tx, env.ID, env.Keywords, now); err != nil {
				return err
			}
		}
		out.Envelope = env
		out.EnvelopeCreated = created

		return refineContext(tx, cfg, c, env, result, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// validateResult re-checks the extraction result after defaulting; a violation here
// means a backend bug, and the request fails without persisting.
func validateResult(r *extract.Result) error {
	if r.Description == "" {
		return errors.NewValidation("extraction produced an empty description")
	}
	if card.ParseType(r.Type) != card.Type(r.Type) {
		return errors.NewValidation("extraction produced an invalid card type: " + r.Type)
	}
	if card.ParsePriority(r.Priority) != card.Priority(r.Priority) {
		return errors.NewValidation("extraction produced an invalid priority: " + r.Priority)
	}
	return nil
}

// resolveEnvelope finds or creates the envelope for an extraction
// result. An exact hint-name match always wins; otherwise the envelope
// sharing the most keywords (at or above the configured threshold) is
// chosen, ties going to the most recently updated. With no match, a new
// envelope is created from the first hint, the lead keyword, or as a
// last resort the opening words of the description.
func resolveEnvelope(tx *sql.Tx, cfg *config.Config, r *extract.Result, now time.Time) (*card.Envelope, bool, error) {
	for _, hint := range r.ContextHints {
		env, err := db.GetEnvelopeByName(tx, card.Normalize(hint))
		if err == nil {
			return env, false, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, false, err
		}
	}

	envelopes, err := db.ListEnvelopes(tx)
	if err != nil {
		return nil, false, err
	}
	var best *card.Envelope
	bestScore := 0
	for i := range envelopes {
		e := &envelopes[i]
		score := e.MatchScore(r.Keywords)
		if score < cfg.EnvelopeMatchThreshold {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && e.UpdatedAt > best.UpdatedAt) {
			best = e
			bestScore = score
		}
	}
	if best != nil {
		return best, false, nil
	}

	name := ""
	category := card.CategoryTheme
	switch {
	case len(r.ContextHints) > 0:
		name = r.ContextHints[0]
		category = card.CategoryProject
	case len(r.Keywords) > 0:
		name = r.Keywords[0]
	default:
		name = leadingWords(r.Description, 3)
	}
	if name == "" {
		return nil, false, nil
	}

	env := &card.Envelope{
		ID:        generateULID(now),
		Name:      name,
		NameNorm:  card.Normalize(name),
		Category:  category,
		Keywords:  card.NormalizeKeywords(r.Keywords),
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}
	if err := db.InsertEnvelope(tx, env); err != nil {
		return nil, false, err
	}
	return env, true, nil
}

// leadingWords takes the first n words of a description for use as an
// envelope name of last resort.
func leadingWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// refineContext decays the user context and bumps the entities this card
// mentions. Additive with decay, never a full overwrite.
func refineContext(tx *sql.Tx, cfg *config.Config, c *card.Card, env *card.Envelope, r *extract.Result, now time.Time) error {
	uc, err := db.GetUserContext(tx)
	if err != nil {
		return err
	}
	uc.Decay(now, cfg.ContextDecayPerDay, cfg.ContextMinScore)

	for _, hint := range r.ContextHints {
		card.Bump(uc.ActiveProjects, hint)
	}
	if env != nil && (env.Category == card.CategoryProject || env.Category == card.CategoryCompany) {
		card.Bump(uc.ActiveProjects, env.Name)
	}
	if c.Assignee != nil {
		card.Bump(uc.KeyPeople, *c.Assignee)
	}
	for _, kw := range c.Keywords {
		card.Bump(uc.Themes, kw)
	}

	uc.Trim(cfg.ContextMaxEntries)
	uc.UpdatedAt = now.Unix()
	return db.SaveUserContext(tx, uc)
}
