package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/errors"
)

const envelopeColumns = `id, name, name_norm, category, keywords_json, created_at, updated_at`

// InsertEnvelope stores a new envelope.
func InsertEnvelope(q Querier, e *card.Envelope) error {
	keywordsJSON, err := marshalStrings(e.Keywords)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO envelopes (` + envelopeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.Exec(query,
		e.ID, e.Name, e.NameNorm, string(e.Category), keywordsJSON,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errors.NewInvalidRequest("envelope name already exists: " + e.Name)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetEnvelope retrieves an envelope by its ULID.
func GetEnvelope(q Querier, id string) (*card.Envelope, error) {
	row := q.QueryRow(`SELECT `+envelopeColumns+` FROM envelopes WHERE id = ?`, id)
	e, err := scanEnvelope(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("envelope", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// GetEnvelopeByName retrieves an envelope by normalized name.
func GetEnvelopeByName(q Querier, nameNorm string) (*card.Envelope, error) {
	row := q.QueryRow(`SELECT `+envelopeColumns+` FROM envelopes WHERE name_norm = ?`, nameNorm)
	e, err := scanEnvelope(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("envelope", nameNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// ListEnvelopes returns all envelopes, ordered by creation time ascending.
func ListEnvelopes(q Querier) ([]card.Envelope, error) {
	rows, err := q.Query(`SELECT ` + envelopeColumns + ` FROM envelopes ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var envelopes []card.Envelope
	for rows.Next() {
		e, err := scanEnvelopeFrom(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		envelopes = append(envelopes, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return envelopes, nil
}

// SearchEnvelopes performs a case-insensitive substring match over
// envelope names and keywords, ordered by creation time ascending.
func SearchEnvelopes(q Querier, text string) ([]card.Envelope, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewInvalidRequest("search query is required")
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	query := `
		SELECT ` + envelopeColumns + ` FROM envelopes
		WHERE lower(name) LIKE ? ESCAPE '\'
		   OR lower(coalesce(keywords_json, '')) LIKE ? ESCAPE '\'
		ORDER BY created_at ASC, id ASC
	`
	rows, err := q.Query(query, pattern, pattern)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var envelopes []card.Envelope
	for rows.Next() {
		e, err := scanEnvelopeFrom(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		envelopes = append(envelopes, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return envelopes, nil
}

// UpdateEnvelopeKeywords replaces the envelope's keyword set and bumps
// updated_at. Called whenever a card attaches.
func UpdateEnvelopeKeywords(q Querier, id string, keywords []string, now time.Time) error {
	keywordsJSON, err := marshalStrings(keywords)
	if err != nil {
		return err
	}
	result, err := q.Exec(
		`UPDATE envelopes SET keywords_json = ?, updated_at = ? WHERE id = ?`,
		keywordsJSON, now.Unix(), id,
	)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return requireRow(result, "envelope", id)
}

// TouchEnvelope bumps updated_at, recording an attach/detach.
func TouchEnvelope(q Querier, id string, now time.Time) error {
	result, err := q.Exec(`UPDATE envelopes SET updated_at = ? WHERE id = ?`, now.Unix(), id)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return requireRow(result, "envelope", id)
}

func scanEnvelope(row *sql.Row) (*card.Envelope, error) { return scanEnvelopeFrom(row) }

func scanEnvelopeFrom(s rowScanner) (*card.Envelope, error) {
	var (
		e            card.Envelope
		category     string
		keywordsJSON sql.NullString
	)

	err := s.Scan(&e.ID, &e.Name, &e.NameNorm, &category, &keywordsJSON, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.Category = card.Category(category)
	e.Keywords, err = unmarshalStrings(keywordsJSON)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
