package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/errors"
)

const suggestionColumns = `id, kind, message, card_ids_json, envelope_ids_json, status, created_at`

// InsertSuggestion stores a suggestion produced by the analysis engine.
func InsertSuggestion(q Querier, s *card.Suggestion) error {
	cardIDsJSON, err := marshalStrings(s.CardIDs)
	if err != nil {
		return err
	}
	envelopeIDsJSON, err := marshalStrings(s.EnvelopeIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO suggestions (` + suggestionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.Exec(query,
		s.ID, string(s.Kind), s.Message, cardIDsJSON, envelopeIDsJSON,
		string(s.Status), s.CreatedAt,
	)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetSuggestion retrieves a suggestion by its ULID.
func GetSuggestion(q Querier, id string) (*card.Suggestion, error) {
	row := q.QueryRow(`SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)
	s, err := scanSuggestionFrom(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("suggestion", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListSuggestions returns suggestions, optionally filtered by status,
// ordered by creation time ascending.
func ListSuggestions(q Querier, status card.SuggestionStatus) ([]card.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var suggestions []card.Suggestion
	for rows.Next() {
		s, err := scanSuggestionFrom(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		suggestions = append(suggestions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return suggestions, nil
}

// SearchSuggestions performs a case-insensitive substring match over
// suggestion messages, ordered by creation time ascending.
func SearchSuggestions(q Querier, text string) ([]card.Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewInvalidRequest("search query is required")
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	query := `
		SELECT ` + suggestionColumns + ` FROM suggestions
		WHERE lower(message) LIKE ? ESCAPE '\'
		ORDER BY created_at ASC, id ASC
	`
	rows, err := q.Query(query, pattern)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var suggestions []card.Suggestion
	for rows.Next() {
		s, err := scanSuggestionFrom(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		suggestions = append(suggestions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return suggestions, nil
}

// UpdateSuggestionStatus records user acknowledgment of a suggestion.
func UpdateSuggestionStatus(q Querier, id string, status card.SuggestionStatus) error {
	result, err := q.Exec(`UPDATE suggestions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return requireRow(result, "suggestion", id)
}

// LastAnalysisRun returns the timestamp of the most recent analysis run,
// or the zero time if analysis has never run.
func LastAnalysisRun(q Querier) (time.Time, error) {
	row := q.QueryRow(`SELECT ran_at FROM analysis_runs ORDER BY id DESC LIMIT 1`)
	var ranAt int64
	err := row.Scan(&ranAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.NewInternal(err)
	}
	return time.Unix(ranAt, 0), nil
}

// RecordAnalysisRun appends a run marker.
func RecordAnalysisRun(q Querier, ranAt time.Time) error {
	_, err := q.Exec(`INSERT INTO analysis_runs (ran_at) VALUES (?)`, ranAt.Unix())
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return nil
}

func scanSuggestionFrom(s rowScanner) (*card.Suggestion, error) {
	var (
		sg              card.Suggestion
		kind            string
		status          string
		cardIDsJSON     sql.NullString
		envelopeIDsJSON sql.NullString
	)

	err := s.Scan(&sg.ID, &kind, &sg.Message, &cardIDsJSON, &envelopeIDsJSON, &status, &sg.CreatedAt)
	if err != nil {
		return nil, err
	}

	sg.Kind = card.Kind(kind)
	sg.Status = card.SuggestionStatus(status)
	sg.CardIDs, err = unmarshalStrings(cardIDsJSON)
	if err != nil {
		return nil, err
	}
	sg.EnvelopeIDs, err = unmarshalStrings(envelopeIDsJSON)
	if err != nil {
		return nil, err
	}
	return &sg, nil
}
