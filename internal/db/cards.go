package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/errors"
)

const cardColumns = `id, card_type, description, due_at, assignee, priority,
	keywords_json, status, envelope_id, raw_input, created_at, updated_at`

// InsertCard stores a new card.
func InsertCard(q Querier, c *card.Card) error {
	keywordsJSON, err := marshalStrings(c.Keywords)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.Exec(query,
		c.ID, string(c.Type), c.Description, toNullInt64(c.DueAt),
		toNullString(c.Assignee), string(c.Priority), keywordsJSON,
		string(c.Status), toNullString(c.EnvelopeID), c.RawInput,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetCard retrieves a card by its ULID.
func GetCard(q Querier, id string) (*card.Card, error) {
	row := q.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("card", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// UpdateCardStatus changes a card's status and bumps updated_at.
func UpdateCardStatus(q Querier, id string, status card.Status, now time.Time) error {
	result, err := q.Exec(
		`UPDATE cards SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now.Unix(), id,
	)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return requireRow(result, "card", id)
}

// SetCardEnvelope attaches a card to an envelope (or detaches when
// envelopeID is nil) and bumps updated_at.
func SetCardEnvelope(q Querier, id string, envelopeID *string, now time.Time) error {
	result, err := q.Exec(
		`UPDATE cards SET envelope_id = ?, updated_at = ? WHERE id = ?`,
		toNullString(envelopeID), now.Unix(), id,
	)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return requireRow(result, "card", id)
}

// CardFilter narrows ListCards. Zero values mean "no constraint".
type CardFilter struct {
	Status     card.Status
	Type       card.Type
	EnvelopeID string
	DueAfter   *int64
	DueBefore  *int64
}

// ListCards returns cards matching the filter, ordered by creation time
// ascending (id breaks ties; ULIDs are monotonic within a millisecond).
func ListCards(q Querier, filter CardFilter) ([]card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards`
	var conds []string
	var args []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		conds = append(conds, "card_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.EnvelopeID != "" {
		conds = append(conds, "envelope_id = ?")
		args = append(args, filter.EnvelopeID)
	}
	if filter.DueAfter != nil {
		conds = append(conds, "due_at >= ?")
		args = append(args, *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_at < ?")
		args = append(args, *filter.DueBefore)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	return queryCards(q, query, args...)
}

// SearchCards performs a case-insensitive substring match over
// description and keywords, ordered by creation time ascending.
func SearchCards(q Querier, text string) ([]card.Card, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewInvalidRequest("search query is required")
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	query := `
		SELECT ` + cardColumns + ` FROM cards
		WHERE lower(description) LIKE ? ESCAPE '\'
		   OR lower(coalesce(keywords_json, '')) LIKE ? ESCAPE '\'
		ORDER BY created_at ASC, id ASC
	`
	return queryCards(q, query, pattern, pattern)
}

// MemberCardIDs resolves the weak envelope→card references through the
// cards table index.
func MemberCardIDs(q Querier, envelopeID string) ([]string, error) {
	rows, err := q.Query(
		`SELECT id FROM cards WHERE envelope_id = ? ORDER BY created_at ASC, id ASC`,
		envelopeID,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}

// queryCards runs a multi-row card query.
func queryCards(q Querier, query string, args ...any) ([]card.Card, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var cards []card.Card
	for rows.Next() {
		c, err := scanCardRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return cards, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row *sql.Row) (*card.Card, error)       { return scanCardFrom(row) }
func scanCardRows(rows *sql.Rows) (*card.Card, error) { return scanCardFrom(rows) }

func scanCardFrom(s rowScanner) (*card.Card, error) {
	var (
		c            card.Card
		cardType     string
		priority     string
		status       string
		dueAt        sql.NullInt64
		assignee     sql.NullString
		keywordsJSON sql.NullString
		envelopeID   sql.NullString
	)

	err := s.Scan(
		&c.ID, &cardType, &c.Description, &dueAt, &assignee, &priority,
		&keywordsJSON, &status, &envelopeID, &c.RawInput,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = card.Type(cardType)
	c.Priority = card.Priority(priority)
	c.Status = card.Status(status)
	c.DueAt = fromNullInt64(dueAt)
	c.Assignee = fromNullString(assignee)
	c.EnvelopeID = fromNullString(envelopeID)

	c.Keywords, err = unmarshalStrings(keywordsJSON)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// requireRow converts a zero-rows-affected result into NotFound.
func requireRow(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound(entity, id)
	}
	return nil
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
