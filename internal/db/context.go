package db

import (
	"database/sql"
	"encoding/json"

	"github.com/attachehq/attache/internal/card"
	"github.com/attachehq/attache/internal/errors"
)

// GetUserContext loads the singleton context record, returning an empty
// context if it has never been written.
func GetUserContext(q Querier) (*card.UserContext, error) {
	row := q.QueryRow(`SELECT projects_json, people_json, themes_json, updated_at FROM user_context WHERE id = 1`)

	var projectsJSON, peopleJSON, themesJSON string
	var updatedAt int64
	err := row.Scan(&projectsJSON, &peopleJSON, &themesJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return card.NewUserContext(), nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	u := card.NewUserContext()
	u.UpdatedAt = updatedAt
	for _, pair := range []struct {
		data string
		dst  *map[string]float64
	}{
		{projectsJSON, &u.ActiveProjects},
		{peopleJSON, &u.KeyPeople},
		{themesJSON, &u.Themes},
	} {
		if pair.data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(pair.data), pair.dst); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	return u, nil
}

// SaveUserContext writes the singleton context record (upsert on id=1).
func SaveUserContext(q Querier, u *card.UserContext) error {
	projectsJSON, err := json.Marshal(u.ActiveProjects)
	if err != nil {
		return errors.NewInternal(err)
	}
	peopleJSON, err := json.Marshal(u.KeyPeople)
	if err != nil {
		return errors.NewInternal(err)
	}
	themesJSON, err := json.Marshal(u.Themes)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO user_context (id, projects_json, people_json, themes_json, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			projects_json = excluded.projects_json,
			people_json   = excluded.people_json,
			themes_json   = excluded.themes_json,
			updated_at    = excluded.updated_at
	`
	_, err = q.Exec(query, string(projectsJSON), string(peopleJSON), string(themesJSON), u.UpdatedAt)
	if err != nil {
		if IsLockContention(err) {
			return errors.NewLockContention(err)
		}
		return errors.NewInternal(err)
	}
	return nil
}
