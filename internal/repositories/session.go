package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reeladmin/internal/shared"
)

// SessionRepository persists the cached session in a single-row table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save replaces the stored profile blob and access token.
func (r *SessionRepository) Save(profile []byte, accessToken string) error {
	now := time.Now()
	query := `
		INSERT INTO session (id, profile, access_token, created_at, updated_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET profile = excluded.profile, access_token = excluded.access_token, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, string(profile), accessToken, now, now); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored profile blob and access token, or [shared.ErrNotFound].
func (r *SessionRepository) Load() ([]byte, string, error) {
	var (
		profile string
		token   string
	)

	err := r.db.QueryRow("SELECT profile, access_token FROM session WHERE id = 1").Scan(&profile, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("session: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query session: %w", err)
	}

	return []byte(profile), token, nil
}

// Clear removes the profile and token together.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM session"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
