package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reeladmin/internal/auth"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// CredentialRepository persists identity provider credentials.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// SaveCredentials upserts the single stored identity.
func (r *CredentialRepository) SaveCredentials(identity auth.Identity) error {
	query := `
		INSERT INTO provider_credentials (id, uid, email, id_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uid = excluded.uid,
			email = excluded.email,
			id_token = excluded.id_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		identity.UID,
		identity.Email,
		identity.IDToken,
		identity.RefreshToken,
		identity.ExpiresAt.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the stored identity, or [shared.ErrNotFound].
func (r *CredentialRepository) LoadCredentials() (*auth.Identity, error) {
	var identity auth.Identity

	err := r.db.QueryRow(`
		SELECT uid, email, id_token, refresh_token, expires_at
		FROM provider_credentials
		WHERE id = 1
	`).Scan(&identity.UID, &identity.Email, &identity.IDToken, &identity.RefreshToken, &identity.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credentials: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}

	return &identity, nil
}

// ClearCredentials removes the stored identity.
func (r *CredentialRepository) ClearCredentials() error {
	if _, err := r.db.Exec("DELETE FROM provider_credentials"); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
