package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
)

const mutationColumns = `
	id, sequence, resource, record_key, action, status, error_message, started_at, completed_at
`

// MutationRepository stores [models.MutationRecord] history.
type MutationRepository struct {
	db *sql.DB
}

// NewMutationRepository creates a new [MutationRepository] with the given database connection
func NewMutationRepository(db *sql.DB) *MutationRepository {
	return &MutationRepository{db: db}
}

// Create inserts a new entry with a generated ID and sequence.
func (r *MutationRepository) Create(m *models.MutationRecord) error {
	if m.Resource == "" || m.RecordKey == "" || m.Action == "" {
		return fmt.Errorf("%w: mutation requires resource, record key and action", shared.ErrInvalidInput)
	}

	query := `INSERT INTO mutations (` + mutationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return withTx(r.db, func(tx *sql.Tx) error {
		sequence, err := nextSequence(tx, "mutations")
		if err != nil {
			return err
		}

		id := shared.GenerateID()
		_, err = tx.Exec(query,
			id,
			sequence,
			m.Resource,
			m.RecordKey,
			m.Action,
			m.Status,
			nullable(m.Error),
			m.StartedAt,
			m.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert mutation: %w", err)
		}

		m.ID, m.Sequence = id, sequence
		return nil
	})
}

// Get retrieves an entry by ID.
func (r *MutationRepository) Get(id string) (*models.MutationRecord, error) {
	query := `SELECT ` + mutationColumns + ` FROM mutations WHERE id = ?`

	m, err := scanMutation(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mutation %s: %w", id, shared.ErrNotFound)
	}
	return m, err
}

// Update writes the status, error and completion time of an entry.
func (r *MutationRepository) Update(m *models.MutationRecord) error {
	query := `
		UPDATE mutations
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, m.Status, nullable(m.Error), m.CompletedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update mutation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mutation %s: %w", m.ID, shared.ErrNotFound)
	}

	return nil
}

// List retrieves entries newest first, optionally filtered by "resource", "record_key" and "status"
// and capped by "limit".
func (r *MutationRepository) List(criteria map[string]any) ([]*models.MutationRecord, error) {
	query := `SELECT ` + mutationColumns + ` FROM mutations WHERE 1 = 1`
	args := []any{}

	if resource, ok := criteria["resource"].(string); ok && resource != "" {
		query += " AND resource = ?"
		args = append(args, resource)
	}

	if key, ok := criteria["record_key"].(string); ok && key != "" {
		query += " AND record_key = ?"
		args = append(args, key)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutations: %w", err)
	}
	defer rows.Close()

	var mutations []*models.MutationRecord
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return mutations, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMutation(s scanner) (*models.MutationRecord, error) {
	var (
		m           models.MutationRecord
		status      string
		message     sql.NullString
		completedAt sql.NullTime
	)

	err := s.Scan(&m.ID, &m.Sequence, &m.Resource, &m.RecordKey, &m.Action, &status, &message, &m.StartedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mutation: %w", err)
	}

	m.Status = models.MutationStatus(status)
	if message.Valid {
		m.Error = message.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		m.CompletedAt = &t
	}

	return &m, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Prune deletes finished entries older than the cutoff and returns how many were removed.
func (r *MutationRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM mutations WHERE status != ? AND started_at < ?", models.MutationRunning, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune mutations: %w", err)
	}
	return result.RowsAffected()
}
