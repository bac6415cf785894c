package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"messenger/internal/domain"
)

type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

var _ domain.ContactRepository = (*ContactRepo)(nil)

func (r *ContactRepo) Create(ctx context.Context, ownerID, contactID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (owner_id, contact_id) VALUES ($1, $2)
	`, ownerID, contactID)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (r *ContactRepo) Delete(ctx context.Context, ownerID, contactID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM contacts WHERE owner_id = $1 AND contact_id = $2
	`, ownerID, contactID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (r *ContactRepo) Exists(ctx context.Context, ownerID, contactID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM contacts WHERE owner_id = $1 AND contact_id = $2
	`, ownerID, contactID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check contact: %w", err)
	}
	return true, nil
}

func (r *ContactRepo) ListForOwner(ctx context.Context, ownerID int64) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.avatar_url, u.hashed_password, u.created_at, u.last_seen
		FROM contacts c
		JOIN users u ON u.id = c.contact_id
		WHERE c.owner_id = $1
		ORDER BY u.last_seen DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *ContactRepo) ListContactIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT contact_id FROM contacts WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contact ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contact id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
