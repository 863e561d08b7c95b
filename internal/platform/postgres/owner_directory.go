package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/store"
)

// PostgresOwnerDirectory implements the store.OwnerDirectory interface
// using PostgreSQL.
type PostgresOwnerDirectory struct {
	db store.DBTX
}

// NewPostgresOwnerDirectory creates a new PostgresOwnerDirectory.
func NewPostgresOwnerDirectory(db store.DBTX) *PostgresOwnerDirectory {
	return &PostgresOwnerDirectory{db: db}
}

// OwnerExists reports whether the owner is registered, returning
// store.ErrOwnerNotFound when they are not.
func (d *PostgresOwnerDirectory) OwnerExists(ctx context.Context, ownerID uuid.UUID) error {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM owners WHERE id = $1)`, ownerID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query owner directory: %w", err)
	}
	if !exists {
		return store.ErrOwnerNotFound
	}
	return nil
}
