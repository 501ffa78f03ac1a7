package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pscheid92/themebridge/internal/domain"
)

// ServerRepo stores the server list, one row per entry keyed by position.
// Ping status is never stored.
type ServerRepo struct {
	db *sql.DB
}

var _ domain.ServerRepository = (*ServerRepo)(nil)

func NewServerRepo(db *sql.DB) *ServerRepo {
	return &ServerRepo{db: db}
}

func (r *ServerRepo) LoadAll(ctx context.Context) ([]domain.ServerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, address, icon FROM servers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query servers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.ServerEntry
	for rows.Next() {
		var e domain.ServerEntry
		if err := rows.Scan(&e.Name, &e.Address, &e.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read servers: %w", err)
	}
	return entries, nil
}

// SaveAll replaces the stored list in one transaction.
func (r *ServerRepo) SaveAll(ctx context.Context, entries []domain.ServerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM servers`); err != nil {
		return fmt.Errorf("failed to clear servers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO servers (position, name, address, icon) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, i, e.Name, e.Address, e.Icon); err != nil {
			return fmt.Errorf("failed to insert server %q: %w", e.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit servers: %w", err)
	}
	return nil
}
