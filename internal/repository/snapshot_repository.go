package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"journal-server/internal/domain"
)

// SnapshotRepository is the entry's version ledger. Rows are append-only:
// nothing mutates a snapshot after creation except ClearConflict, which
// flips the is_conflict flag when a resolution lands, and the cascade from
// an entry delete.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.VersionSnapshot) error
	ListByEntry(ctx context.Context, entryID string) ([]*domain.VersionSnapshot, error)
	LatestConflict(ctx context.Context, entryID string) (*domain.VersionSnapshot, error)
	ClearConflict(ctx context.Context, snapshotID string) error
}

type snapshotRepository struct {
	db DBTX
}

func NewSnapshotRepository(db DBTX) SnapshotRepository {
	return &snapshotRepository{db: db}
}

const snapshotColumns = "id, entry_id, version, base_version, title, body, is_conflict, created_at"

func (r *snapshotRepository) Create(ctx context.Context, snapshot *domain.VersionSnapshot) error {
	query := `
		INSERT INTO entry_snapshots (id, entry_id, version, base_version, title, body, is_conflict, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.EntryID, snapshot.Version, snapshot.BaseVersion,
		snapshot.Title, snapshot.Body, snapshot.IsConflict, snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) ListByEntry(ctx context.Context, entryID string) ([]*domain.VersionSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM entry_snapshots
		WHERE entry_id = $1 ORDER BY version ASC, created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.VersionSnapshot
	for rows.Next() {
		var s domain.VersionSnapshot
		if err := rows.Scan(&s.ID, &s.EntryID, &s.Version, &s.BaseVersion,
			&s.Title, &s.Body, &s.IsConflict, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

func (r *snapshotRepository) LatestConflict(ctx context.Context, entryID string) (*domain.VersionSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM entry_snapshots
		WHERE entry_id = $1 AND is_conflict = TRUE
		ORDER BY created_at DESC, id DESC LIMIT 1`

	var s domain.VersionSnapshot
	err := r.db.QueryRowContext(ctx, query, entryID).Scan(
		&s.ID, &s.EntryID, &s.Version, &s.BaseVersion,
		&s.Title, &s.Body, &s.IsConflict, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conflict snapshot: %w", err)
	}
	return &s, nil
}

func (r *snapshotRepository) ClearConflict(ctx context.Context, snapshotID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entry_snapshots SET is_conflict = FALSE WHERE id = $1`, snapshotID)
	if err != nil {
		return fmt.Errorf("failed to clear conflict flag: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
