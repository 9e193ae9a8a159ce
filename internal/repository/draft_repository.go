package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"journal-server/internal/domain"
)

type DraftRepository interface {
	// Upsert inserts or overwrites the single draft for (user, entry),
	// refreshing last_saved. The write is one atomic statement.
	Upsert(ctx context.Context, draft *domain.Draft) (*domain.Draft, error)
	Find(ctx context.Context, userID string, entryID *string) (*domain.Draft, error)
	Delete(ctx context.Context, userID string, entryID *string) error
	// DeleteStale removes drafts untouched since the cutoff and reports
	// how many rows went away.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type draftRepository struct {
	db DBTX
}

func NewDraftRepository(db DBTX) DraftRepository {
	return &draftRepository{db: db}
}

const draftColumns = "id, user_id, entry_id, title, body, last_saved"

func (r *draftRepository) Upsert(ctx context.Context, draft *domain.Draft) (*domain.Draft, error) {
	query := `
		INSERT INTO drafts (id, user_id, entry_id, title, body, last_saved)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT drafts_user_entry_key
		DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body, last_saved = EXCLUDED.last_saved
		RETURNING ` + draftColumns

	var d domain.Draft
	err := r.db.QueryRowContext(ctx, query,
		draft.ID, draft.UserID, draft.EntryID, draft.Title, draft.Body, draft.LastSaved).Scan(
		&d.ID, &d.UserID, &d.EntryID, &d.Title, &d.Body, &d.LastSaved)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert draft: %w", err)
	}
	return &d, nil
}

func (r *draftRepository) Find(ctx context.Context, userID string, entryID *string) (*domain.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts
		WHERE user_id = $1 AND entry_id IS NOT DISTINCT FROM $2`

	var d domain.Draft
	err := r.db.QueryRowContext(ctx, query, userID, entryID).Scan(
		&d.ID, &d.UserID, &d.EntryID, &d.Title, &d.Body, &d.LastSaved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find draft: %w", err)
	}
	return &d, nil
}

func (r *draftRepository) Delete(ctx context.Context, userID string, entryID *string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE user_id = $1 AND entry_id IS NOT DISTINCT FROM $2`,
		userID, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *draftRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE last_saved < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale drafts: %w", err)
	}
	return res.RowsAffected()
}
