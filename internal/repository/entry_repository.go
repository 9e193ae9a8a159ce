package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"journal-server/internal/domain"
)

type EntryRepository interface {
	Create(ctx context.Context, entry *domain.Entry) error
	FindByID(ctx context.Context, id string) (*domain.Entry, error)
	// FindByIDForUpdate locks the entry row for the rest of the enclosing
	// transaction, so the version compare and the subsequent write cannot
	// race another updater.
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Entry, error)
	List(ctx context.Context, userID, tag string) ([]*domain.Entry, error)
	Update(ctx context.Context, entry *domain.Entry) error
	Delete(ctx context.Context, id string) error
}

type entryRepository struct {
	db DBTX
}

func NewEntryRepository(db DBTX) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	query := `
		INSERT INTO entries (id, user_id, title, body, is_public, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Title, entry.Body, entry.IsPublic,
		entry.Version, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	return r.replaceTags(ctx, entry.ID, entry.Tags)
}

const entryColumns = "id, user_id, title, body, is_public, version, created_at, updated_at"

func (r *entryRepository) findByID(ctx context.Context, id string, forUpdate bool) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var e domain.Entry
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.Title, &e.Body, &e.IsPublic, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}

	tags, err := r.loadTags(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Tags = tags

	return &e, nil
}

func (r *entryRepository) FindByID(ctx context.Context, id string) (*domain.Entry, error) {
	return r.findByID(ctx, id, false)
}

func (r *entryRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Entry, error) {
	return r.findByID(ctx, id, true)
}

func (r *entryRepository) List(ctx context.Context, userID, tag string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id = $1 ORDER BY updated_at DESC`
	args := []any{userID}
	if tag != "" {
		query = `SELECT ` + entryColumns + ` FROM entries
			WHERE user_id = $1 AND id IN (SELECT entry_id FROM entry_tags WHERE tag = $2)
			ORDER BY updated_at DESC`
		args = append(args, tag)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Body, &e.IsPublic,
			&e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, e := range entries {
		tags, err := r.loadTags(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		e.Tags = tags
	}

	return entries, nil
}

func (r *entryRepository) Update(ctx context.Context, entry *domain.Entry) error {
	query := `
		UPDATE entries
		SET title = $2, body = $3, is_public = $4, version = $5, updated_at = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Title, entry.Body, entry.IsPublic, entry.Version, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return r.replaceTags(ctx, entry.ID, entry.Tags)
}

func (r *entryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *entryRepository) loadTags(ctx context.Context, entryID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag FROM entry_tags WHERE entry_id = $1 ORDER BY tag`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *entryRepository) replaceTags(ctx context.Context, entryID string, tags []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM entry_tags WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}

	for _, tag := range tags {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO entry_tags (entry_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			entryID, tag); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}
	return nil
}
