package repository

import (
	"context"
	"database/sql"
	"fmt"

	"journal-server/internal/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Manager hands out repositories bound to a given handle and runs
// transactions. Services call the accessor with either the plain DB handle
// or a transactional one from WithTx.
type Manager interface {
	Users(db DBTX) UserRepository
	Entries(db DBTX) EntryRepository
	Snapshots(db DBTX) SnapshotRepository
	Drafts(db DBTX) DraftRepository

	DB() DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
	Close() error
}

type PostgresManager struct {
	db *sql.DB
}

func NewPostgresManager(dsn string) (*PostgresManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresManager{db: db}

	if err := m.runMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

func (m *PostgresManager) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresManager) Users(db DBTX) UserRepository         { return NewUserRepository(db) }
func (m *PostgresManager) Entries(db DBTX) EntryRepository      { return NewEntryRepository(db) }
func (m *PostgresManager) Snapshots(db DBTX) SnapshotRepository { return NewSnapshotRepository(db) }
func (m *PostgresManager) Drafts(db DBTX) DraftRepository       { return NewDraftRepository(db) }

func (m *PostgresManager) DB() DBTX { return m.db }

func (m *PostgresManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, m.db, nil, fn)
}

func (m *PostgresManager) Close() error { return m.db.Close() }

func (m *PostgresManager) Ping(ctx context.Context) error { return m.db.PingContext(ctx) }
