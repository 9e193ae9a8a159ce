package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"journal-server/internal/domain"
)

func newSnapshotRepoWithMock(t *testing.T) (SnapshotRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSnapshotRepository(db), mock, db
}

func TestSnapshotRepository_CreateConflictSnapshot(t *testing.T) {
	repo, mock, db := newSnapshotRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	base := int64(1)

	mock.ExpectExec(`INSERT INTO entry_snapshots`).
		WithArgs("s1", "e1", int64(2), &base, "t", "b", true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.VersionSnapshot{
		ID: "s1", EntryID: "e1", Version: 2, BaseVersion: &base,
		Title: "t", Body: "b", IsConflict: true, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSnapshotRepository_ListByEntry(t *testing.T) {
	repo, mock, db := newSnapshotRepoWithMock(t)
	defer db.Close()

	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM entry_snapshots\s+WHERE entry_id = \$1 ORDER BY version ASC`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "entry_id", "version", "base_version", "title", "body", "is_conflict", "created_at"}).
			AddRow("s1", "e1", int64(1), nil, "old", "b1", false, now).
			AddRow("s2", "e1", int64(2), int64(1), "rejected", "b2", true, now))

	snaps, err := repo.ListByEntry(context.Background(), "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("want 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].BaseVersion != nil {
		t.Error("want nil base_version on normal snapshot")
	}
	if snaps[1].BaseVersion == nil || *snaps[1].BaseVersion != 1 {
		t.Errorf("want base_version 1 on conflict snapshot, got %v", snaps[1].BaseVersion)
	}
}

func TestSnapshotRepository_LatestConflictNotFound(t *testing.T) {
	repo, mock, db := newSnapshotRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM entry_snapshots\s+WHERE entry_id = \$1 AND is_conflict = TRUE`).
		WithArgs("e1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestConflict(context.Background(), "e1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSnapshotRepository_ClearConflict(t *testing.T) {
	repo, mock, db := newSnapshotRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE entry_snapshots SET is_conflict = FALSE WHERE id = \$1`).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClearConflict(context.Background(), "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(`UPDATE entry_snapshots SET is_conflict = FALSE WHERE id = \$1`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.ClearConflict(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
