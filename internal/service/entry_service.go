package service

import (
	"context"
	"errors"
	"time"

	"journal-server/internal/domain"
	"journal-server/internal/repository"

	"github.com/google/uuid"
)

// EntryNotifier pushes accepted changes to the owner's other open
// connections. Best effort only: the transactional version compare stays
// the source of truth.
type EntryNotifier interface {
	EntryUpdated(userID, clientID string, entry *domain.Entry)
	EntryDeleted(userID, clientID, entryID string, version int64)
}

type EntryService struct {
	m        repository.Manager
	notifier EntryNotifier
}

func NewEntryService(m repository.Manager, notifier EntryNotifier) *EntryService {
	return &EntryService{
		m:        m,
		notifier: notifier,
	}
}

// Create publishes a new entry at version 1. The ledger starts empty; the
// first snapshot appears on the first accepted update. Publishing consumes
// the user's new-entry draft in the same transaction.
func (s *EntryService) Create(ctx context.Context, userID, clientID string, req *domain.CreateEntryRequest) (*domain.Entry, error) {
	now := time.Now()
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     req.Title,
		Body:      req.Body,
		Tags:      req.Tags,
		IsPublic:  req.IsPublic,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.m.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.m.Entries(tx).Create(ctx, entry); err != nil {
			return err
		}

		if err := s.m.Drafts(tx).Delete(ctx, userID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.EntryUpdated(userID, clientID, entry)
	}

	return entry, nil
}

func (s *EntryService) GetByID(ctx context.Context, userID, entryID string) (*domain.Entry, error) {
	entry, err := s.m.Entries(s.m.DB()).FindByID(ctx, entryID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if entry.UserID != userID && !entry.IsPublic {
		return nil, ErrForbidden
	}
	return entry, nil
}

func (s *EntryService) List(ctx context.Context, userID, tag string) ([]*domain.Entry, error) {
	return s.m.Entries(s.m.DB()).List(ctx, userID, tag)
}

// Update is the normal edit path: the client submits the version it read at
// edit-start time and the server compares it against the stored version
// after taking the row lock. A strictly older client version is a conflict:
// the client's rejected content is preserved as an is_conflict snapshot at
// the server's current version and the entry is left untouched. Equal (or
// newer) proceeds: the pre-mutation state is snapshotted, the fields are
// applied, and version moves up by exactly 1 — all in one transaction.
func (s *EntryService) Update(ctx context.Context, userID, entryID, clientID string, req *domain.UpdateEntryRequest) (*domain.Entry, error) {
	var (
		updated  *domain.Entry
		conflict *ConflictError
	)

	err := s.m.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		entries := s.m.Entries(tx)
		snapshots := s.m.Snapshots(tx)

		entry, err := entries.FindByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.UserID != userID {
			return ErrForbidden
		}

		if req.Version < entry.Version {
			baseVersion := req.Version
			snap := &domain.VersionSnapshot{
				ID:          uuid.New().String(),
				EntryID:     entry.ID,
				Version:     entry.Version,
				BaseVersion: &baseVersion,
				Title:       req.Title,
				Body:        req.Body,
				IsConflict:  true,
				CreatedAt:   time.Now(),
			}
			if err := snapshots.Create(ctx, snap); err != nil {
				return err
			}

			// Returning nil commits: the rejected attempt must land in
			// the ledger even though the entry itself stays untouched.
			conflict = &ConflictError{
				SnapshotID:      snap.ID,
				ServerVersion:   entry.Version,
				ServerUpdatedAt: entry.UpdatedAt,
			}
			return nil
		}

		if err := snapshots.Create(ctx, preMutationSnapshot(entry)); err != nil {
			return err
		}

		entry.Title = req.Title
		entry.Body = req.Body
		if req.Tags != nil {
			entry.Tags = *req.Tags
		}
		if req.IsPublic != nil {
			entry.IsPublic = *req.IsPublic
		}
		entry.Version++
		entry.UpdatedAt = time.Now()

		if err := entries.Update(ctx, entry); err != nil {
			return err
		}

		if err := s.m.Drafts(tx).Delete(ctx, userID, &entry.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		updated = entry
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if conflict != nil {
		return nil, conflict
	}

	if s.notifier != nil {
		s.notifier.EntryUpdated(userID, clientID, updated)
	}

	return updated, nil
}

// GetConflict pairs the live entry with the latest unresolved conflict
// snapshot for the resolution view. ErrNotFound when nothing is pending.
func (s *EntryService) GetConflict(ctx context.Context, userID, entryID string) (*domain.ConflictView, error) {
	db := s.m.DB()

	entry, err := s.m.Entries(db).FindByID(ctx, entryID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}

	snap, err := s.m.Snapshots(db).LatestConflict(ctx, entryID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	return &domain.ConflictView{Server: entry, Local: snap}, nil
}

// Resolve applies human-chosen content with the version check bypassed.
// The prior conflict snapshot loses its flag so the resolution view stops
// offering it, then a normal snapshot+update runs, same as an accepted
// edit. Always increments version by 1.
func (s *EntryService) Resolve(ctx context.Context, userID, entryID, clientID string, req *domain.ResolveConflictRequest) (*domain.Entry, error) {
	var resolved *domain.Entry

	err := s.m.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		entries := s.m.Entries(tx)
		snapshots := s.m.Snapshots(tx)

		entry, err := entries.FindByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.UserID != userID {
			return ErrForbidden
		}

		if prior, err := snapshots.LatestConflict(ctx, entryID); err == nil {
			if err := snapshots.ClearConflict(ctx, prior.ID); err != nil {
				return err
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := snapshots.Create(ctx, preMutationSnapshot(entry)); err != nil {
			return err
		}

		entry.Title = req.Title
		entry.Body = req.Body
		entry.Version++
		entry.UpdatedAt = time.Now()

		if err := entries.Update(ctx, entry); err != nil {
			return err
		}

		if err := s.m.Drafts(tx).Delete(ctx, userID, &entry.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		resolved = entry
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	if s.notifier != nil {
		s.notifier.EntryUpdated(userID, clientID, resolved)
	}

	return resolved, nil
}

func (s *EntryService) ListVersions(ctx context.Context, userID, entryID string) ([]*domain.VersionSnapshot, error) {
	db := s.m.DB()

	entry, err := s.m.Entries(db).FindByID(ctx, entryID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}

	return s.m.Snapshots(db).ListByEntry(ctx, entryID)
}

// Delete removes the entry; snapshots and draft go with it via cascade.
func (s *EntryService) Delete(ctx context.Context, userID, entryID, clientID string) error {
	var version int64

	err := s.m.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		entries := s.m.Entries(tx)

		entry, err := entries.FindByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.UserID != userID {
			return ErrForbidden
		}

		version = entry.Version
		return entries.Delete(ctx, entryID)
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	if s.notifier != nil {
		s.notifier.EntryDeleted(userID, clientID, entryID, version)
	}

	return nil
}

// preMutationSnapshot captures the entry's state just before an accepted
// write, keyed by the version that state was published under.
func preMutationSnapshot(entry *domain.Entry) *domain.VersionSnapshot {
	return &domain.VersionSnapshot{
		ID:         uuid.New().String(),
		EntryID:    entry.ID,
		Version:    entry.Version,
		Title:      entry.Title,
		Body:       entry.Body,
		IsConflict: false,
		CreatedAt:  time.Now(),
	}
}

func mapRepositoryError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
