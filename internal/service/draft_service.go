package service

import (
	"context"
	"time"

	"journal-server/internal/domain"
	"journal-server/internal/repository"
	"journal-server/pkg/logger"

	"github.com/google/uuid"
)

// DraftService manages autosaved scratch copies. Drafts never touch the
// version ledger and never participate in the conflict check.
type DraftService struct {
	m         repository.Manager
	retention time.Duration
}

func NewDraftService(m repository.Manager, retention time.Duration) *DraftService {
	return &DraftService{
		m:         m,
		retention: retention,
	}
}

// Save upserts the draft for (user, entry). Saving the same content twice
// only refreshes last_saved; the draft keeps its identity.
func (s *DraftService) Save(ctx context.Context, userID string, req *domain.SaveDraftRequest) (*domain.Draft, error) {
	draft := &domain.Draft{
		ID:        uuid.New().String(),
		UserID:    userID,
		EntryID:   req.EntryID,
		Title:     req.Title,
		Body:      req.Body,
		LastSaved: time.Now(),
	}

	saved, err := s.m.Drafts(s.m.DB()).Upsert(ctx, draft)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *DraftService) Get(ctx context.Context, userID string, entryID *string) (*domain.Draft, error) {
	draft, err := s.m.Drafts(s.m.DB()).Find(ctx, userID, entryID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return draft, nil
}

// Discard removes the draft. Missing drafts report ErrNotFound rather than
// a hard failure, so repeated discards are safe.
func (s *DraftService) Discard(ctx context.Context, userID string, entryID *string) error {
	return mapRepositoryError(s.m.Drafts(s.m.DB()).Delete(ctx, userID, entryID))
}

// CleanupStale removes drafts past the retention window. Called from the
// periodic sweep.
func (s *DraftService) CleanupStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	return s.m.Drafts(s.m.DB()).DeleteStale(ctx, cutoff)
}

// RunSweep blocks, sweeping stale drafts on each tick until ctx ends.
func (s *DraftService) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.CleanupStale(ctx)
			if err != nil {
				logger.Sugar.Errorw("draft sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Sugar.Infow("removed stale drafts", "count", removed)
			}
		}
	}
}
