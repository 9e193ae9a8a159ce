package service

import (
	"context"
	"time"

	"journal-server/internal/domain"
	"journal-server/internal/repository"
)

// mockManager backs the services with in-memory maps. WithTx just runs the
// function; these tests exercise service logic, not transaction plumbing.
type mockManager struct {
	users     *mockUserRepo
	entries   *mockEntryRepo
	snapshots *mockSnapshotRepo
	drafts    *mockDraftRepo
}

func newMockManager() *mockManager {
	return &mockManager{
		users:     &mockUserRepo{users: make(map[string]*domain.User)},
		entries:   &mockEntryRepo{entries: make(map[string]*domain.Entry)},
		snapshots: &mockSnapshotRepo{},
		drafts:    &mockDraftRepo{drafts: make(map[string]*domain.Draft)},
	}
}

func (m *mockManager) Users(db repository.DBTX) repository.UserRepository         { return m.users }
func (m *mockManager) Entries(db repository.DBTX) repository.EntryRepository      { return m.entries }
func (m *mockManager) Snapshots(db repository.DBTX) repository.SnapshotRepository { return m.snapshots }
func (m *mockManager) Drafts(db repository.DBTX) repository.DraftRepository       { return m.drafts }

func (m *mockManager) DB() repository.DBTX { return nil }

func (m *mockManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *mockManager) Close() error { return nil }

type mockUserRepo struct {
	users map[string]*domain.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type mockEntryRepo struct {
	entries map[string]*domain.Entry
}

func (m *mockEntryRepo) Create(ctx context.Context, entry *domain.Entry) error {
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *mockEntryRepo) FindByID(ctx context.Context, id string) (*domain.Entry, error) {
	if e, ok := m.entries[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockEntryRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Entry, error) {
	return m.FindByID(ctx, id)
}

func (m *mockEntryRepo) List(ctx context.Context, userID, tag string) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		if tag != "" && !hasTag(e.Tags, tag) {
			continue
		}
		copied := *e
		entries = append(entries, &copied)
	}
	return entries, nil
}

func (m *mockEntryRepo) Update(ctx context.Context, entry *domain.Entry) error {
	if _, ok := m.entries[entry.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

type mockSnapshotRepo struct {
	snapshots []*domain.VersionSnapshot
}

func (m *mockSnapshotRepo) Create(ctx context.Context, snapshot *domain.VersionSnapshot) error {
	copied := *snapshot
	m.snapshots = append(m.snapshots, &copied)
	return nil
}

func (m *mockSnapshotRepo) ListByEntry(ctx context.Context, entryID string) ([]*domain.VersionSnapshot, error) {
	var out []*domain.VersionSnapshot
	for _, s := range m.snapshots {
		if s.EntryID == entryID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockSnapshotRepo) LatestConflict(ctx context.Context, entryID string) (*domain.VersionSnapshot, error) {
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].EntryID == entryID && m.snapshots[i].IsConflict {
			copied := *m.snapshots[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockSnapshotRepo) ClearConflict(ctx context.Context, snapshotID string) error {
	for _, s := range m.snapshots {
		if s.ID == snapshotID {
			s.IsConflict = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockSnapshotRepo) conflictCount(entryID string) int {
	n := 0
	for _, s := range m.snapshots {
		if s.EntryID == entryID && s.IsConflict {
			n++
		}
	}
	return n
}

type mockDraftRepo struct {
	drafts map[string]*domain.Draft
}

func draftKey(userID string, entryID *string) string {
	if entryID == nil {
		return userID + "|"
	}
	return userID + "|" + *entryID
}

func (m *mockDraftRepo) Upsert(ctx context.Context, draft *domain.Draft) (*domain.Draft, error) {
	key := draftKey(draft.UserID, draft.EntryID)
	if existing, ok := m.drafts[key]; ok {
		existing.Title = draft.Title
		existing.Body = draft.Body
		existing.LastSaved = draft.LastSaved
		copied := *existing
		return &copied, nil
	}
	copied := *draft
	m.drafts[key] = &copied
	result := copied
	return &result, nil
}

func (m *mockDraftRepo) Find(ctx context.Context, userID string, entryID *string) (*domain.Draft, error) {
	if d, ok := m.drafts[draftKey(userID, entryID)]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockDraftRepo) Delete(ctx context.Context, userID string, entryID *string) error {
	key := draftKey(userID, entryID)
	if _, ok := m.drafts[key]; !ok {
		return repository.ErrNotFound
	}
	delete(m.drafts, key)
	return nil
}

func (m *mockDraftRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for key, d := range m.drafts {
		if d.LastSaved.Before(cutoff) {
			delete(m.drafts, key)
			removed++
		}
	}
	return removed, nil
}

// mockNotifier records pushes so tests can assert when broadcasts happen.
type mockNotifier struct {
	updated []string
	deleted []string
}

func (m *mockNotifier) EntryUpdated(userID, clientID string, entry *domain.Entry) {
	m.updated = append(m.updated, entry.ID)
}

func (m *mockNotifier) EntryDeleted(userID, clientID, entryID string, version int64) {
	m.deleted = append(m.deleted, entryID)
}
