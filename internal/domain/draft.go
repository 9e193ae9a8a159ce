package domain

import "time"

// Draft is the autosaved edit-in-progress for (user, entry). A nil EntryID
// means a not-yet-published new entry. At most one draft exists per pair;
// saves are upserts. Drafts never participate in the conflict check.
type Draft struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EntryID   *string   `json:"entry_id"`
	Title     string    `json:"title"`
	Body      string    `json:"content"`
	LastSaved time.Time `json:"last_saved"`
}

type SaveDraftRequest struct {
	EntryID *string `json:"entry_id" validate:"omitempty,uuid4"`
	Title   string  `json:"title" validate:"max=200"`
	Body    string  `json:"content"`
}

type SaveDraftResponse struct {
	DraftID   string    `json:"draft_id"`
	LastSaved time.Time `json:"last_saved"`
}
