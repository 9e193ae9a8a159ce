package domain

import "time"

// VersionSnapshot is an immutable row in an entry's version ledger.
//
// A normal snapshot (is_conflict=false) captures the entry's pre-mutation
// state just before an accepted update; Version is the version the content
// was published under. A conflict snapshot captures the *client's rejected*
// content at the entry's current version, with BaseVersion preserving the
// stale version the client edited against. The entry's version does not
// move on a conflict.
type VersionSnapshot struct {
	ID          string    `json:"id"`
	EntryID     string    `json:"entry_id"`
	Version     int64     `json:"version"`
	BaseVersion *int64    `json:"base_version,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"content"`
	IsConflict  bool      `json:"is_conflict"`
	CreatedAt   time.Time `json:"created_at"`
}
