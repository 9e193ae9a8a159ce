package domain

import "time"

// Entry is a published journal post. Version starts at 1 and moves up by
// exactly 1 on every accepted write; it never moves on a rejected one.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"content"`
	Tags      []string  `json:"tags"`
	IsPublic  bool      `json:"is_public"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateEntryRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Body     string   `json:"content" validate:"required"`
	Tags     []string `json:"tags" validate:"max=20,dive,required,max=50"`
	IsPublic bool     `json:"is_public"`
}

// UpdateEntryRequest carries the version the client read at edit-start
// time. The server compares it against the stored version at write time.
type UpdateEntryRequest struct {
	Title    string    `json:"title" validate:"required,max=200"`
	Body     string    `json:"content" validate:"required"`
	Tags     *[]string `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
	IsPublic *bool     `json:"is_public"`
	Version  int64     `json:"version" validate:"required,min=1"`
}

// ResolveConflictRequest is the human-chosen (or hand-merged) content that
// settles a conflict. It bypasses the version check entirely.
type ResolveConflictRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"content" validate:"required"`
}

// ConflictView pairs the live entry with the latest unresolved conflict
// snapshot so a client can render "server version" next to "your version".
type ConflictView struct {
	Server *Entry           `json:"server"`
	Local  *VersionSnapshot `json:"local"`
}

type UpdateEntryResponse struct {
	EntryID   string    `json:"entry_id"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
