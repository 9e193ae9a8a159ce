package service

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden: resource does not belong to user")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ConflictError is not a failure in the usual sense: the rejected content
// has already been preserved as a conflict snapshot, and the caller is
// expected to hand the details to a human for resolution.
type ConflictError struct {
	SnapshotID      string    `json:"conflict_id"`
	ServerVersion   int64     `json:"server_version"`
	ServerUpdatedAt time.Time `json:"server_updated_at"`
}

func (e *ConflictError) Error() string {
	return "version conflict detected"
}
