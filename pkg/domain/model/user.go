package model

import (
	"time"

	"github.com/chatling/chatling/pkg/domain/types"
)

// User represents a messaging platform user.
// Users are created on their first inbound message and never deleted
// by the system itself.
type User struct {
	ID        types.UserID
	Language  string // ISO 639-1 code, empty until lazily detected
	CreatedAt time.Time
}

// NewUser creates a User with an unknown language
func NewUser(id types.UserID) *User {
	return &User{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
}
