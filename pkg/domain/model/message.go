package model

import (
	"time"

	"github.com/chatling/chatling/pkg/domain/types"
)

// Message is one stored conversation entry. Messages are immutable once
// written; Seq is assigned by the repository and is strictly increasing
// and gap-free per user.
type Message struct {
	UserID    types.UserID
	Seq       int64
	Role      types.Role
	Text      string
	CreatedAt time.Time
}
