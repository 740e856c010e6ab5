package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// UserID is the opaque identifier assigned by the messaging platform
type UserID string

// Validate checks if the UserID is valid
func (u UserID) Validate() error {
	if u == "" {
		return goerr.New("user ID cannot be empty", goerr.T(ErrTagInvalidRequest))
	}
	return nil
}

// String returns the string representation of UserID
func (u UserID) String() string {
	return string(u)
}

// Role identifies the author of a message or prompt fragment
type Role string

const (
	// RoleUser is an inbound message from the platform user
	RoleUser Role = "user"
	// RoleAgent is a reply produced by the language model
	RoleAgent Role = "agent"
	// RoleSystem exists only inside prompts, never in stored messages
	RoleSystem Role = "system"
)

// Validate checks if the Role is a storable message role
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAgent:
		return nil
	default:
		return goerr.New("invalid message role", goerr.V("role", string(r)))
	}
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// SummaryID is a UUID-based identifier for MemorySummary
type SummaryID string

// NewSummaryID generates a new UUID v4 SummaryID
func NewSummaryID() SummaryID {
	return SummaryID(uuid.New().String())
}

// String returns the string representation of SummaryID
func (s SummaryID) String() string {
	return string(s)
}
