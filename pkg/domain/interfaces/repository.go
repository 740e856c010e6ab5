package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

// ErrSummaryConflict is returned by SummaryRepository.Put when the given
// range does not start exactly where the previously summarized range
// ended. The summarizer treats it as "already summarized" and moves on.
var ErrSummaryConflict = goerr.New("summary range conflict")

// Repository defines the interface for data persistence
type Repository interface {
	User() UserRepository
	Message() MessageRepository
	Summary() SummaryRepository

	Close() error
}

// UserRepository defines the interface for User data persistence
type UserRepository interface {
	// GetOrCreate returns the user, creating it on first contact
	GetOrCreate(ctx context.Context, id types.UserID) (*model.User, error)

	// Get retrieves a user by ID. Returns (nil, nil) when unknown.
	Get(ctx context.Context, id types.UserID) (*model.User, error)

	// UpdateLanguage caches the lazily detected reply language
	UpdateLanguage(ctx context.Context, id types.UserID, language string) error
}

// MessageRepository defines the interface for Message data persistence.
// All writes are durable before the call returns.
type MessageRepository interface {
	// Append stores a message with the next sequence number for the
	// user. Concurrent appends for the same user are serialized so
	// sequence numbers never collide or go out of order.
	Append(ctx context.Context, id types.UserID, role types.Role, text string) (*model.Message, error)

	// AppendPair stores one turn's inbound message and reply as a
	// single logical unit with consecutive sequence numbers: both rows
	// are persisted or neither is.
	AppendPair(ctx context.Context, id types.UserID, userText, agentText string) (*model.Message, *model.Message, error)

	// Recent returns the last limit messages by sequence, oldest first.
	// Empty if the user is unknown.
	Recent(ctx context.Context, id types.UserID, limit int) ([]*model.Message, error)

	// Range returns messages with from <= seq <= to, oldest first
	Range(ctx context.Context, id types.UserID, from, to int64) ([]*model.Message, error)

	// LastSeq returns the highest assigned sequence number, or -1 when
	// the user has no messages.
	LastSeq(ctx context.Context, id types.UserID) (int64, error)
}

// SummaryRepository defines the interface for MemorySummary persistence
type SummaryRepository interface {
	// Put stores a summary. The range must start at 0 for the first
	// summary and at the previous RangeEnd+1 afterwards; anything else
	// fails with ErrSummaryConflict.
	Put(ctx context.Context, summary *model.Summary) error

	// List returns all summaries for the user ordered by range start,
	// oldest first.
	List(ctx context.Context, id types.UserID) ([]*model.Summary, error)

	// Latest returns the summary with the highest range start, or
	// (nil, nil) when the user has none.
	Latest(ctx context.Context, id types.UserID) (*model.Summary, error)
}
