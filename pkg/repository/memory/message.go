package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

type messageRepository struct {
	mu       sync.RWMutex
	messages map[types.UserID][]model.Message
}

var _ interfaces.MessageRepository = &messageRepository{}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		messages: make(map[types.UserID][]model.Message),
	}
}

// append assumes the caller holds the write lock. Seq equals the slice
// index, which keeps the gap-free invariant by construction.
func (r *messageRepository) append(id types.UserID, role types.Role, text string) model.Message {
	msg := model.Message{
		UserID:    id,
		Seq:       int64(len(r.messages[id])),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	r.messages[id] = append(r.messages[id], msg)
	return msg
}

func (r *messageRepository) Append(_ context.Context, id types.UserID, role types.Role, text string) (*model.Message, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := r.append(id, role, text)
	return &msg, nil
}

func (r *messageRepository) AppendPair(_ context.Context, id types.UserID, userText, agentText string) (*model.Message, *model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inbound := r.append(id, types.RoleUser, userText)
	reply := r.append(id, types.RoleAgent, agentText)
	return &inbound, &reply, nil
}

func (r *messageRepository) Recent(_ context.Context, id types.UserID, limit int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[id]
	start := 0
	if limit >= 0 && len(msgs) > limit {
		start = len(msgs) - limit
	}

	result := make([]*model.Message, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		copied := m
		result = append(result, &copied)
	}
	return result, nil
}

func (r *messageRepository) Range(_ context.Context, id types.UserID, from, to int64) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[id]
	if from < 0 {
		from = 0
	}
	if to >= int64(len(msgs)) {
		to = int64(len(msgs)) - 1
	}
	if from > to {
		return nil, nil
	}

	result := make([]*model.Message, 0, to-from+1)
	for _, m := range msgs[from : to+1] {
		copied := m
		result = append(result, &copied)
	}
	return result, nil
}

func (r *messageRepository) LastSeq(_ context.Context, id types.UserID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.messages[id])) - 1, nil
}
