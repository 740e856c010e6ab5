package memory

import (
	"github.com/chatling/chatling/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	users    *userRepository
	messages *messageRepository
	summary  *summaryRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		users:    newUserRepository(),
		messages: newMessageRepository(),
		summary:  newSummaryRepository(),
	}
}

func (m *Memory) User() interfaces.UserRepository {
	return m.users
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.messages
}

func (m *Memory) Summary() interfaces.SummaryRepository {
	return m.summary
}

func (m *Memory) Close() error {
	return nil
}
