package llm

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

// Mock is a scripted LanguageModel for tests. Each Complete call
// consumes the next queued response; once the queue is exhausted the
// last response repeats. A non-nil Err is returned for every call.
type Mock struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []model.Prompt
}

var _ interfaces.LanguageModel = &Mock{}

func (m *Mock) Complete(_ context.Context, prompt model.Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, prompt)

	if m.Err != nil {
		return "", goerr.Wrap(m.Err, "mock completion failed", goerr.T(types.ErrTagUpstream))
	}
	if len(m.Responses) == 0 {
		return "", goerr.New("mock has no scripted responses", goerr.T(types.ErrTagUpstream))
	}

	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

// CallCount returns the number of Complete invocations so far
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
