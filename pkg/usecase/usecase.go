package usecase

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model/config"
)

const (
	// DefaultSummaryThreshold is T: summarization triggers once this
	// many unsummarized messages have accumulated.
	DefaultSummaryThreshold = 20

	// DefaultSummaryKeep is K: raw messages always left verbatim after
	// a summarization pass.
	DefaultSummaryKeep = 5

	// DefaultContextBudget bounds the assembled prompt size in runes
	DefaultContextBudget = 6000

	defaultRetryCount   = 3
	defaultRetryBackoff = 500 * time.Millisecond
)

type UseCases struct {
	repo interfaces.Repository
	llm  interfaces.LanguageModel

	Conversation *ConversationUseCase
	Summarizer   *Summarizer
}

type settings struct {
	persona          *config.Persona
	summaryThreshold int
	summaryKeep      int
	contextBudget    int
	retryCount       int
	retryBackoff     time.Duration
	syncSummarize    bool
}

type Option func(*settings)

// WithPersona overrides the built-in persona
func WithPersona(p *config.Persona) Option {
	return func(s *settings) {
		s.persona = p
	}
}

// WithSummaryPolicy sets the trigger threshold T and keep-raw tail K
func WithSummaryPolicy(threshold, keep int) Option {
	return func(s *settings) {
		s.summaryThreshold = threshold
		s.summaryKeep = keep
	}
}

// WithContextBudget sets the assembled prompt size limit in runes
func WithContextBudget(budget int) Option {
	return func(s *settings) {
		s.contextBudget = budget
	}
}

// WithRetry sets the model call retry count and base backoff
func WithRetry(count int, backoff time.Duration) Option {
	return func(s *settings) {
		s.retryCount = count
		s.retryBackoff = backoff
	}
}

// WithSyncSummarize runs the post-turn summarization check inline
// instead of dispatching it to a background goroutine. Used by tests
// and by deployments that prefer deterministic compaction.
func WithSyncSummarize() Option {
	return func(s *settings) {
		s.syncSummarize = true
	}
}

func New(repo interfaces.Repository, llm interfaces.LanguageModel, opts ...Option) (*UseCases, error) {
	s := &settings{
		persona:          config.DefaultPersona(),
		summaryThreshold: DefaultSummaryThreshold,
		summaryKeep:      DefaultSummaryKeep,
		contextBudget:    DefaultContextBudget,
		retryCount:       defaultRetryCount,
		retryBackoff:     defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.summaryThreshold < 2 {
		return nil, goerr.New("summary threshold must be at least 2",
			goerr.V("threshold", s.summaryThreshold))
	}
	if s.summaryKeep < 1 || s.summaryKeep >= s.summaryThreshold {
		return nil, goerr.New("summary keep must be in [1, threshold)",
			goerr.V("keep", s.summaryKeep),
			goerr.V("threshold", s.summaryThreshold))
	}
	if s.retryCount < 1 {
		return nil, goerr.New("retry count must be at least 1",
			goerr.V("count", s.retryCount))
	}
	if err := s.persona.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid persona")
	}

	systemPrompt, err := renderSystemPrompt(s.persona)
	if err != nil {
		return nil, err
	}

	uc := &UseCases{
		repo: repo,
		llm:  llm,
	}
	uc.Summarizer = newSummarizer(repo, llm, s.summaryThreshold, s.summaryKeep)
	uc.Conversation = newConversationUseCase(repo, llm, uc.Summarizer, systemPrompt, s)

	return uc, nil
}
