package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
	"github.com/chatling/chatling/pkg/utils/async"
	"github.com/chatling/chatling/pkg/utils/errutil"
	"github.com/chatling/chatling/pkg/utils/logging"
)

//go:embed prompt/detect_language.md
var detectLanguagePromptTmpl string

var detectLanguagePrompt = template.Must(template.New("detect_language").Parse(detectLanguagePromptTmpl))

var langCodePattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2})?$`)

const fallbackLanguage = "en"

// ConversationUseCase orchestrates one turn: validate, build context,
// call the model, persist the exchange, trigger summarization, reply.
// It is stateless across requests; all state lives in the repository.
type ConversationUseCase struct {
	repo       interfaces.Repository
	llm        interfaces.LanguageModel
	summarizer *Summarizer
	assembler  *assembler

	systemPrompt  string
	retryCount    int
	retryBackoff  time.Duration
	syncSummarize bool
}

func newConversationUseCase(repo interfaces.Repository, llm interfaces.LanguageModel, summarizer *Summarizer, systemPrompt string, s *settings) *ConversationUseCase {
	return &ConversationUseCase{
		repo:          repo,
		llm:           llm,
		summarizer:    summarizer,
		assembler:     &assembler{budget: s.contextBudget},
		systemPrompt:  systemPrompt,
		retryCount:    s.retryCount,
		retryBackoff:  s.retryBackoff,
		syncSummarize: s.syncSummarize,
	}
}

// ProcessMessage handles one inbound message and returns the reply.
// Nothing is persisted unless the model produced a reply; the inbound
// message and the reply are stored as a single unit.
func (uc *ConversationUseCase) ProcessMessage(ctx context.Context, userID types.UserID, text string) (string, error) {
	logger := logging.From(ctx)

	if err := userID.Validate(); err != nil {
		return "", goerr.Wrap(ErrInvalidRequest, "missing user ID")
	}
	if strings.TrimSpace(text) == "" {
		return "", goerr.Wrap(ErrInvalidRequest, "message text is empty",
			goerr.V("user_id", userID))
	}
	logger.Debug("turn state", "state", "received", "user_id", userID)

	user, err := uc.repo.User().GetOrCreate(ctx, userID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to load user")
	}

	language := user.Language
	if language == "" {
		language = uc.detectLanguage(ctx, text)
		if err := uc.repo.User().UpdateLanguage(ctx, userID, language); err != nil {
			// Detection is cached opportunistically; the turn proceeds
			errutil.Handle(ctx, err, "failed to cache detected language")
		}
	}

	prompt, err := uc.buildContext(ctx, userID, language, text)
	if err != nil {
		return "", err
	}
	logger.Debug("turn state", "state", "context_built",
		"user_id", userID, "fragments", len(prompt), "size", prompt.Size())

	reply, err := uc.completeWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}
	logger.Debug("turn state", "state", "model_called", "user_id", userID)

	if _, _, err := uc.repo.Message().AppendPair(ctx, userID, text, reply); err != nil {
		return "", goerr.Wrap(err, "failed to persist exchange")
	}
	logger.Debug("turn state", "state", "persisted", "user_id", userID)

	if uc.syncSummarize {
		if err := uc.summarizer.Check(ctx, userID); err != nil {
			errutil.Handle(ctx, err, "summarization failed")
		}
	} else {
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.summarizer.Check(ctx, userID)
		})
	}

	logger.Debug("turn state", "state", "replied", "user_id", userID)
	return reply, nil
}

func (uc *ConversationUseCase) buildContext(ctx context.Context, userID types.UserID, language, incoming string) (model.Prompt, error) {
	summaries, err := uc.repo.Summary().List(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load summaries")
	}

	lastSeq, err := uc.repo.Message().LastSeq(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load last sequence")
	}

	var tail []*model.Message
	if lastSeq >= 0 {
		var from int64
		if len(summaries) > 0 {
			from = summaries[len(summaries)-1].RangeEnd + 1
		}
		tail, err = uc.repo.Message().Range(ctx, userID, from, lastSeq)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load unsummarized tail")
		}
	}

	system := uc.systemPrompt
	if language != "" {
		system += fmt.Sprintf("\nThe user's preferred language is %q. Reply in that language.\n", language)
	}

	return uc.assembler.Assemble(system, summaries, tail, incoming)
}

// completeWithRetry calls the model, retrying transient failures a
// small fixed number of times with exponential backoff.
func (uc *ConversationUseCase) completeWithRetry(ctx context.Context, prompt model.Prompt) (string, error) {
	logger := logging.From(ctx)

	var lastErr error
	for attempt := 0; attempt < uc.retryCount; attempt++ {
		if attempt > 0 {
			backoff := uc.retryBackoff << (attempt - 1)
			logger.Warn("retrying language model call",
				"attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", goerr.Wrap(ctx.Err(), "cancelled while waiting to retry",
					goerr.T(types.ErrTagUpstream))
			}
		}

		reply, err := uc.llm.Complete(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}

	return "", goerr.Wrap(ErrUpstreamUnavailable, "language model call exhausted retries",
		goerr.V("attempts", uc.retryCount),
		goerr.V("cause", lastErr.Error()),
	)
}

// detectLanguage asks the model for the ISO 639-1 code of the text.
// Any failure falls back to English; detection re-runs on the next turn
// only if the fallback was never cached.
func (uc *ConversationUseCase) detectLanguage(ctx context.Context, text string) string {
	var buf bytes.Buffer
	if err := detectLanguagePrompt.Execute(&buf, map[string]string{"Text": text}); err != nil {
		errutil.Handle(ctx, err, "failed to render language detection prompt")
		return fallbackLanguage
	}

	resp, err := uc.llm.Complete(ctx, model.Prompt{
		{Role: types.RoleUser, Text: buf.String()},
	})
	if err != nil {
		errutil.Handle(ctx, err, "language detection failed")
		return fallbackLanguage
	}

	code := strings.ToLower(strings.TrimSpace(resp))
	if !langCodePattern.MatchString(code) {
		logging.From(ctx).Warn("unusable language detection result", "result", resp)
		return fallbackLanguage
	}
	return code
}
