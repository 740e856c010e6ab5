package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
	"github.com/chatling/chatling/pkg/utils/logging"
)

//go:embed prompt/summarize.md
var summarizePromptTmpl string

var summarizePrompt = template.Must(template.New("summarize").Parse(summarizePromptTmpl))

// Summarizer keeps per-user history bounded without losing semantic
// continuity. After each persisted turn it checks whether enough
// unsummarized messages accumulated and, if so, condenses the oldest
// block into a Summary, always leaving a raw tail of keep messages.
//
// Summarization is best-effort: failures are logged and retried on the
// next qualifying turn, never surfaced to the user.
type Summarizer struct {
	repo      interfaces.Repository
	llm       interfaces.LanguageModel
	threshold int
	keep      int

	// Collapses concurrent checks for the same user so a range is
	// never read while another attempt is summarizing it
	group singleflight.Group
}

func newSummarizer(repo interfaces.Repository, llm interfaces.LanguageModel, threshold, keep int) *Summarizer {
	return &Summarizer{
		repo:      repo,
		llm:       llm,
		threshold: threshold,
		keep:      keep,
	}
}

// Check runs the trigger policy for the user. Re-running for a range
// that is already summarized is a no-op.
func (s *Summarizer) Check(ctx context.Context, userID types.UserID) error {
	_, err, _ := s.group.Do(userID.String(), func() (any, error) {
		return nil, s.run(ctx, userID)
	})
	return err
}

func (s *Summarizer) run(ctx context.Context, userID types.UserID) error {
	logger := logging.From(ctx)

	latest, err := s.repo.Summary().Latest(ctx, userID)
	if err != nil {
		return goerr.Wrap(err, "failed to load latest summary", goerr.T(types.ErrTagSummarization))
	}
	lastSeq, err := s.repo.Message().LastSeq(ctx, userID)
	if err != nil {
		return goerr.Wrap(err, "failed to load last sequence", goerr.T(types.ErrTagSummarization))
	}

	var start int64
	if latest != nil {
		start = latest.RangeEnd + 1
	}

	unsummarized := lastSeq - start + 1
	if unsummarized < int64(s.threshold) {
		return nil
	}

	// Condense the oldest block, leaving at least keep raw messages
	end := start + int64(s.threshold-s.keep) - 1

	block, err := s.repo.Message().Range(ctx, userID, start, end)
	if err != nil {
		return goerr.Wrap(err, "failed to load message block", goerr.T(types.ErrTagSummarization))
	}
	if len(block) == 0 {
		return nil
	}

	text, err := s.condense(ctx, block)
	if err != nil {
		return goerr.Wrap(err, "failed to condense message block",
			goerr.V("user_id", userID),
			goerr.V("range_start", start),
			goerr.V("range_end", end),
			goerr.T(types.ErrTagSummarization),
		)
	}

	summary := model.NewSummary(userID, text, start, end)
	if err := s.repo.Summary().Put(ctx, summary); err != nil {
		if errors.Is(err, interfaces.ErrSummaryConflict) {
			// Another attempt got there first
			logger.Debug("summary range already covered",
				"user_id", userID, "range_start", start)
			return nil
		}
		return goerr.Wrap(err, "failed to persist summary", goerr.T(types.ErrTagSummarization))
	}

	logger.Info("condensed conversation history",
		"user_id", userID,
		"range_start", start,
		"range_end", end,
		"messages", len(block),
	)
	return nil
}

func (s *Summarizer) condense(ctx context.Context, block []*model.Message) (string, error) {
	var transcript strings.Builder
	for _, m := range block {
		transcript.WriteString(m.Role.String())
		transcript.WriteString(": ")
		transcript.WriteString(m.Text)
		transcript.WriteString("\n")
	}

	var buf bytes.Buffer
	if err := summarizePrompt.Execute(&buf, map[string]string{
		"Transcript": transcript.String(),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render summarize prompt template")
	}

	text, err := s.llm.Complete(ctx, model.Prompt{
		{Role: types.RoleUser, Text: buf.String()},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", goerr.New("language model returned empty summary")
	}
	return text, nil
}
