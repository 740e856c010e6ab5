package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/types"
)

// Summary is a condensed memory entry covering an inclusive range of
// message sequence numbers. Summaries are created by the summarizer only
// and never mutated. Ranges for a user are contiguous: each summary
// starts exactly where the previous summarized range ended.
type Summary struct {
	ID         types.SummaryID
	UserID     types.UserID
	Text       string
	RangeStart int64
	RangeEnd   int64
	CreatedAt  time.Time
}

// NewSummary creates a Summary for the given message range
func NewSummary(userID types.UserID, text string, start, end int64) *Summary {
	return &Summary{
		ID:         types.NewSummaryID(),
		UserID:     userID,
		Text:       text,
		RangeStart: start,
		RangeEnd:   end,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate checks the structural invariants of the Summary
func (s *Summary) Validate() error {
	if err := s.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "summary requires a user ID")
	}
	if s.Text == "" {
		return goerr.New("summary text cannot be empty", goerr.V("user_id", s.UserID))
	}
	if s.RangeStart < 0 {
		return goerr.New("summary range start must be non-negative",
			goerr.V("range_start", s.RangeStart))
	}
	if s.RangeEnd < s.RangeStart {
		return goerr.New("summary range end must not precede start",
			goerr.V("range_start", s.RangeStart),
			goerr.V("range_end", s.RangeEnd))
	}
	return nil
}
