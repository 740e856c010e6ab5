package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

type summaryRepository struct {
	mu        sync.RWMutex
	summaries map[types.UserID][]model.Summary
}

var _ interfaces.SummaryRepository = &summaryRepository{}

func newSummaryRepository() *summaryRepository {
	return &summaryRepository{
		summaries: make(map[types.UserID][]model.Summary),
	}
}

func (r *summaryRepository) Put(_ context.Context, summary *model.Summary) error {
	if err := summary.Validate(); err != nil {
		return goerr.Wrap(err, "invalid summary")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.summaries[summary.UserID]
	var expectedStart int64
	if len(existing) > 0 {
		expectedStart = existing[len(existing)-1].RangeEnd + 1
	}
	if summary.RangeStart != expectedStart {
		return goerr.Wrap(interfaces.ErrSummaryConflict, "range is not contiguous",
			goerr.V("user_id", summary.UserID),
			goerr.V("range_start", summary.RangeStart),
			goerr.V("expected_start", expectedStart),
		)
	}

	r.summaries[summary.UserID] = append(existing, *summary)
	return nil
}

func (r *summaryRepository) List(_ context.Context, id types.UserID) ([]*model.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Already ordered by range start: Put only appends contiguous ranges
	result := make([]*model.Summary, 0, len(r.summaries[id]))
	for _, s := range r.summaries[id] {
		copied := s
		result = append(result, &copied)
	}
	return result, nil
}

func (r *summaryRepository) Latest(_ context.Context, id types.UserID) (*model.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sums := r.summaries[id]
	if len(sums) == 0 {
		return nil, nil
	}
	copied := sums[len(sums)-1]
	return &copied, nil
}
