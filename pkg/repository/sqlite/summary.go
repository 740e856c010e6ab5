package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

type summaryRepository struct {
	client *Client
}

var _ interfaces.SummaryRepository = &summaryRepository{}

func (r *summaryRepository) Put(ctx context.Context, summary *model.Summary) error {
	if err := summary.Validate(); err != nil {
		return goerr.Wrap(err, "invalid summary")
	}

	r.client.writeMu.Lock()
	defer r.client.writeMu.Unlock()

	tx, err := r.client.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction", goerr.T(types.ErrTagStorage))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var expectedStart int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(range_end), -1) + 1 FROM summaries WHERE user_id = ?`,
		summary.UserID.String())
	if err := row.Scan(&expectedStart); err != nil {
		return goerr.Wrap(err, "failed to read latest summary range",
			goerr.V("user_id", summary.UserID), goerr.T(types.ErrTagStorage))
	}

	if summary.RangeStart != expectedStart {
		return goerr.Wrap(interfaces.ErrSummaryConflict, "range is not contiguous",
			goerr.V("user_id", summary.UserID),
			goerr.V("range_start", summary.RangeStart),
			goerr.V("expected_start", expectedStart),
		)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO summaries (id, user_id, text, range_start, range_end, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		summary.ID.String(), summary.UserID.String(), summary.Text,
		summary.RangeStart, summary.RangeEnd,
		summary.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return goerr.Wrap(err, "failed to insert summary",
			goerr.V("user_id", summary.UserID), goerr.T(types.ErrTagStorage))
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit summary",
			goerr.V("user_id", summary.UserID), goerr.T(types.ErrTagStorage))
	}
	return nil
}

func (r *summaryRepository) List(ctx context.Context, id types.UserID) ([]*model.Summary, error) {
	rows, err := r.client.db.QueryContext(ctx,
		`SELECT id, user_id, text, range_start, range_end, created_at FROM summaries
		 WHERE user_id = ? ORDER BY range_start ASC`,
		id.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query summaries",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	defer rows.Close() //nolint:errcheck

	var result []*model.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate summary rows", goerr.T(types.ErrTagStorage))
	}
	return result, nil
}

func (r *summaryRepository) Latest(ctx context.Context, id types.UserID) (*model.Summary, error) {
	rows, err := r.client.db.QueryContext(ctx,
		`SELECT id, user_id, text, range_start, range_end, created_at FROM summaries
		 WHERE user_id = ? ORDER BY range_start DESC LIMIT 1`,
		id.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query latest summary",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	defer rows.Close() //nolint:errcheck

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(err, "failed to read latest summary", goerr.T(types.ErrTagStorage))
		}
		return nil, nil
	}
	return scanSummary(rows)
}

func scanSummary(rows *sql.Rows) (*model.Summary, error) {
	var sid, uid, text, createdAt string
	var start, end int64
	if err := rows.Scan(&sid, &uid, &text, &start, &end, &createdAt); err != nil {
		return nil, goerr.Wrap(err, "failed to scan summary row", goerr.T(types.ErrTagStorage))
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid created_at in summaries table", goerr.T(types.ErrTagStorage))
	}
	return &model.Summary{
		ID:         types.SummaryID(sid),
		UserID:     types.UserID(uid),
		Text:       text,
		RangeStart: start,
		RangeEnd:   end,
		CreatedAt:  ts,
	}, nil
}
