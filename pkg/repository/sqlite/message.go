package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

type messageRepository struct {
	client *Client
}

var _ interfaces.MessageRepository = &messageRepository{}

// appendTx inserts one message with the next sequence number. The caller
// holds the client write mutex and owns the transaction.
func appendTx(ctx context.Context, tx *sql.Tx, id types.UserID, role types.Role, text string) (*model.Message, error) {
	var next int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE user_id = ?`, id.String())
	if err := row.Scan(&next); err != nil {
		return nil, goerr.Wrap(err, "failed to read next sequence",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}

	msg := &model.Message{
		UserID:    id,
		Seq:       next,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (user_id, seq, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), msg.Seq, role.String(), text, msg.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return nil, goerr.Wrap(err, "failed to insert message",
			goerr.V("user_id", id), goerr.V("seq", next), goerr.T(types.ErrTagStorage))
	}

	return msg, nil
}

func (r *messageRepository) Append(ctx context.Context, id types.UserID, role types.Role, text string) (*model.Message, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	r.client.writeMu.Lock()
	defer r.client.writeMu.Unlock()

	tx, err := r.client.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction", goerr.T(types.ErrTagStorage))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	msg, err := appendTx(ctx, tx, id, role, text)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit message",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	return msg, nil
}

func (r *messageRepository) AppendPair(ctx context.Context, id types.UserID, userText, agentText string) (*model.Message, *model.Message, error) {
	r.client.writeMu.Lock()
	defer r.client.writeMu.Unlock()

	tx, err := r.client.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to begin transaction", goerr.T(types.ErrTagStorage))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	inbound, err := appendTx(ctx, tx, id, types.RoleUser, userText)
	if err != nil {
		return nil, nil, err
	}
	reply, err := appendTx(ctx, tx, id, types.RoleAgent, agentText)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to commit message pair",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	return inbound, reply, nil
}

func scanMessages(rows *sql.Rows) ([]*model.Message, error) {
	var result []*model.Message
	for rows.Next() {
		var uid, role, text, createdAt string
		var seq int64
		if err := rows.Scan(&uid, &seq, &role, &text, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message row", goerr.T(types.ErrTagStorage))
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid created_at in messages table",
				goerr.V("seq", seq), goerr.T(types.ErrTagStorage))
		}
		result = append(result, &model.Message{
			UserID:    types.UserID(uid),
			Seq:       seq,
			Role:      types.Role(role),
			Text:      text,
			CreatedAt: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate message rows", goerr.T(types.ErrTagStorage))
	}
	return result, nil
}

func (r *messageRepository) Recent(ctx context.Context, id types.UserID, limit int) ([]*model.Message, error) {
	rows, err := r.client.db.QueryContext(ctx,
		`SELECT user_id, seq, role, text, created_at FROM (
			SELECT * FROM messages WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`,
		id.String(), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query recent messages",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	defer rows.Close() //nolint:errcheck

	return scanMessages(rows)
}

func (r *messageRepository) Range(ctx context.Context, id types.UserID, from, to int64) ([]*model.Message, error) {
	rows, err := r.client.db.QueryContext(ctx,
		`SELECT user_id, seq, role, text, created_at FROM messages
		 WHERE user_id = ? AND seq BETWEEN ? AND ? ORDER BY seq ASC`,
		id.String(), from, to)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query message range",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	defer rows.Close() //nolint:errcheck

	return scanMessages(rows)
}

func (r *messageRepository) LastSeq(ctx context.Context, id types.UserID) (int64, error) {
	var last int64
	row := r.client.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) FROM messages WHERE user_id = ?`, id.String())
	if err := row.Scan(&last); err != nil {
		return -1, goerr.Wrap(err, "failed to read last sequence",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	return last, nil
}
