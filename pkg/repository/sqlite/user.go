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

type userRepository struct {
	client *Client
}

var _ interfaces.UserRepository = &userRepository{}

func (r *userRepository) GetOrCreate(ctx context.Context, id types.UserID) (*model.User, error) {
	user := model.NewUser(id)
	_, err := r.client.db.ExecContext(ctx,
		`INSERT INTO users (id, language, created_at) VALUES (?, '', ?)
		 ON CONFLICT (id) DO NOTHING`,
		id.String(), user.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create user",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}

	got, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, goerr.New("user missing after insert",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	return got, nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	row := r.client.db.QueryRowContext(ctx,
		`SELECT id, language, created_at FROM users WHERE id = ?`, id.String())

	var uid, language, createdAt string
	if err := row.Scan(&uid, &language, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get user",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid created_at in users table",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}

	return &model.User{
		ID:        types.UserID(uid),
		Language:  language,
		CreatedAt: ts,
	}, nil
}

func (r *userRepository) UpdateLanguage(ctx context.Context, id types.UserID, language string) error {
	res, err := r.client.db.ExecContext(ctx,
		`UPDATE users SET language = ? WHERE id = ?`, language, id.String())
	if err != nil {
		return goerr.Wrap(err, "failed to update user language",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.New("user not found",
			goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	return nil
}
