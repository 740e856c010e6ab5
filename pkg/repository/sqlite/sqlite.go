package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	language   TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (user_id, seq)
);

CREATE TABLE IF NOT EXISTS summaries (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text        TEXT NOT NULL,
	range_start INTEGER NOT NULL,
	range_end   INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (user_id, range_start)
);
CREATE INDEX IF NOT EXISTS idx_summaries_user_start ON summaries(user_id, range_start);
`

// Client is the SQLite-backed repository. Writes are committed before
// the call returns; there is no buffering across process restarts.
type Client struct {
	db *sql.DB

	// Serializes sequence assignment and summary contiguity checks.
	// SQLite allows a single writer anyway; the mutex keeps the
	// read-then-insert sections atomic without busy-loop retries.
	writeMu sync.Mutex

	users    *userRepository
	messages *messageRepository
	summary  *summaryRepository
}

var _ interfaces.Repository = &Client{}

// New opens or creates the database at the given DSN and applies the
// schema. Use a file path DSN for durable storage.
func New(ctx context.Context, dsn string) (*Client, error) {
	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database",
			goerr.V("dsn", dsn), goerr.T(types.ErrTagStorage))
	}

	c := &Client{db: db}
	c.users = &userRepository{client: c}
	c.messages = &messageRepository{client: c}
	c.summary = &summaryRepository{client: c}

	if err := c.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

// Migrate applies the schema. It is idempotent.
func (c *Client) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return goerr.Wrap(err, "failed to apply schema", goerr.T(types.ErrTagStorage))
	}
	return nil
}

func (c *Client) User() interfaces.UserRepository {
	return c.users
}

func (c *Client) Message() interfaces.MessageRepository {
	return c.messages
}

func (c *Client) Summary() interfaces.SummaryRepository {
	return c.summary
}

func (c *Client) Close() error {
	if err := c.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close sqlite database")
	}
	return nil
}
