package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/elevated-ai-works/assistant/internal/conversation"
)

// SessionKV is a conversation.KV scoped to one chat session.
type SessionKV struct {
	store *SQLiteStore
	id    string
}

var _ conversation.KV = (*SessionKV)(nil)

// Session returns the key/value store for session id.
func (s *SQLiteStore) Session(id string) *SessionKV {
	return &SessionKV{store: s, id: id}
}

func (kv *SessionKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := kv.store.db.QueryRowContext(ctx,
		`SELECT value FROM session_kv WHERE session_id = ? AND key = ?`, kv.id, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get session key %s", key)
	}
	return v, true, nil
}

func (kv *SessionKV) Set(ctx context.Context, key, value string) error {
	_, err := kv.store.db.ExecContext(ctx,
		`INSERT INTO session_kv (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		kv.id, key, value, kv.store.nowFunc().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set session key %s", key)
}

func (kv *SessionKV) Remove(ctx context.Context, key string) error {
	_, err := kv.store.db.ExecContext(ctx,
		`DELETE FROM session_kv WHERE session_id = ? AND key = ?`, kv.id, key,
	)
	return eris.Wrapf(err, "sqlite: remove session key %s", key)
}
