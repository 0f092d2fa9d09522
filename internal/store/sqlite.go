package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/elevated-ai-works/assistant/internal/model"
)

// SQLiteStore implements LeadStore using modernc.org/sqlite. It also backs
// the chat client's session key/value state.
type SQLiteStore struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, nowFunc: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL,
	business     TEXT NOT NULL DEFAULT '',
	service      TEXT NOT NULL DEFAULT '',
	budget       TEXT NOT NULL DEFAULT '',
	timeline     TEXT NOT NULL DEFAULT '',
	notes        TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL,
	page_url     TEXT NOT NULL DEFAULT '',
	user_agent   TEXT NOT NULL DEFAULT '',
	relay_status TEXT NOT NULL DEFAULT 'pending',
	relay_error  TEXT NOT NULL DEFAULT '',
	relayed_at   DATETIME,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS session_kv (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (session_id, key)
);

CREATE INDEX IF NOT EXISTS idx_leads_relay_status ON leads(relay_status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLead(ctx context.Context, lead model.Lead) (string, error) {
	id := uuid.New().String()
	created := lead.CreatedAt
	if created.IsZero() {
		created = s.nowFunc()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, business, service, budget, timeline, notes, source, page_url, user_agent, relay_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, lead.Name, lead.Email, lead.Business, string(lead.Service), lead.Budget, lead.Timeline, lead.Notes,
		lead.Source, lead.PageURL, lead.UserAgent, string(model.RelayPending), created.UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert lead")
	}
	return id, nil
}

func (s *SQLiteStore) MarkRelay(ctx context.Context, id string, status model.RelayStatus, relayErr string) error {
	if !status.Valid() {
		return eris.Errorf("sqlite: invalid relay status %q", status)
	}

	var relayedAt any
	if status == model.RelaySent {
		relayedAt = s.nowFunc().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET relay_status = ?, relay_error = ?, relayed_at = ? WHERE id = ?`,
		string(status), relayErr, relayedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark relay %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadRecord, error) {
	query := `SELECT id, name, email, business, service, budget, timeline, notes, source, page_url, user_agent,
		relay_status, relay_error, relayed_at, created_at FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND relay_status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.LeadRecord
	for rows.Next() {
		var (
			r         model.LeadRecord
			relayedAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Business, &r.Service, &r.Budget, &r.Timeline, &r.Notes,
			&r.Source, &r.PageURL, &r.UserAgent, &r.RelayStatus, &r.RelayError, &relayedAt, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		if relayedAt.Valid {
			t := relayedAt.Time
			r.RelayedAt = &t
		}
		leads = append(leads, r)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
