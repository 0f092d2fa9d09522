package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/elevated-ai-works/assistant/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements LeadStore using pgxpool.
type PostgresStore struct {
	pool    Pool
	nowFunc func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(5)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, nowFunc: time.Now}, nil
}

const postgresMigration = `
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
	relayed_at   TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_relay_status ON leads(relay_status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveLead(ctx context.Context, lead model.Lead) (string, error) {
	id := uuid.New().String()
	created := lead.CreatedAt
	if created.IsZero() {
		created = s.nowFunc()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, name, email, business, service, budget, timeline, notes, source, page_url, user_agent, relay_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, lead.Name, lead.Email, lead.Business, string(lead.Service), lead.Budget, lead.Timeline, lead.Notes,
		lead.Source, lead.PageURL, lead.UserAgent, string(model.RelayPending), created.UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert lead")
	}
	return id, nil
}

func (s *PostgresStore) MarkRelay(ctx context.Context, id string, status model.RelayStatus, relayErr string) error {
	if !status.Valid() {
		return eris.Errorf("postgres: invalid relay status %q", status)
	}

	var relayedAt *time.Time
	if status == model.RelaySent {
		now := s.nowFunc().UTC()
		relayedAt = &now
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET relay_status = $1, relay_error = $2, relayed_at = $3 WHERE id = $4`,
		string(status), relayErr, relayedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark relay %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadRecord, error) {
	query := `SELECT id, name, email, business, service, budget, timeline, notes, source, page_url, user_agent,
		relay_status, relay_error, relayed_at, created_at FROM leads`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` WHERE relay_status = $1`
	}
	args = append(args, filter.limit())
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.LeadRecord
	for rows.Next() {
		var (
			r                    model.LeadRecord
			service, relayStatus string
			relayedAt            sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Business, &service, &r.Budget, &r.Timeline, &r.Notes,
			&r.Source, &r.PageURL, &r.UserAgent, &relayStatus, &r.RelayError, &relayedAt, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		r.Service = model.Category(service)
		r.RelayStatus = model.RelayStatus(relayStatus)
		if relayedAt.Valid {
			t := relayedAt.Time
			r.RelayedAt = &t
		}
		leads = append(leads, r)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}
