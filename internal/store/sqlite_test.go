package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/conversation"
	"github.com/elevated-ai-works/assistant/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func lead(email string, created time.Time) model.Lead {
	return model.Lead{
		Name:      "Jane Doe",
		Email:     email,
		Service:   model.CategoryBranding,
		Budget:    "$2,000",
		Source:    model.LeadSource,
		PageURL:   "https://elevatedaiworks.com/",
		CreatedAt: created,
	}
}

func TestSQLite_SaveAndListLeads(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := st.SaveLead(ctx, lead("first@example.com", base))
	require.NoError(t, err)
	second, err := st.SaveLead(ctx, lead("second@example.com", base.Add(time.Hour)))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	leads, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, second, leads[0].ID, "newest first")
	assert.Equal(t, "second@example.com", leads[0].Email)
	assert.Equal(t, model.CategoryBranding, leads[0].Service)
	assert.Equal(t, model.RelayPending, leads[0].RelayStatus)
	assert.Nil(t, leads[0].RelayedAt)
	assert.True(t, leads[1].CreatedAt.Equal(base))
}

func TestSQLite_MarkRelay(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	relayed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st.nowFunc = func() time.Time { return relayed }

	sent, err := st.SaveLead(ctx, lead("sent@example.com", relayed.Add(-time.Minute)))
	require.NoError(t, err)
	failed, err := st.SaveLead(ctx, lead("failed@example.com", relayed.Add(-2*time.Minute)))
	require.NoError(t, err)

	require.NoError(t, st.MarkRelay(ctx, sent, model.RelaySent, ""))
	require.NoError(t, st.MarkRelay(ctx, failed, model.RelayFailed, "relay: unexpected status 500"))

	got, err := st.ListLeads(ctx, LeadFilter{Status: model.RelaySent})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sent, got[0].ID)
	require.NotNil(t, got[0].RelayedAt)
	assert.True(t, got[0].RelayedAt.Equal(relayed))

	got, err = st.ListLeads(ctx, LeadFilter{Status: model.RelayFailed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "relay: unexpected status 500", got[0].RelayError)
	assert.Nil(t, got[0].RelayedAt)
}

func TestSQLite_MarkRelay_Errors(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.MarkRelay(ctx, "missing", model.RelaySent, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")

	err = st.MarkRelay(ctx, "missing", model.RelayStatus("lost"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid relay status")
}

func TestSQLite_ListLeads_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := st.SaveLead(ctx, lead("l@example.com", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	got, err := st.ListLeads(ctx, LeadFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLite_SaveLead_DefaultsCreatedAt(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	st.nowFunc = func() time.Time { return now }

	_, err := st.SaveLead(ctx, lead("z@example.com", time.Time{}))
	require.NoError(t, err)

	got, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].CreatedAt.Equal(now))
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSessionKV(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	kv := st.Session("tab-1")

	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	_, ok, err = st.Session("tab-2").Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "sessions are isolated")

	require.NoError(t, kv.Remove(ctx, "k"))
	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionKV_BacksConversationStore(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	conv := conversation.NewStore(st.Session("tab-1"))

	msgs := []model.Message{conversation.Greeting(), model.UserMessage("Hi there")}
	require.NoError(t, conv.Save(ctx, msgs))
	require.NoError(t, conv.MarkLeadSubmitted(ctx))

	reopened := conversation.NewStore(st.Session("tab-1"))
	assert.Equal(t, msgs, reopened.Load(ctx))
	assert.True(t, reopened.LeadSubmitted(ctx))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = Open(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "leads.db")})
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck

	_, err = st.SaveLead(ctx, lead("open@example.com", time.Now()))
	assert.NoError(t, err)

	_, err = Open(ctx, config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)
}
