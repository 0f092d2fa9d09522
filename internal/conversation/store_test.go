package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elevated-ai-works/assistant/internal/model"
)

type mockKV struct {
	mock.Mock
}

func (m *mockKV) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockKV) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *mockKV) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestLoad_Empty(t *testing.T) {
	s := NewStore(NewMemoryKV())
	msgs := s.Load(context.Background())
	require.Len(t, msgs, 1)
	assert.Equal(t, Greeting(), msgs[0])
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryKV())

	cta := model.ContactCTA
	history := []model.Message{
		Greeting(),
		model.UserMessage("how much for a site?"),
		{Role: model.RoleAssistant, Content: "range", Bullets: []string{"a", "b"}, CTA: &cta},
	}
	require.NoError(t, s.Save(ctx, history))
	assert.Equal(t, history, s.Load(ctx))
}

func TestLoad_DropsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStore(kv)

	require.NoError(t, s.Save(ctx, []model.Message{
		model.UserMessage("hello"),
		model.AssistantMessage("hi"),
	}))

	// Inject a message with no content next to the valid ones.
	raw, _, _ := kv.Get(ctx, HistoryKey)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	items = append(items, map[string]any{"role": "user"})
	b, _ := json.Marshal(items)
	require.NoError(t, kv.Set(ctx, HistoryKey, string(b)))

	msgs := s.Load(ctx)
	assert.Equal(t, []model.Message{
		model.UserMessage("hello"),
		model.AssistantMessage("hi"),
	}, msgs)
}

func TestLoad_ValidationRules(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStore(kv)

	raw := `[
		{"role":"system","content":"secret prompt"},
		{"role":"tool","content":"x"},
		{"role":"user","content":42},
		{"role":"user","content":null},
		{"role":"assistant","content":"bad bullets","bullets":["ok",1]},
		{"role":"assistant","content":"bullets not array","bullets":"x"},
		{"role":"assistant","content":"bad cta","cta":{"label":"Go"}},
		{"role":"assistant","content":"cta wrong type","cta":{"label":"Go","to":5}},
		"just a string",
		{"role":"assistant","content":"null extras","bullets":null,"cta":null},
		{"role":"user","content":"kept"}
	]`
	require.NoError(t, kv.Set(ctx, HistoryKey, raw))

	assert.Equal(t, []model.Message{
		model.AssistantMessage("null extras"),
		model.UserMessage("kept"),
	}, s.Load(ctx))
}

func TestLoad_AllInvalidFallsBackToGreeting(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, HistoryKey, `[{"role":"system","content":"x"}]`))

	assert.Equal(t, []model.Message{Greeting()}, NewStore(kv).Load(ctx))
}

func TestLoad_UnparsableFallsBackToGreeting(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, HistoryKey, `{not json`))

	assert.Equal(t, []model.Message{Greeting()}, NewStore(kv).Load(ctx))
}

func TestLoad_ReadErrorFallsBackToGreeting(t *testing.T) {
	kv := new(mockKV)
	kv.On("Get", mock.Anything, HistoryKey).Return("", false, errors.New("disk gone"))

	assert.Equal(t, []model.Message{Greeting()}, NewStore(kv).Load(context.Background()))
	kv.AssertExpectations(t)
}

func TestSave_Error(t *testing.T) {
	kv := new(mockKV)
	kv.On("Set", mock.Anything, HistoryKey, mock.Anything).Return(errors.New("quota exceeded"))

	err := NewStore(kv).Save(context.Background(), []model.Message{Greeting()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversation: save history")
}

func TestClear_KeepsLeadFlag(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryKV())

	require.NoError(t, s.Save(ctx, []model.Message{model.UserMessage("hi")}))
	require.NoError(t, s.MarkLeadSubmitted(ctx))

	msgs, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{Greeting()}, msgs)
	assert.Equal(t, []model.Message{Greeting()}, s.Load(ctx))
	assert.True(t, s.LeadSubmitted(ctx))
}

func TestLeadSubmitted(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryKV())

	assert.False(t, s.LeadSubmitted(ctx))
	require.NoError(t, s.MarkLeadSubmitted(ctx))
	assert.True(t, s.LeadSubmitted(ctx))
}

func TestLeadSubmitted_ReadError(t *testing.T) {
	kv := new(mockKV)
	kv.On("Get", mock.Anything, LeadSubmittedKey).Return("", false, errors.New("boom"))
	assert.False(t, NewStore(kv).LeadSubmitted(context.Background()))
}

func TestMemoryKV_ZeroValue(t *testing.T) {
	ctx := context.Background()
	var kv MemoryKV

	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v"))
	v, ok, _ := kv.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, kv.Remove(ctx, "k"))
	_, ok, _ = kv.Get(ctx, "k")
	assert.False(t, ok)
}
