package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splithub/internal/ai"
	"github.com/mmynk/splithub/internal/cache"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
	"github.com/mmynk/splithub/internal/storage/sqlite"
)

type stubGenerator struct {
	reply   string
	err     error
	calls   int
	system  string
	history []ai.Turn
	prompt  string
}

func (s *stubGenerator) Generate(_ context.Context, system string, history []ai.Turn, prompt string) (string, error) {
	s.calls++
	s.system, s.history, s.prompt = system, history, prompt
	return s.reply, s.err
}

func (s *stubGenerator) GenerateWithImage(context.Context, string, string, []byte, string) (string, error) {
	return "", errors.New("not used")
}

func newTestAssistant(t *testing.T, gen ai.Generator, opts ...Option) (*Assistant, *sqlite.SQLiteStore) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "assistant.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, gen, ai.MustLoadPrompts(), opts...), store
}

func TestChat_NewConversation(t *testing.T) {
	gen := &stubGenerator{reply: "Bob owes you $15."}
	a, store := newTestAssistant(t, gen)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, &models.Session{
		Title:        "Pizza night",
		CreatedBy:    "alice",
		Participants: []string{"alice", "bob"},
		Transactions: []models.Transaction{{ID: "t1", Amount: 30, PaidBy: "alice", SplitType: models.SplitEqual}},
	}))

	reply, err := a.Chat(ctx, "alice", "", "  Who owes me money for pizza night and everything else?  ")
	require.NoError(t, err)
	assert.False(t, reply.Fallback)
	assert.Equal(t, "Bob owes you $15.", reply.Reply)
	assert.Empty(t, gen.history)
	assert.Contains(t, gen.system, `"Pizza night": total 30.00 USD`)
	assert.Contains(t, gen.system, "your balance +15.00")

	chat, err := store.GetChat(ctx, reply.ChatID)
	require.NoError(t, err)
	assert.Equal(t, "alice", chat.UserID)
	assert.Equal(t, "Who owes me money for pizza night and ev…", chat.Title)

	msgs, err := store.ListMessages(ctx, reply.ChatID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func TestChat_HistoryLimit(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	a, _ := newTestAssistant(t, gen, WithHistoryLimit(3))
	ctx := context.Background()

	first, err := a.Chat(ctx, "alice", "", "one")
	require.NoError(t, err)
	for _, m := range []string{"two", "three"} {
		_, err := a.Chat(ctx, "alice", first.ChatID, m)
		require.NoError(t, err)
	}

	require.Len(t, gen.history, 3)
	assert.Equal(t, "ok", gen.history[0].Text)
	assert.Equal(t, "two", gen.history[1].Text)
	assert.Equal(t, models.RoleAssistant, gen.history[2].Role)
	assert.Equal(t, "three", gen.prompt)
}

func TestChat_Fallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	a, store := newTestAssistant(t, gen)
	ctx := context.Background()

	reply, err := a.Chat(ctx, "alice", "", "hello")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, "Sorry, I'm having trouble answering right now. Please try again later.", reply.Reply)

	msgs, err := store.ListMessages(ctx, reply.ChatID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "fallback replies are not stored")
}

func TestChat_Errors(t *testing.T) {
	a, _ := newTestAssistant(t, &stubGenerator{reply: "hi"})
	ctx := context.Background()

	_, err := a.Chat(ctx, "alice", "", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = a.Chat(ctx, "alice", "missing", "hi")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	own, err := a.Chat(ctx, "alice", "", "hi")
	require.NoError(t, err)
	_, err = a.Chat(ctx, "mallory", own.ChatID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReceiptSummary(t *testing.T) {
	in := SummaryInput{
		Title: "Brunch",
		Items: []models.ReceiptItem{
			{Name: "Pancakes", Price: 12, Quantity: 1, Participants: []string{"alice"}},
			{Name: "Coffee", Price: 3.5, Quantity: 2},
		},
		Tax: 1.5,
	}

	t.Run("cached after the first call", func(t *testing.T) {
		gen := &stubGenerator{reply: "A cosy brunch."}
		a, _ := newTestAssistant(t, gen, WithCache(cache.NewMemory(16, time.Hour), time.Hour))

		assert.Equal(t, "A cosy brunch.", a.ReceiptSummary(context.Background(), in))
		assert.Equal(t, "A cosy brunch.", a.ReceiptSummary(context.Background(), in))
		assert.Equal(t, 1, gen.calls)
		assert.Contains(t, gen.prompt, "- Coffee x2: $7.00\n")
		assert.Contains(t, gen.prompt, "Unclaimed: Coffee")
		assert.Contains(t, gen.prompt, "Total: $20.50")
	})

	t.Run("fallback is not cached", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("down")}
		a, _ := newTestAssistant(t, gen, WithCache(cache.NewMemory(16, time.Hour), time.Hour))

		out := a.ReceiptSummary(context.Background(), in)
		assert.Equal(t, "Here's your bill: $20.50 across 2 items.", out)

		gen.err, gen.reply = nil, "Back online."
		assert.Equal(t, "Back online.", a.ReceiptSummary(context.Background(), in))
		assert.Equal(t, 2, gen.calls)
	})
}

func TestSummaryFromSession(t *testing.T) {
	s := &models.Session{
		Title:    "Trip",
		Currency: "EUR",
		Transactions: []models.Transaction{
			{Description: "Taxi", Amount: 20, SplitType: models.SplitEqual},
			{Amount: 11, SplitType: models.SplitItemized, Tax: 1, Items: []models.ReceiptItem{
				{Name: "Wine", Price: 10, Quantity: 1, Participants: []string{"a"}},
			}},
		},
	}
	in := SummaryFromSession(s)
	require.Len(t, in.Items, 2)
	assert.Equal(t, "Taxi", in.Items[0].Name)
	assert.Equal(t, 31.0, in.Total)
	assert.True(t, strings.HasPrefix(in.prompt(), "Bill: Trip\n"))
	assert.Contains(t, in.prompt(), "Total: 31.00 EUR")
}
