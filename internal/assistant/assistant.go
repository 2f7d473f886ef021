// Package assistant implements the AI chat and receipt narration features on
// top of a Generator, degrading to fixed fallback text when the model fails.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmynk/splithub/internal/ai"
	"github.com/mmynk/splithub/internal/cache"
	"github.com/mmynk/splithub/internal/calculator"
	"github.com/mmynk/splithub/internal/metrics"
	"github.com/mmynk/splithub/internal/models"
)

var (
	ErrEmptyMessage = errors.New("message cannot be empty")
	ErrForbidden    = errors.New("chat belongs to another user")
)

const (
	maxTitleRunes   = 40
	maxContextItems = 5
)

// Store is the storage the assistant needs.
type Store interface {
	CreateChat(ctx context.Context, chat *models.ChatSession) error
	GetChat(ctx context.Context, chatID string) (*models.ChatSession, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatID string, limit int) ([]*models.Message, error)
	ListSessionsForUser(ctx context.Context, userID string) ([]*models.Session, error)
}

// Assistant answers chat messages and narrates receipts.
type Assistant struct {
	store        Store
	gen          ai.Generator
	prompts      *ai.Prompts
	cache        cache.Cache
	cacheTTL     time.Duration
	historyLimit int
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithCache caches receipt summaries in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Assistant) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// WithHistoryLimit sets how many prior messages are sent to the model.
func WithHistoryLimit(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.historyLimit = n
		}
	}
}

// New returns an Assistant. The history limit defaults to 20 messages.
func New(store Store, gen ai.Generator, prompts *ai.Prompts, opts ...Option) *Assistant {
	a := &Assistant{
		store:        store,
		gen:          gen,
		prompts:      prompts,
		historyLimit: 20,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ChatReply is the outcome of one chat turn.
type ChatReply struct {
	ChatID   string `json:"chatId"`
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Chat appends message to the user's chat (creating one when chatID is
// empty) and returns the model's reply. Model failures yield the fallback
// reply, never an error; storage failures are returned.
func (a *Assistant) Chat(ctx context.Context, userID, chatID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := a.openChat(ctx, userID, chatID, message)
	if err != nil {
		return nil, err
	}

	prior, err := a.store.ListMessages(ctx, chat.ID, a.historyLimit)
	if err != nil {
		return nil, err
	}

	if err := a.store.AppendMessage(ctx, &models.Message{
		ChatID:  chat.ID,
		Role:    models.RoleUser,
		Content: message,
	}); err != nil {
		return nil, err
	}

	history := make([]ai.Turn, 0, len(prior))
	for _, m := range prior {
		history = append(history, ai.Turn{Role: m.Role, Text: m.Content})
	}

	system := a.prompts.ChatSystem
	if ctxLine := a.expenseContext(ctx, userID); ctxLine != "" {
		system += "\n\nExpense context:\n" + ctxLine
	}

	reply, err := a.gen.Generate(ctx, system, history, message)
	if err != nil {
		slog.ErrorContext(ctx, "Chat generation failed", "chat_id", chat.ID, "error", err)
		return &ChatReply{ChatID: chat.ID, Reply: a.prompts.ChatFallback, Fallback: true}, nil
	}

	if err := a.store.AppendMessage(ctx, &models.Message{
		ChatID:  chat.ID,
		Role:    models.RoleAssistant,
		Content: reply,
	}); err != nil {
		return nil, err
	}

	return &ChatReply{ChatID: chat.ID, Reply: reply}, nil
}

func (a *Assistant) openChat(ctx context.Context, userID, chatID, firstMessage string) (*models.ChatSession, error) {
	if chatID != "" {
		chat, err := a.store.GetChat(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if chat.UserID != userID {
			return nil, ErrForbidden
		}
		return chat, nil
	}

	chat := &models.ChatSession{UserID: userID, Title: chatTitle(firstMessage)}
	if err := a.store.CreateChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// expenseContext describes the user's open sessions, newest first.
// Lookup failures only cost the model some context.
func (a *Assistant) expenseContext(ctx context.Context, userID string) string {
	sessions, err := a.store.ListSessionsForUser(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load expense context", "user_id", userID, "error", err)
		return ""
	}

	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].UpdatedAt > sessions[j].UpdatedAt })

	var lines []string
	for _, s := range sessions {
		if s.Status == models.SessionSettled {
			continue
		}
		bal := calculator.RoundCents(calculator.SessionBalances(s)[userID])
		lines = append(lines, fmt.Sprintf("- %q: total %.2f %s across %d expenses, %d people, your balance %+.2f",
			s.Title, s.Total(), s.Currency, len(s.Transactions), len(s.Participants), bal))
		if len(lines) == maxContextItems {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func chatTitle(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(message) <= maxTitleRunes {
		return message
	}
	r := []rune(message)
	return string(r[:maxTitleRunes]) + "…"
}

// cached looks key up in the summary cache. A nil cache always misses.
func (a *Assistant) cached(ctx context.Context, key string) (string, bool) {
	if a.cache == nil {
		return "", false
	}
	v, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Cache lookup failed", "error", err)
	}
	metrics.RecordCacheLookup("receipt_summary", ok)
	return string(v), ok
}

func (a *Assistant) remember(ctx context.Context, key, value string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, []byte(value), a.cacheTTL); err != nil {
		slog.WarnContext(ctx, "Cache write failed", "error", err)
	}
}
