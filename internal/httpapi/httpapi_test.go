package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splithub/internal/ai"
	"github.com/mmynk/splithub/internal/assistant"
	"github.com/mmynk/splithub/internal/auth"
	"github.com/mmynk/splithub/internal/events"
	"github.com/mmynk/splithub/internal/invite"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/receipt"
	"github.com/mmynk/splithub/internal/storage/sqlite"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type fakeModel struct {
	reply string
	err   error
}

func (f *fakeModel) Generate(context.Context, string, []ai.Turn, string) (string, error) {
	return f.reply, f.err
}

func (f *fakeModel) GenerateWithImage(context.Context, string, string, []byte, string) (string, error) {
	return f.reply, f.err
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	store  *sqlite.SQLiteStore
	jwt    *auth.JWTManager
	model  *fakeModel
	tokens map[string]string
}

func newHarness(t *testing.T, limiter *middleware.RateLimiter) *harness {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	model := &fakeModel{reply: "ok"}
	prompts := ai.MustLoadPrompts()
	jwtManager := auth.NewJWTManager("httpapi-test-secret", time.Hour)

	s := New(Deps{
		Store:     store,
		Invites:   invite.NewService(store, events.NewRecorder(store), "https://split.example", 24*time.Hour),
		Scanner:   receipt.NewAIScanner(model, prompts.ReceiptOCR),
		Assistant: assistant.New(store, model, prompts),
		JWT:       jwtManager,
		Limiter:   limiter,
	})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})

	h := &harness{t: t, srv: srv, store: store, jwt: jwtManager, model: model, tokens: map[string]string{}}
	for _, id := range []string{"alice", "bob", "carol"} {
		token, err := jwtManager.Generate(&models.User{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
		h.tokens[id] = token
	}
	return h
}

// do sends a request as user (anonymous when user is empty) and decodes a JSON body into out.
func (h *harness) do(method, path, user string, body any, out any) int {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, reader)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req, user, out)
}

func (h *harness) upload(path, user, filename string, data []byte, out any) int {
	h.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(h.t, err)
	_, err = part.Write(data)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.send(req, user, out)
}

func (h *harness) send(req *http.Request, user string, out any) int {
	h.t.Helper()
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+h.tokens[user])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) session(creator string, participants ...string) *models.Session {
	h.t.Helper()
	s := &models.Session{
		Title:        "Brunch",
		CreatedBy:    creator,
		Participants: append([]string{creator}, participants...),
		Transactions: []models.Transaction{{
			ID: "t1", Description: "Brunch", Amount: 42, PaidBy: creator, SplitType: models.SplitEqual,
		}},
	}
	require.NoError(h.t, h.store.CreateSession(context.Background(), s))
	return s
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	var health map[string]string
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := http.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestInvitationFlow(t *testing.T) {
	h := newHarness(t, nil)
	session := h.session("alice")

	assert.Equal(t, http.StatusUnauthorized,
		h.do(http.MethodPost, "/api/invitations", "", map[string]any{"sessionId": session.ID}, nil))
	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/api/invitations", "alice", map[string]any{}, nil))
	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/api/invitations", "alice", map[string]any{"sessionId": "nope"}, nil))

	var errBody map[string]string
	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodPost, "/api/invitations", "bob", map[string]any{"sessionId": session.ID}, &errBody))
	assert.Equal(t, invite.ErrNotCreator.Error(), errBody["error"])

	var created invite.Created
	require.Equal(t, http.StatusCreated,
		h.do(http.MethodPost, "/api/invitations", "alice", map[string]any{"sessionId": session.ID, "ttlHours": 2}, &created))
	assert.Len(t, created.Code, invite.CodeLength)
	assert.Equal(t, "https://split.example/join/"+created.Code, created.Link)
	assert.InDelta(t, time.Now().Add(2*time.Hour).Unix(), created.ExpiresAt, 5)

	var v invite.Validation
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/invitations/"+strings.ToLower(created.Code), "", nil, &v))
	assert.True(t, v.Valid)
	assert.Equal(t, session.ID, v.SessionID)
	assert.Equal(t, "Brunch", v.SessionTitle)

	var accepted acceptInvitationResponse
	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/api/invitations/"+created.Code+"/accept", "bob", nil, &accepted))
	assert.Equal(t, []string{"alice", "bob"}, accepted.Participants)

	assert.Equal(t, http.StatusConflict,
		h.do(http.MethodPost, "/api/invitations/"+created.Code+"/accept", "carol", nil, nil))

	v = invite.Validation{}
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/invitations/"+created.Code, "", nil, &v))
	assert.False(t, v.Valid)
	assert.Equal(t, invite.ErrUsed.Error(), v.Reason)

	v = invite.Validation{}
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/invitations/ZZZZZZ", "", nil, &v))
	assert.False(t, v.Valid)
	assert.Equal(t, invite.ErrNotFound.Error(), v.Reason)

	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/api/invitations/ZZZZZZ/accept", "carol", nil, nil))

	// Accepting recorded an activity entry visible to the session's creator.
	var feed struct {
		Activity []*models.Activity `json:"activity"`
	}
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/activity", "alice", nil, &feed))
	require.Len(t, feed.Activity, 1)
	assert.Equal(t, string(events.InvitationAccepted), feed.Activity[0].Type)
	assert.Equal(t, "bob", feed.Activity[0].ActorID)
}

func TestReceiptEndpoints(t *testing.T) {
	h := newHarness(t, nil)

	var mock receipt.Receipt
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/receipts/mock-ocr", "", nil, &mock))
	assert.Equal(t, *receipt.Sample(), mock)

	assert.Equal(t, http.StatusUnauthorized, h.upload("/api/receipts/scan", "", "r.png", pngHeader, nil))

	h.model.reply = "```json\n" + `{"merchant":"Cafe","items":[{"name":"Latte","price":"$4.50","quantity":2}],"tax":0.45}` + "\n```"
	var scanned receipt.Receipt
	require.Equal(t, http.StatusOK, h.upload("/api/receipts/scan", "alice", "r.png", pngHeader, &scanned))
	assert.Equal(t, "Cafe", scanned.Merchant)
	require.Len(t, scanned.Items, 1)
	assert.Equal(t, 2, scanned.Items[0].Quantity)
	assert.Equal(t, 9.0, scanned.Subtotal)
	assert.Equal(t, 9.45, scanned.Total)

	tests := []struct {
		name   string
		data   []byte
		reply  string
		err    error
		status int
	}{
		{"not an image", []byte("hello, plain text"), "{}", nil, http.StatusBadRequest},
		{"unreadable answer", pngHeader, "I cannot read this", nil, http.StatusUnprocessableEntity},
		{"model disabled", pngHeader, "", ai.ErrDisabled, http.StatusServiceUnavailable},
		{"model failure", pngHeader, "", errors.New("upstream 500"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.model.reply, h.model.err = tt.reply, tt.err
			var body map[string]string
			assert.Equal(t, tt.status, h.upload("/api/receipts/scan", "alice", "r.bin", tt.data, &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestChatEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	h.model.reply = "You are owed $28."

	var reply assistant.ChatReply
	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/api/ai/chat", "alice", chatRequest{Message: "What am I owed?"}, &reply))
	assert.Equal(t, "You are owed $28.", reply.Reply)
	assert.False(t, reply.Fallback)
	require.NotEmpty(t, reply.ChatID)

	// Model failures still answer 200.
	h.model.err = errors.New("quota exceeded")
	var fallback assistant.ChatReply
	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/api/ai/chat", "alice", chatRequest{ChatID: reply.ChatID, Message: "And bob?"}, &fallback))
	assert.True(t, fallback.Fallback)
	assert.Equal(t, ai.MustLoadPrompts().ChatFallback, fallback.Reply)

	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/api/ai/chat", "alice", chatRequest{Message: "   "}, nil))
	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodPost, "/api/ai/chat", "bob", chatRequest{ChatID: reply.ChatID, Message: "hi"}, nil))
	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/api/ai/chat", "alice", chatRequest{ChatID: "missing", Message: "hi"}, nil))

	var list struct {
		Chats []*models.ChatSession `json:"chats"`
	}
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/ai/chats", "alice", nil, &list))
	require.Len(t, list.Chats, 1)
	assert.Equal(t, "What am I owed?", list.Chats[0].Title)

	var history chatResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/ai/chats/"+reply.ChatID, "alice", nil, &history))
	// The fallback reply is not stored.
	require.Len(t, history.Messages, 3)
	assert.Equal(t, models.RoleUser, history.Messages[2].Role)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/ai/chats/"+reply.ChatID, "bob", nil, nil))
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/api/ai/chats/"+reply.ChatID, "bob", nil, nil))
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/ai/chats/"+reply.ChatID, "alice", nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/ai/chats/"+reply.ChatID, "alice", nil, nil))
}

func TestReceiptSummary(t *testing.T) {
	h := newHarness(t, nil)
	session := h.session("alice", "bob")

	h.model.reply = "Brunch came to $42, split two ways."
	var out summaryResponse
	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/api/ai/receipt-summary", "bob", map[string]any{"sessionId": session.ID}, &out))
	assert.Equal(t, "Brunch came to $42, split two ways.", out.Summary)

	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodPost, "/api/ai/receipt-summary", "carol", map[string]any{"sessionId": session.ID}, nil))
	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/api/ai/receipt-summary", "carol", map[string]any{"sessionId": "nope"}, nil))
	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/api/ai/receipt-summary", "carol", map[string]any{}, nil))

	h.model.err = errors.New("model down")
	out = summaryResponse{}
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/ai/receipt-summary", "carol", map[string]any{
		"items": []map[string]any{
			{"name": "Tacos", "price": 12, "quantity": 1},
			{"name": "Horchata", "price": 4, "quantity": 2},
		},
		"tax": 2,
	}, &out))
	assert.Equal(t, "Here's your bill: $22.00 across 2 items.", out.Summary)
}

func TestActivityLimit(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, h.store.RecordActivity(ctx, &models.Activity{
			Type: "payment.recorded", ActorID: "alice", Summary: "paid", CreatedAt: int64(100 + i),
		}))
	}

	var feed struct {
		Activity []*models.Activity `json:"activity"`
	}
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/activity?limit=2", "alice", nil, &feed))
	require.Len(t, feed.Activity, 2)
	assert.Equal(t, int64(102), feed.Activity[0].CreatedAt)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/activity?limit=zero", "alice", nil, nil))

	feed.Activity = nil
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/activity", "bob", nil, &feed))
	assert.Empty(t, feed.Activity)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, middleware.NewRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/ai/chat", "alice", chatRequest{Message: "one"}, nil))
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/api/ai/chat", "alice", chatRequest{Message: "two"}, nil))

	// Limits are per user.
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/ai/chat", "bob", chatRequest{Message: "one"}, nil))

	// Unlimited routes are unaffected.
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/ai/chats", "alice", nil, nil))

	// Anonymous mock OCR is keyed by IP; a signed-in caller gets their own bucket.
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/receipts/mock-ocr", "", nil, nil))
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/api/receipts/mock-ocr", "", nil, nil))
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/receipts/mock-ocr", "carol", nil, nil))
}
