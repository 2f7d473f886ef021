package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splithub/internal/models"
)

type fakeActivityStore struct {
	recorded []*models.Activity
	err      error
}

func (f *fakeActivityStore) RecordActivity(_ context.Context, a *models.Activity) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, a)
	return nil
}

func (f *fakeActivityStore) ListActivityForUser(context.Context, string, int) ([]*models.Activity, error) {
	return f.recorded, nil
}

func TestEventScoping(t *testing.T) {
	session := &models.Session{ID: "s1", GroupID: "g1"}
	e := New(TransactionAdded, "alice", "Alice added Dinner").ForSession(session)

	assert.NotEmpty(t, e.ID)
	assert.NotZero(t, e.OccurredAt)
	assert.Equal(t, "s1", e.SessionID)
	assert.Equal(t, "g1", e.GroupID)

	a := e.Activity()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, "transaction.added", a.Type)
	assert.Equal(t, "alice", a.ActorID)
	assert.Equal(t, e.OccurredAt, a.CreatedAt)
}

func TestUnmarshal(t *testing.T) {
	body, err := New(PaymentRecorded, "bob", "Bob paid Alice").ForGroup("g1").Marshal()
	require.NoError(t, err)

	e, err := Unmarshal(body)
	require.NoError(t, err)
	assert.Equal(t, PaymentRecorded, e.Type)
	assert.Equal(t, "g1", e.GroupID)

	_, err = Unmarshal([]byte(`{"type":"session.created"}`))
	assert.Error(t, err, "missing id")

	_, err = Unmarshal([]byte(`{not json`))
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	store := &fakeActivityStore{}
	r := NewRecorder(store)

	require.NoError(t, r.Publish(context.Background(), New(SessionCreated, "alice", "Alice created Lunch")))
	require.Len(t, store.recorded, 1)
	assert.Equal(t, "session.created", store.recorded[0].Type)

	store.err = errors.New("disk full")
	err := r.Publish(context.Background(), New(SessionCreated, "alice", "x"))
	assert.ErrorContains(t, err, "disk full")
}

func TestEmitSwallowsErrors(t *testing.T) {
	store := &fakeActivityStore{err: errors.New("boom")}
	assert.NotPanics(t, func() {
		Emit(context.Background(), NewRecorder(store), New(ItemClaimed, "alice", "x"))
		Emit(context.Background(), nil, New(ItemClaimed, "alice", "x"))
	})
}

func TestHandleDelivery(t *testing.T) {
	body, err := New(ItemClaimed, "alice", "Alice claimed Fries").Marshal()
	require.NoError(t, err)

	ok := func(context.Context, Event) error { return nil }
	fail := func(context.Context, Event) error { return errors.New("db locked") }

	tests := []struct {
		name    string
		body    []byte
		handler func(context.Context, Event) error
		want    outcome
	}{
		{"valid message is acked", body, ok, outcomeAck},
		{"malformed message is dropped", []byte("garbage"), ok, outcomeDrop},
		{"handler failure is requeued", body, fail, outcomeRequeue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handleDelivery(context.Background(), tt.body, tt.handler))
		})
	}
}
