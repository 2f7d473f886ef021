// Package events carries domain events from the RPC and REST handlers to the
// activity feed, either directly or through an AMQP queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splithub/internal/metrics"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
)

// Type names a domain event.
type Type string

const (
	SessionCreated     Type = "session.created"
	TransactionAdded   Type = "transaction.added"
	InvitationAccepted Type = "invitation.accepted"
	ItemClaimed        Type = "item.claimed"
	PaymentRecorded    Type = "payment.recorded"
)

// Event is the message published for every feed-worthy change.
type Event struct {
	ID         string `json:"id"`
	Type       Type   `json:"type"`
	ActorID    string `json:"actorId"`
	SessionID  string `json:"sessionId,omitempty"`
	GroupID    string `json:"groupId,omitempty"`
	Summary    string `json:"summary"`
	OccurredAt int64  `json:"occurredAt"`
}

// New returns an event with a fresh ID and the current time.
func New(t Type, actorID, summary string) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		ActorID:    actorID,
		Summary:    summary,
		OccurredAt: time.Now().Unix(),
	}
}

// ForSession scopes the event to a session and its group, if any.
func (e Event) ForSession(s *models.Session) Event {
	e.SessionID = s.ID
	e.GroupID = s.GroupID
	return e
}

// ForGroup scopes the event to a group.
func (e Event) ForGroup(groupID string) Event {
	e.GroupID = groupID
	return e
}

// Activity converts the event into a feed entry. The event ID is reused so
// redelivery does not duplicate the entry.
func (e Event) Activity() *models.Activity {
	return &models.Activity{
		ID:        e.ID,
		Type:      string(e.Type),
		ActorID:   e.ActorID,
		SessionID: e.SessionID,
		GroupID:   e.GroupID,
		Summary:   e.Summary,
		CreatedAt: e.OccurredAt,
	}
}

// Marshal encodes the event for the wire.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an event and rejects messages without an ID or type.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.ID == "" || e.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing id or type")
	}
	return e, nil
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit publishes e. Failures are logged and otherwise dropped.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	err := p.Publish(ctx, e)
	metrics.RecordEvent(string(e.Type), err)
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish event", "type", e.Type, "id", e.ID, "error", err)
	}
}

// Recorder writes events straight into the activity store. It is used when
// no broker is configured, and as the consumer-side handler.
type Recorder struct {
	store storage.ActivityStore
}

// NewRecorder returns a Recorder over store.
func NewRecorder(store storage.ActivityStore) *Recorder {
	return &Recorder{store: store}
}

// Publish implements Publisher.
func (r *Recorder) Publish(ctx context.Context, e Event) error {
	return r.Handle(ctx, e)
}

// Handle stores e as an activity entry.
func (r *Recorder) Handle(ctx context.Context, e Event) error {
	if err := r.store.RecordActivity(ctx, e.Activity()); err != nil {
		return fmt.Errorf("record activity %s: %w", e.ID, err)
	}
	return nil
}
