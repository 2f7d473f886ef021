// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splithub/internal/models"
)

// ErrNotFound is returned (wrapped) when a record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and their members.
type GroupStore interface {
	// CreateGroup populates group.ID and group.CreatedAt when empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, groupID string) error
	AddGroupMembers(ctx context.Context, groupID string, members []string) error
}

// SessionStore persists split-bill sessions as whole documents.
// Transactions and invitations are saved together with their session.
type SessionStore interface {
	// CreateSession populates ID and timestamps when empty.
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	ListSessionsForUser(ctx context.Context, userID string) ([]*models.Session, error)
	ListSessionsByGroup(ctx context.Context, groupID string) ([]*models.Session, error)
	// SaveSession overwrites the stored document (last write wins).
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, sessionID string) error

	// FindSessionByInviteCode returns the session holding the invitation code.
	FindSessionByInviteCode(ctx context.Context, code string) (*models.Session, error)
	// PurgeExpiredInvitations removes invitations that expired before the
	// given Unix time and returns how many were removed.
	PurgeExpiredInvitations(ctx context.Context, before int64) (int, error)
}

// PaymentStore persists settle-up payments.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)
	DeletePayment(ctx context.Context, paymentID string) error
}

// SubscriptionStore persists recurring bills.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscription(ctx context.Context, subID string) (*models.Subscription, error)
	ListSubscriptionsForUser(ctx context.Context, userID string) ([]*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, subID string) error
	// ListDueSubscriptions returns active subscriptions whose next billing
	// date is at or before the given Unix time.
	ListDueSubscriptions(ctx context.Context, before int64) ([]*models.Subscription, error)
}

// ChatStore persists AI assistant conversations.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *models.ChatSession) error
	GetChat(ctx context.Context, chatID string) (*models.ChatSession, error)
	ListChats(ctx context.Context, userID string) ([]*models.ChatSession, error)
	DeleteChat(ctx context.Context, chatID string) error
	AppendMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns the last limit messages in chronological order.
	// A limit <= 0 returns all messages.
	ListMessages(ctx context.Context, chatID string, limit int) ([]*models.Message, error)
}

// ActivityStore persists the social feed.
type ActivityStore interface {
	RecordActivity(ctx context.Context, activity *models.Activity) error
	// ListActivityForUser returns entries the user acted on or that touch
	// one of their sessions or groups, newest first.
	ListActivityForUser(ctx context.Context, userID string, limit int) ([]*models.Activity, error)
}

// Store defines the full storage surface.
// This abstraction allows swapping storage backends without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	SessionStore
	PaymentStore
	SubscriptionStore
	ChatStore
	ActivityStore

	// Close releases any resources held by the store.
	Close() error
}
