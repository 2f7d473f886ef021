// Package invite issues and redeems short single-use session join codes.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/mmynk/splithub/internal/events"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
)

const (
	// Alphabet omits 0/O and 1/I so codes survive being read aloud.
	Alphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength = 6

	// MaxTTL caps how long any invitation stays valid.
	MaxTTL = 7 * 24 * time.Hour

	maxAttempts = 5
)

var (
	ErrNotFound           = errors.New("invitation not found")
	ErrExpired            = errors.New("invitation expired")
	ErrUsed               = errors.New("invitation already used")
	ErrAlreadyParticipant = errors.New("already a participant")
	ErrNotCreator         = errors.New("only the session creator can invite")
	ErrCodeSpace          = errors.New("could not generate a unique invitation code")
)

// Store is the storage the service needs.
type Store interface {
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	FindSessionByInviteCode(ctx context.Context, code string) (*models.Session, error)
	AddGroupMembers(ctx context.Context, groupID string, members []string) error
}

// Created is returned after issuing a code.
type Created struct {
	Code      string `json:"code"`
	Link      string `json:"link"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Validation describes whether a code can still be redeemed.
type Validation struct {
	Valid        bool   `json:"valid"`
	SessionID    string `json:"sessionId,omitempty"`
	SessionTitle string `json:"sessionTitle,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Service creates, validates and accepts invitations.
type Service struct {
	store      Store
	publisher  events.Publisher
	baseURL    string
	defaultTTL time.Duration
	now        func() time.Time
	randCode   func() (string, error)
}

// NewService returns an invitation service. defaultTTL is capped at MaxTTL.
func NewService(store Store, publisher events.Publisher, baseURL string, defaultTTL time.Duration) *Service {
	return &Service{
		store:      store,
		publisher:  publisher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		defaultTTL: clampTTL(defaultTTL),
		now:        time.Now,
		randCode:   GenerateCode,
	}
}

// GenerateCode returns a random code drawn from Alphabet.
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(CodeLength)
	limit := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		sb.WriteByte(Alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Normalize upper-cases a user-typed code and strips whitespace.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Link builds the shareable join URL for a code.
func (s *Service) Link(code string) string {
	return s.baseURL + "/join/" + code
}

// Create issues a new code for sessionID. Only the session creator may invite.
// A zero ttl uses the default.
func (s *Service) Create(ctx context.Context, userID, sessionID string, ttl time.Duration) (*Created, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatedBy != userID {
		return nil, ErrNotCreator
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	ttl = clampTTL(ttl)

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := models.Invitation{
		Code:      code,
		SessionID: session.ID,
		CreatedBy: userID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	session.Invitations = append(session.Invitations, inv)
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save invitation: %w", err)
	}

	slog.Info("Invitation created", "session_id", session.ID, "expires_at", inv.ExpiresAt)
	return &Created{Code: code, Link: s.Link(code), ExpiresAt: inv.ExpiresAt}, nil
}

func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := s.randCode()
		if err != nil {
			return "", err
		}
		_, err = s.store.FindSessionByInviteCode(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check invitation code: %w", err)
		}
		slog.Debug("Invitation code collision", "attempt", attempt+1)
	}
	return "", ErrCodeSpace
}

// lookup returns the session and the index of the invitation for code.
func (s *Service) lookup(ctx context.Context, code string) (*models.Session, int, error) {
	session, err := s.store.FindSessionByInviteCode(ctx, Normalize(code))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, -1, ErrNotFound
	}
	if err != nil {
		return nil, -1, err
	}
	idx := session.FindInvitation(Normalize(code))
	if idx < 0 {
		return nil, -1, ErrNotFound
	}
	return session, idx, nil
}

func (s *Service) check(inv models.Invitation) error {
	if inv.Used() {
		return ErrUsed
	}
	if inv.Expired(s.now()) {
		return ErrExpired
	}
	return nil
}

// Validate reports whether code is redeemable. Unknown, expired and used
// codes are not errors: they come back with Valid false and a reason.
func (s *Service) Validate(ctx context.Context, code string) (*Validation, error) {
	session, idx, err := s.lookup(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return &Validation{Valid: false, Reason: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	inv := session.Invitations[idx]
	v := &Validation{
		SessionID:    session.ID,
		SessionTitle: session.Title,
		ExpiresAt:    inv.ExpiresAt,
	}
	if err := s.check(inv); err != nil {
		v.Reason = err.Error()
		return v, nil
	}
	v.Valid = true
	return v, nil
}

// Accept redeems code for userID, adding them to the session and its group.
func (s *Service) Accept(ctx context.Context, userID, code string) (*models.Session, error) {
	session, idx, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.check(session.Invitations[idx]); err != nil {
		return nil, err
	}
	if session.HasParticipant(userID) {
		return nil, ErrAlreadyParticipant
	}

	now := s.now().Unix()
	session.Participants = append(session.Participants, userID)
	session.Invitations[idx].UsedBy = userID
	session.Invitations[idx].UsedAt = now

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	if session.GroupID != "" {
		if err := s.store.AddGroupMembers(ctx, session.GroupID, []string{userID}); err != nil {
			// The session join stands even if the group update fails.
			slog.Warn("Failed to add invitee to group", "group_id", session.GroupID, "user_id", userID, "error", err)
		}
	}

	events.Emit(ctx, s.publisher, events.New(events.InvitationAccepted, userID,
		fmt.Sprintf("joined %q", session.Title)).ForSession(session))

	slog.Info("Invitation accepted", "session_id", session.ID, "user_id", userID)
	return session, nil
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl > MaxTTL {
		return MaxTTL
	}
	return ttl
}
