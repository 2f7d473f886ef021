package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splithub/internal/models"
)

const sessionColumns = `s.id, s.title, s.group_id, s.created_by, s.participants, s.currency,
	s.status, s.transactions, s.invitations, s.created_at, s.updated_at`

type sessionRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	GroupID      sql.NullString `db:"group_id"`
	CreatedBy    string         `db:"created_by"`
	Participants string         `db:"participants"`
	Currency     string         `db:"currency"`
	Status       string         `db:"status"`
	Transactions string         `db:"transactions"`
	Invitations  string         `db:"invitations"`
	CreatedAt    int64          `db:"created_at"`
	UpdatedAt    int64          `db:"updated_at"`
}

func (r sessionRow) toModel() (*models.Session, error) {
	participants, err := decodeJSON[string](r.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to decode participants of session %s: %w", r.ID, err)
	}
	txs, err := decodeJSON[models.Transaction](r.Transactions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transactions of session %s: %w", r.ID, err)
	}
	invs, err := decodeJSON[models.Invitation](r.Invitations)
	if err != nil {
		return nil, fmt.Errorf("failed to decode invitations of session %s: %w", r.ID, err)
	}
	return &models.Session{
		ID:           r.ID,
		Title:        r.Title,
		GroupID:      r.GroupID.String,
		CreatedBy:    r.CreatedBy,
		Participants: participants,
		Currency:     r.Currency,
		Status:       models.SessionStatus(r.Status),
		Transactions: txs,
		Invitations:  invs,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func sessionToRow(session *models.Session) (sessionRow, error) {
	participants, err := encodeJSON(session.Participants)
	if err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode participants: %w", err)
	}
	txs, err := encodeJSON(session.Transactions)
	if err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode transactions: %w", err)
	}
	invs, err := encodeJSON(session.Invitations)
	if err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode invitations: %w", err)
	}
	return sessionRow{
		ID:           session.ID,
		Title:        session.Title,
		GroupID:      sql.NullString{String: session.GroupID, Valid: session.GroupID != ""},
		CreatedBy:    session.CreatedBy,
		Participants: participants,
		Currency:     session.Currency,
		Status:       string(session.Status),
		Transactions: txs,
		Invitations:  invs,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}, nil
}

func rowsToSessions(rows []sessionRow) ([]*models.Session, error) {
	sessions := make([]*models.Session, 0, len(rows))
	for _, r := range rows {
		session, err := r.toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// CreateSession persists a new session document.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	now := time.Now().Unix()
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt
	if session.Title == "" {
		session.Title = defaultTitle(session.CreatedAt)
	}
	if session.Currency == "" {
		session.Currency = "USD"
	}
	if session.Status == "" {
		session.Status = models.SessionOpen
	}

	row, err := sessionToRow(session)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (id, title, group_id, created_by, participants, currency, status,
			transactions, invitations, created_at, updated_at)
		VALUES (:id, :title, :group_id, :created_by, :participants, :currency, :status,
			:transactions, :invitations, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session document by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, "SELECT "+sessionColumns+" FROM sessions s WHERE s.id = ?", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("session", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return row.toModel()
}

// ListSessionsForUser returns sessions the user participates in, most recently updated first.
func (s *SQLiteStore) ListSessionsForUser(ctx context.Context, userID string) ([]*models.Session, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+sessionColumns+`
		FROM sessions s
		WHERE EXISTS (SELECT 1 FROM json_each(s.participants) p WHERE p.value = ?)
		ORDER BY s.updated_at DESC, s.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return rowsToSessions(rows)
}

// ListSessionsByGroup returns all sessions attached to a group.
func (s *SQLiteStore) ListSessionsByGroup(ctx context.Context, groupID string) ([]*models.Session, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+sessionColumns+" FROM sessions s WHERE s.group_id = ? ORDER BY s.created_at, s.id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by group: %w", err)
	}
	return rowsToSessions(rows)
}

// SaveSession overwrites the stored session document and bumps UpdatedAt.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().Unix()
	row, err := sessionToRow(session)
	if err != nil {
		return err
	}

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE sessions SET title = :title, group_id = :group_id, participants = :participants,
			currency = :currency, status = :status, transactions = :transactions,
			invitations = :invitations, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return checkAffected(res, "session", session.ID)
}

// DeleteSession removes a session and everything it owns.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return checkAffected(res, "session", sessionID)
}

// FindSessionByInviteCode looks the code up inside every session's invitation array.
func (s *SQLiteStore) FindSessionByInviteCode(ctx context.Context, code string) (*models.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+sessionColumns+`
		FROM sessions s
		WHERE EXISTS (
			SELECT 1 FROM json_each(s.invitations) j
			WHERE json_extract(j.value, '$.code') = ?
		)
		LIMIT 1`,
		code,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invitation", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	return row.toModel()
}

// PurgeExpiredInvitations drops expired invitations from every session that has one.
func (s *SQLiteStore) PurgeExpiredInvitations(ctx context.Context, before int64) (int, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+sessionColumns+`
		FROM sessions s
		WHERE EXISTS (
			SELECT 1 FROM json_each(s.invitations) j
			WHERE json_extract(j.value, '$.expiresAt') < ?
		)`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired invitations: %w", err)
	}

	sessions, err := rowsToSessions(rows)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, session := range sessions {
		kept := make([]models.Invitation, 0, len(session.Invitations))
		for _, inv := range session.Invitations {
			if inv.ExpiresAt < before {
				removed++
				continue
			}
			kept = append(kept, inv)
		}
		session.Invitations = kept

		invs, err := encodeJSON(kept)
		if err != nil {
			return removed, fmt.Errorf("failed to encode invitations: %w", err)
		}
		// Only the invitation column is touched so concurrent edits to the rest survive.
		if _, err := s.db.ExecContext(ctx,
			"UPDATE sessions SET invitations = ? WHERE id = ?", invs, session.ID); err != nil {
			return removed, fmt.Errorf("failed to purge invitations of session %s: %w", session.ID, err)
		}
	}
	return removed, nil
}
