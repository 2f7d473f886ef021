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

type chatRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Title     string `db:"title"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

type messageRow struct {
	ID        string `db:"id"`
	ChatID    string `db:"chat_id"`
	Role      string `db:"role"`
	Content   string `db:"content"`
	CreatedAt int64  `db:"created_at"`
}

func (r chatRow) toModel() *models.ChatSession {
	return &models.ChatSession{ID: r.ID, UserID: r.UserID, Title: r.Title, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// CreateChat starts a new conversation.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *models.ChatSession) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.CreatedAt == 0 {
		chat.CreatedAt = time.Now().Unix()
	}
	chat.UpdatedAt = chat.CreatedAt

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetChat retrieves a conversation header by ID.
func (s *SQLiteStore) GetChat(ctx context.Context, chatID string) (*models.ChatSession, error) {
	var row chatRow
	err := s.db.GetContext(ctx, &row,
		"SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE id = ?", chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("chat", chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return row.toModel(), nil
}

// ListChats returns a user's conversations, most recently active first.
func (s *SQLiteStore) ListChats(ctx context.Context, userID string) ([]*models.ChatSession, error) {
	var rows []chatRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE user_id = ? ORDER BY updated_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	chats := make([]*models.ChatSession, 0, len(rows))
	for _, r := range rows {
		chats = append(chats, r.toModel())
	}
	return chats, nil
}

// DeleteChat removes a conversation and its messages.
func (s *SQLiteStore) DeleteChat(ctx context.Context, chatID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return checkAffected(res, "chat", chatID)
}

// AppendMessage adds a message at the end of a conversation.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// seq keeps messages ordered when several land in the same second.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, chat_id, role, content, created_at, seq)
		SELECT ?, ?, ?, ?, ?, COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE chat_id = ?`,
		msg.ID, msg.ChatID, string(msg.Role), msg.Content, msg.CreatedAt, msg.ChatID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE chat_sessions SET updated_at = ? WHERE id = ?", msg.CreatedAt, msg.ChatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	if err := checkAffected(res, "chat", msg.ChatID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListMessages returns the last limit messages of a chat in chronological order.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, chat_id, role, content, created_at FROM (
			SELECT id, chat_id, role, content, created_at, seq
			FROM chat_messages WHERE chat_id = ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]*models.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, &models.Message{
			ID:        r.ID,
			ChatID:    r.ChatID,
			Role:      models.Role(r.Role),
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		})
	}
	return msgs, nil
}
