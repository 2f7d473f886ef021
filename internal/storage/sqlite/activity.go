package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splithub/internal/models"
)

type activityRow struct {
	ID        string `db:"id"`
	Type      string `db:"type"`
	ActorID   string `db:"actor_id"`
	SessionID string `db:"session_id"`
	GroupID   string `db:"group_id"`
	Summary   string `db:"summary"`
	CreatedAt int64  `db:"created_at"`
}

// RecordActivity appends an entry to the feed. Re-recording the same ID is a no-op,
// so redelivered events do not duplicate entries.
func (s *SQLiteStore) RecordActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt == 0 {
		activity.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO activities (id, type, actor_id, session_id, group_id, summary, created_at)
		VALUES (:id, :type, :actor_id, :session_id, :group_id, :summary, :created_at)`,
		activityRow{
			ID:        activity.ID,
			Type:      activity.Type,
			ActorID:   activity.ActorID,
			SessionID: activity.SessionID,
			GroupID:   activity.GroupID,
			Summary:   activity.Summary,
			CreatedAt: activity.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListActivityForUser returns the feed visible to a user, newest first.
func (s *SQLiteStore) ListActivityForUser(ctx context.Context, userID string, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []activityRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.type, a.actor_id, a.session_id, a.group_id, a.summary, a.created_at
		FROM activities a
		WHERE a.actor_id = ?
		   OR EXISTS (
				SELECT 1 FROM sessions s, json_each(s.participants) p
				WHERE s.id = a.session_id AND p.value = ?
		   )
		   OR EXISTS (
				SELECT 1 FROM group_members m
				WHERE m.group_id = a.group_id AND m.user_id = ?
		   )
		ORDER BY a.created_at DESC, a.rowid DESC
		LIMIT ?`,
		userID, userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	out := make([]*models.Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.Activity{
			ID:        r.ID,
			Type:      r.Type,
			ActorID:   r.ActorID,
			SessionID: r.SessionID,
			GroupID:   r.GroupID,
			Summary:   r.Summary,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
