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

type paymentRow struct {
	ID         string         `db:"id"`
	GroupID    string         `db:"group_id"`
	FromUserID string         `db:"from_user_id"`
	ToUserID   string         `db:"to_user_id"`
	Amount     float64        `db:"amount"`
	Note       sql.NullString `db:"note"`
	CreatedBy  string         `db:"created_by"`
	CreatedAt  int64          `db:"created_at"`
}

func (r paymentRow) toModel() *models.Payment {
	return &models.Payment{
		ID:         r.ID,
		GroupID:    r.GroupID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Amount:     r.Amount,
		Note:       r.Note.String,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt,
	}
}

const paymentColumns = "id, group_id, from_user_id, to_user_id, amount, note, created_by, created_at"

// CreatePayment persists a new settle-up payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :group_id, :from_user_id, :to_user_id, :amount, :note, :created_by, :created_at)`,
		paymentRow{
			ID:         payment.ID,
			GroupID:    payment.GroupID,
			FromUserID: payment.FromUserID,
			ToUserID:   payment.ToUserID,
			Amount:     payment.Amount,
			Note:       sql.NullString{String: payment.Note, Valid: payment.Note != ""},
			CreatedBy:  payment.CreatedBy,
			CreatedAt:  payment.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var row paymentRow
	err := s.db.GetContext(ctx, &row, "SELECT "+paymentColumns+" FROM payments WHERE id = ?", paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("payment", paymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return row.toModel(), nil
}

// ListPaymentsByGroup retrieves all payments for a group, newest first.
func (s *SQLiteStore) ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error) {
	var rows []paymentRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+paymentColumns+" FROM payments WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments by group: %w", err)
	}

	payments := make([]*models.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.toModel())
	}
	return payments, nil
}

// DeletePayment removes a payment by ID.
func (s *SQLiteStore) DeletePayment(ctx context.Context, paymentID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return checkAffected(res, "payment", paymentID)
}
