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

const subscriptionColumns = `id, owner_id, name, amount, currency, cycle, next_billing_date,
	participants, category, active, created_at`

type subscriptionRow struct {
	ID              string  `db:"id"`
	OwnerID         string  `db:"owner_id"`
	Name            string  `db:"name"`
	Amount          float64 `db:"amount"`
	Currency        string  `db:"currency"`
	Cycle           string  `db:"cycle"`
	NextBillingDate int64   `db:"next_billing_date"`
	Participants    string  `db:"participants"`
	Category        string  `db:"category"`
	Active          bool    `db:"active"`
	CreatedAt       int64   `db:"created_at"`
}

func (r subscriptionRow) toModel() (*models.Subscription, error) {
	participants, err := decodeJSON[string](r.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to decode participants of subscription %s: %w", r.ID, err)
	}
	return &models.Subscription{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Name:            r.Name,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Cycle:           models.BillingCycle(r.Cycle),
		NextBillingDate: r.NextBillingDate,
		Participants:    participants,
		Category:        r.Category,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
	}, nil
}

func subscriptionToRow(sub *models.Subscription) (subscriptionRow, error) {
	participants, err := encodeJSON(sub.Participants)
	if err != nil {
		return subscriptionRow{}, fmt.Errorf("failed to encode participants: %w", err)
	}
	return subscriptionRow{
		ID:              sub.ID,
		OwnerID:         sub.OwnerID,
		Name:            sub.Name,
		Amount:          sub.Amount,
		Currency:        sub.Currency,
		Cycle:           string(sub.Cycle),
		NextBillingDate: sub.NextBillingDate,
		Participants:    participants,
		Category:        sub.Category,
		Active:          sub.Active,
		CreatedAt:       sub.CreatedAt,
	}, nil
}

func rowsToSubscriptions(rows []subscriptionRow) ([]*models.Subscription, error) {
	subs := make([]*models.Subscription, 0, len(rows))
	for _, r := range rows {
		sub, err := r.toModel()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// CreateSubscription persists a new recurring bill.
func (s *SQLiteStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt == 0 {
		sub.CreatedAt = time.Now().Unix()
	}
	if sub.Currency == "" {
		sub.Currency = "USD"
	}

	row, err := subscriptionToRow(sub)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (:id, :owner_id, :name, :amount, :currency, :cycle, :next_billing_date,
			:participants, :category, :active, :created_at)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// GetSubscription retrieves a subscription by ID.
func (s *SQLiteStore) GetSubscription(ctx context.Context, subID string) (*models.Subscription, error) {
	var row subscriptionRow
	err := s.db.GetContext(ctx, &row, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", subID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("subscription", subID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return row.toModel()
}

// ListSubscriptionsForUser returns subscriptions the user owns or shares, soonest billing first.
func (s *SQLiteStore) ListSubscriptionsForUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	var rows []subscriptionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE owner_id = ?
		   OR EXISTS (SELECT 1 FROM json_each(subscriptions.participants) p WHERE p.value = ?)
		ORDER BY next_billing_date, id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return rowsToSubscriptions(rows)
}

// UpdateSubscription overwrites every mutable field of a subscription.
func (s *SQLiteStore) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	row, err := subscriptionToRow(sub)
	if err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE subscriptions SET name = :name, amount = :amount, currency = :currency,
			cycle = :cycle, next_billing_date = :next_billing_date, participants = :participants,
			category = :category, active = :active
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return checkAffected(res, "subscription", sub.ID)
}

// DeleteSubscription removes a subscription by ID.
func (s *SQLiteStore) DeleteSubscription(ctx context.Context, subID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", subID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return checkAffected(res, "subscription", subID)
}

// ListDueSubscriptions returns active subscriptions billed at or before the given time.
func (s *SQLiteStore) ListDueSubscriptions(ctx context.Context, before int64) ([]*models.Subscription, error) {
	var rows []subscriptionRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE active = 1 AND next_billing_date <= ? ORDER BY next_billing_date",
		before,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}
	return rowsToSubscriptions(rows)
}
