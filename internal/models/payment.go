package models

// Payment represents a settle-up payment between group members.
// Payments are applied on top of session balances when computing group debts.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string `json:"id"`

	// GroupID is the group this payment belongs to.
	GroupID string `json:"groupId"`

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string `json:"fromUserId"`

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string `json:"toUserId"`

	// Amount is the payment amount.
	Amount float64 `json:"amount"`

	// Note is an optional description for the payment.
	Note string `json:"note,omitempty"`

	// CreatedBy is the user ID who recorded this payment.
	CreatedBy string `json:"createdBy"`

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64 `json:"createdAt"`
}
