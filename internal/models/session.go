package models

import "time"

// SplitType selects how a transaction's amount is divided.
type SplitType string

const (
	// SplitEqual divides the amount evenly among SplitAmong (or all participants).
	SplitEqual SplitType = "equal"
	// SplitCustom uses explicit per-person Shares.
	SplitCustom SplitType = "custom"
	// SplitItemized divides each receipt item among the people who claimed it.
	SplitItemized SplitType = "itemized"
)

// SessionStatus tracks whether a session still has open debts.
type SessionStatus string

const (
	SessionOpen    SessionStatus = "open"
	SessionSettled SessionStatus = "settled"
)

// Session is a split-bill session: a shared record of one or more expenses
// among a set of participants.
type Session struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// GroupID is set when the session was created inside a group.
	GroupID string `json:"groupId,omitempty"`

	CreatedBy    string        `json:"createdBy"`
	Participants []string      `json:"participants"`
	Currency     string        `json:"currency"`
	Status       SessionStatus `json:"status"`

	// Transactions and Invitations are owned by the session document.
	Transactions []Transaction `json:"transactions"`
	Invitations  []Invitation  `json:"invitations"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Total is the sum of all transaction amounts.
func (s *Session) Total() float64 {
	var total float64
	for _, tx := range s.Transactions {
		total += tx.Amount
	}
	return total
}

// HasParticipant reports whether id takes part in the session.
func (s *Session) HasParticipant(id string) bool {
	return contains(s.Participants, id)
}

// FindTransaction returns the index of the transaction with the given ID, or -1.
func (s *Session) FindTransaction(id string) int {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

// FindInvitation returns the index of the invitation with the given code, or -1.
func (s *Session) FindInvitation(code string) int {
	for i := range s.Invitations {
		if s.Invitations[i].Code == code {
			return i
		}
	}
	return -1
}

// Transaction is one expense inside a session.
type Transaction struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	PaidBy      string  `json:"paidBy"`

	SplitType SplitType `json:"splitType"`

	// SplitAmong restricts an equal split to a subset of participants.
	// Empty means every session participant.
	SplitAmong []string `json:"splitAmong,omitempty"`

	// Shares holds explicit amounts per person for custom splits.
	Shares map[string]float64 `json:"shares,omitempty"`

	// Items are the receipt lines for itemized splits.
	Items []ReceiptItem `json:"items,omitempty"`

	Tax float64 `json:"tax,omitempty"`
	Tip float64 `json:"tip,omitempty"`

	CreatedAt int64 `json:"createdAt"`
}

// ReceiptItem is a single line on a scanned or typed receipt.
// An item is shared per unit among everyone who claimed it.
type ReceiptItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Quantity     int      `json:"quantity"`
	Participants []string `json:"participants"`
}

// LineTotal is price × quantity. A zero quantity counts as one unit.
func (it ReceiptItem) LineTotal() float64 {
	q := it.Quantity
	if q <= 0 {
		q = 1
	}
	return it.Price * float64(q)
}

// Invitation is a short-lived, single-use token stored alongside a session
// that grants join access.
type Invitation struct {
	Code      string `json:"code"`
	SessionID string `json:"sessionId"`
	CreatedBy string `json:"createdBy"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
	UsedBy    string `json:"usedBy,omitempty"`
	UsedAt    int64  `json:"usedAt,omitempty"`
}

// Used reports whether the invitation was already consumed.
func (inv Invitation) Used() bool {
	return inv.UsedBy != ""
}

// Expired reports whether the invitation is past its expiry at now.
func (inv Invitation) Expired(now time.Time) bool {
	return now.Unix() >= inv.ExpiresAt
}
