package api

type ReceiptItem struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Quantity     int      `json:"quantity"`
	Participants []string `json:"participants"`
}

type Transaction struct {
	ID          string             `json:"id,omitempty"`
	Description string             `json:"description"`
	Amount      float64            `json:"amount"`
	PaidBy      string             `json:"paidBy"`
	SplitType   string             `json:"splitType"`
	SplitAmong  []string           `json:"splitAmong,omitempty"`
	Shares      map[string]float64 `json:"shares,omitempty"`
	Items       []*ReceiptItem     `json:"items,omitempty"`
	Tax         float64            `json:"tax,omitempty"`
	Tip         float64            `json:"tip,omitempty"`
	CreatedAt   int64              `json:"createdAt,omitempty"`
}

type Session struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	GroupID      string         `json:"groupId,omitempty"`
	CreatedBy    string         `json:"createdBy"`
	Participants []string       `json:"participants"`
	Currency     string         `json:"currency"`
	Status       string         `json:"status"`
	Transactions []*Transaction `json:"transactions"`
	Total        float64        `json:"total"`
	CreatedAt    int64          `json:"createdAt"`
	UpdatedAt    int64          `json:"updatedAt"`
}

type CreateSessionRequest struct {
	Title        string   `json:"title,omitempty"`
	GroupID      string   `json:"groupId,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Currency     string   `json:"currency,omitempty"`
}

type SessionResponse struct {
	Session *Session `json:"session"`
}

type GetSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type ListSessionsRequest struct {
	// GroupID narrows the list to one group the caller belongs to.
	GroupID string `json:"groupId,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []*Session `json:"sessions"`
}

type UpdateSessionRequest struct {
	SessionID    string   `json:"sessionId"`
	Title        string   `json:"title,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Currency     string   `json:"currency,omitempty"`
}

type DeleteSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type DeleteSessionResponse struct{}

type AddTransactionRequest struct {
	SessionID   string       `json:"sessionId"`
	Transaction *Transaction `json:"transaction"`
}

type RemoveTransactionRequest struct {
	SessionID     string `json:"sessionId"`
	TransactionID string `json:"transactionId"`
}

// ClaimItemRequest attaches the caller to a receipt item, or detaches them
// when Unclaim is set.
type ClaimItemRequest struct {
	SessionID     string `json:"sessionId"`
	TransactionID string `json:"transactionId"`
	ItemID        string `json:"itemId"`
	Unclaim       bool   `json:"unclaim,omitempty"`
}

type GetSettlementRequest struct {
	SessionID string `json:"sessionId"`
}

type GetSettlementResponse struct {
	Total     float64          `json:"total"`
	Balances  []*MemberBalance `json:"balances"`
	Transfers []*Debt          `json:"transfers"`
	// UnclaimedItems lists receipt lines nobody has claimed yet.
	UnclaimedItems []*ReceiptItem `json:"unclaimedItems,omitempty"`
}

type SplitItem struct {
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Quantity     int      `json:"quantity,omitempty"`
	Participants []string `json:"participants"`
}

// CalculateSplitRequest previews a receipt split without storing anything.
type CalculateSplitRequest struct {
	Items        []*SplitItem `json:"items"`
	Total        float64      `json:"total"`
	Subtotal     float64      `json:"subtotal"`
	Participants []string     `json:"participants"`
}

type PersonItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type PersonSplit struct {
	Subtotal float64       `json:"subtotal"`
	Tax      float64       `json:"tax"`
	Total    float64       `json:"total"`
	Items    []*PersonItem `json:"items"`
}

type CalculateSplitResponse struct {
	Splits    map[string]*PersonSplit `json:"splits"`
	TaxAmount float64                 `json:"taxAmount"`
	Subtotal  float64                 `json:"subtotal"`
}

type MarkSettledRequest struct {
	SessionID string `json:"sessionId"`
	// Reopen flips a settled session back to open.
	Reopen bool `json:"reopen,omitempty"`
}
