package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splithub/internal/calculator"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
	"github.com/mmynk/splithub/pkg/api"
)

// storeError maps a storage failure to a Connect error.
func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group, names map[string]string) *api.Group {
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		OwnerID:     g.OwnerID,
		Members:     g.Members,
		MemberNames: names,
		CreatedAt:   g.CreatedAt,
	}
}

func toAPIPayment(p *models.Payment) *api.Payment {
	return &api.Payment{
		ID:         p.ID,
		GroupID:    p.GroupID,
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     p.Amount,
		Note:       p.Note,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
	}
}

func toAPIItems(items []models.ReceiptItem) []*api.ReceiptItem {
	out := make([]*api.ReceiptItem, 0, len(items))
	for _, it := range items {
		out = append(out, &api.ReceiptItem{
			ID:           it.ID,
			Name:         it.Name,
			Price:        it.Price,
			Quantity:     it.Quantity,
			Participants: it.Participants,
		})
	}
	return out
}

func toAPITransaction(tx models.Transaction) *api.Transaction {
	return &api.Transaction{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      tx.Amount,
		PaidBy:      tx.PaidBy,
		SplitType:   string(tx.SplitType),
		SplitAmong:  tx.SplitAmong,
		Shares:      tx.Shares,
		Items:       toAPIItems(tx.Items),
		Tax:         tx.Tax,
		Tip:         tx.Tip,
		CreatedAt:   tx.CreatedAt,
	}
}

func toAPISession(s *models.Session) *api.Session {
	txs := make([]*api.Transaction, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		txs = append(txs, toAPITransaction(tx))
	}
	return &api.Session{
		ID:           s.ID,
		Title:        s.Title,
		GroupID:      s.GroupID,
		CreatedBy:    s.CreatedBy,
		Participants: s.Participants,
		Currency:     s.Currency,
		Status:       string(s.Status),
		Transactions: txs,
		Total:        calculator.RoundCents(s.Total()),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toAPISubscription(s *models.Subscription) *api.Subscription {
	return &api.Subscription{
		ID:              s.ID,
		OwnerID:         s.OwnerID,
		Name:            s.Name,
		Amount:          s.Amount,
		Currency:        s.Currency,
		Cycle:           string(s.Cycle),
		NextBillingDate: s.NextBillingDate,
		Participants:    s.Participants,
		Category:        s.Category,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
	}
}

func toAPIDebts(transfers []calculator.Transfer) []*api.Debt {
	out := make([]*api.Debt, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, &api.Debt{FromUserID: t.From, ToUserID: t.To, Amount: t.Amount})
	}
	return out
}
