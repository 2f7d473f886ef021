package calculator

import "github.com/mmynk/splithub/internal/models"

// FromSession converts a stored session into calculator input.
func FromSession(s *models.Session) SessionForBalance {
	txs := make([]Transaction, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		txs = append(txs, FromTransaction(tx))
	}
	return SessionForBalance{Participants: s.Participants, Transactions: txs}
}

// FromTransaction converts one stored transaction. Only itemized
// transactions carry items; tax and tip ride along as Extra.
func FromTransaction(tx models.Transaction) Transaction {
	out := Transaction{
		Amount: tx.Amount,
		PaidBy: tx.PaidBy,
	}
	switch tx.SplitType {
	case models.SplitItemized:
		out.Items = FromReceiptItems(tx.Items)
		out.Extra = tx.Tax + tx.Tip
	case models.SplitCustom:
		out.Shares = tx.Shares
	default:
		out.SplitAmong = tx.SplitAmong
	}
	return out
}

// FromReceiptItems converts receipt lines to calculator items.
func FromReceiptItems(items []models.ReceiptItem) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, Item{
			Name:         it.Name,
			Price:        it.Price,
			Quantity:     it.Quantity,
			Participants: it.Participants,
		})
	}
	return out
}

// SessionBalances returns every participant's net balance in s.
func SessionBalances(s *models.Session) map[string]float64 {
	in := FromSession(s)
	return Balances(in.Participants, in.Transactions)
}
