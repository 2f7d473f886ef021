package calculator

import (
	"sort"
)

// epsilon is the tolerance below which a balance counts as settled.
const epsilon = 0.01

// Transaction is the minimal view of an expense needed for balance calculations.
type Transaction struct {
	Amount float64
	PaidBy string

	// SplitAmong restricts an equal split; empty means all participants.
	SplitAmong []string

	// Shares holds explicit per-person amounts for custom splits.
	Shares map[string]float64

	// Items switches the transaction to itemized mode.
	Items []Item

	// Extra is tax + tip on an itemized transaction, spread across
	// people in proportion to their item subtotal.
	Extra float64
}

// Transfer is a directed payment that settles part of a debt.
type Transfer struct {
	From   string  // Person who owes
	To     string  // Person who is owed
	Amount float64
}

// MemberBalance represents the balance information for one member.
type MemberBalance struct {
	MemberID   string
	NetBalance float64 // Positive = owed money, Negative = owes money
	TotalPaid  float64
	TotalOwed  float64
}

// SessionForBalance is one session's worth of transactions for group aggregation.
type SessionForBalance struct {
	Participants []string
	Transactions []Transaction
}

// PaymentForBalance is a recorded settle-up payment.
type PaymentForBalance struct {
	FromUserID string
	ToUserID   string
	Amount     float64
}

// ledger tracks what each person paid and what they owe.
type ledger struct {
	paid map[string]float64
	owed map[string]float64
}

func newLedger() *ledger {
	return &ledger{
		paid: make(map[string]float64),
		owed: make(map[string]float64),
	}
}

func (l *ledger) touch(id string) {
	if _, ok := l.paid[id]; !ok {
		l.paid[id] = 0
	}
	if _, ok := l.owed[id]; !ok {
		l.owed[id] = 0
	}
}

// apply credits the payer and debits everyone who shares the transaction.
func (l *ledger) apply(participants []string, tx Transaction) {
	l.touch(tx.PaidBy)
	l.paid[tx.PaidBy] += tx.Amount

	switch {
	case len(tx.Items) > 0:
		owed, _ := SplitItems(tx.Items)
		var subtotal float64
		for _, v := range owed {
			subtotal += v
		}
		for p, v := range owed {
			l.touch(p)
			l.owed[p] += v
			if tx.Extra != 0 && subtotal > 0 {
				l.owed[p] += tx.Extra * v / subtotal
			}
		}
	case len(tx.Shares) > 0:
		for p, v := range tx.Shares {
			l.touch(p)
			l.owed[p] += v
		}
	default:
		among := tx.SplitAmong
		if len(among) == 0 {
			among = participants
		}
		// An empty participant set has nobody to debit.
		if len(among) == 0 {
			return
		}
		share := tx.Amount / float64(len(among))
		for _, p := range among {
			l.touch(p)
			l.owed[p] += share
		}
	}
}

func (l *ledger) net() map[string]float64 {
	out := make(map[string]float64, len(l.paid))
	for id := range l.paid {
		out[id] = l.paid[id] - l.owed[id]
	}
	return out
}

// Balances returns every person's net balance for a set of transactions.
// Every participant appears in the result, even with a zero balance.
func Balances(participants []string, transactions []Transaction) map[string]float64 {
	l := newLedger()
	for _, p := range participants {
		l.touch(p)
	}
	for _, tx := range transactions {
		l.apply(participants, tx)
	}
	return l.net()
}

// SettleDebts computes a minimal list of transfers that settles all balances.
//
// Algorithm:
//   - payer is credited the transaction amount
//   - itemized transactions debit price*quantity/len(item.participants) per attached person,
//     custom transactions debit each share, anything else is split evenly
//   - an item quantity of zero or less counts as one unit, matching an omitted quantity
//   - creditors (sorted descending) and debtors (sorted ascending) are matched greedily,
//     largest debt against largest credit, until one side runs out
func SettleDebts(participants []string, transactions []Transaction) []Transfer {
	return simplify(Balances(participants, transactions))
}

// GroupBalances aggregates many sessions plus recorded payments into member
// balances and a simplified debt list.
func GroupBalances(sessions []SessionForBalance, payments []PaymentForBalance) ([]MemberBalance, []Transfer) {
	l := newLedger()
	for _, s := range sessions {
		for _, p := range s.Participants {
			l.touch(p)
		}
		for _, tx := range s.Transactions {
			l.apply(s.Participants, tx)
		}
	}

	// A payment improves the payer's balance and reduces the receiver's credit.
	for _, p := range payments {
		l.touch(p.FromUserID)
		l.touch(p.ToUserID)
		l.paid[p.FromUserID] += p.Amount
		l.owed[p.ToUserID] += p.Amount
	}

	net := l.net()
	members := make([]MemberBalance, 0, len(net))
	for id, bal := range net {
		members = append(members, MemberBalance{
			MemberID:   id,
			NetBalance: RoundCents(bal),
			TotalPaid:  RoundCents(l.paid[id]),
			TotalOwed:  RoundCents(l.owed[id]),
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].MemberID < members[j].MemberID })

	return members, simplify(net)
}

type balanceEntry struct {
	id     string
	amount float64
}

// simplify matches debtors against creditors using the greedy strategy.
// It produces at most n-1 transfers for n non-settled people.
func simplify(balances map[string]float64) []Transfer {
	var creditors, debtors []balanceEntry
	for id, bal := range balances {
		if bal > epsilon {
			creditors = append(creditors, balanceEntry{id, bal})
		} else if bal < -epsilon {
			debtors = append(debtors, balanceEntry{id, bal})
		}
	}

	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].amount != creditors[j].amount {
			return creditors[i].amount > creditors[j].amount
		}
		return creditors[i].id < creditors[j].id
	})
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].amount != debtors[j].amount {
			return debtors[i].amount < debtors[j].amount
		}
		return debtors[i].id < debtors[j].id
	})

	transfers := make([]Transfer, 0)
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		if debtor.id == creditor.id {
			i++
			j++
			continue
		}

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := -debtor.amount
		if creditor.amount < amount {
			amount = creditor.amount
		}

		if amount > epsilon {
			transfers = append(transfers, Transfer{
				From:   debtor.id,
				To:     creditor.id,
				Amount: RoundCents(amount),
			})
		}

		debtor.amount += amount
		creditor.amount -= amount

		if -debtor.amount < epsilon {
			i++
		}
		if creditor.amount < epsilon {
			j++
		}
	}

	return transfers
}
