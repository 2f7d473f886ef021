package models

import "time"

// BillingCycle is how often a subscription charges.
type BillingCycle string

const (
	CycleWeekly  BillingCycle = "weekly"
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// Valid reports whether c is a known cycle.
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleWeekly, CycleMonthly, CycleYearly:
		return true
	}
	return false
}

// Subscription is a recurring bill, optionally shared among participants.
type Subscription struct {
	ID       string       `json:"id"`
	OwnerID  string       `json:"ownerId"`
	Name     string       `json:"name"`
	Amount   float64      `json:"amount"`
	Currency string       `json:"currency"`
	Cycle    BillingCycle `json:"cycle"`

	// NextBillingDate is a Unix timestamp (UTC midnight).
	NextBillingDate int64 `json:"nextBillingDate"`

	// Participants share the cost evenly; empty means the owner pays alone.
	Participants []string `json:"participants,omitempty"`
	Category     string   `json:"category,omitempty"`
	Active       bool     `json:"active"`
	CreatedAt    int64    `json:"createdAt"`
}

// Advance returns the billing date one cycle after t.
func (c BillingCycle) Advance(t time.Time) time.Time {
	return c.Step(t, 1)
}

// Step returns the billing date n cycles after anchor. Monthly and yearly
// cycles keep anchor's day of month, clamped to the end of shorter months.
func (c BillingCycle) Step(anchor time.Time, n int) time.Time {
	switch c {
	case CycleWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case CycleYearly:
		return addMonths(anchor, 12*n)
	default:
		return addMonths(anchor, n)
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// MonthlyFactor converts one charge of this cycle into a monthly amount.
func (c BillingCycle) MonthlyFactor() float64 {
	switch c {
	case CycleWeekly:
		return 52.0 / 12.0
	case CycleYearly:
		return 1.0 / 12.0
	default:
		return 1
	}
}
