package api

type Subscription struct {
	ID              string   `json:"id"`
	OwnerID         string   `json:"ownerId"`
	Name            string   `json:"name"`
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency"`
	Cycle           string   `json:"cycle"`
	NextBillingDate int64    `json:"nextBillingDate"`
	Participants    []string `json:"participants,omitempty"`
	Category        string   `json:"category,omitempty"`
	Active          bool     `json:"active"`
	CreatedAt       int64    `json:"createdAt"`
}

type CreateSubscriptionRequest struct {
	Name            string   `json:"name"`
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency,omitempty"`
	Cycle           string   `json:"cycle"`
	NextBillingDate int64    `json:"nextBillingDate"`
	Participants    []string `json:"participants,omitempty"`
	Category        string   `json:"category,omitempty"`
}

type SubscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
}

type ListSubscriptionsRequest struct{}

type ListSubscriptionsResponse struct {
	Subscriptions []*Subscription `json:"subscriptions"`
}

// UpdateSubscriptionRequest replaces the mutable fields. Nil pointers leave
// the stored value unchanged.
type UpdateSubscriptionRequest struct {
	SubscriptionID  string   `json:"subscriptionId"`
	Name            *string  `json:"name,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	Cycle           *string  `json:"cycle,omitempty"`
	NextBillingDate *int64   `json:"nextBillingDate,omitempty"`
	Participants    []string `json:"participants,omitempty"`
	Category        *string  `json:"category,omitempty"`
	Active          *bool    `json:"active,omitempty"`
}

type DeleteSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

type DeleteSubscriptionResponse struct{}

type GetSubscriptionSummaryRequest struct{}

type GetSubscriptionSummaryResponse struct {
	// MonthlyTotal is the full monthly-normalised cost of every active subscription.
	MonthlyTotal float64 `json:"monthlyTotal"`
	// MyMonthlyShare is the caller's even share of those costs.
	MyMonthlyShare float64            `json:"myMonthlyShare"`
	ByCategory     map[string]float64 `json:"byCategory"`
	// Upcoming lists active subscriptions billed within the next seven days.
	Upcoming []*Subscription `json:"upcoming"`
}
