package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/pkg/api"
)

func TestSubscriptionCRUD(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	next := time.Now().Add(48 * time.Hour).Unix()

	invalid := []struct {
		name string
		req  *api.CreateSubscriptionRequest
	}{
		{"missing name", &api.CreateSubscriptionRequest{Amount: 10, Cycle: "monthly", NextBillingDate: next}},
		{"zero amount", &api.CreateSubscriptionRequest{Name: "Netflix", Cycle: "monthly", NextBillingDate: next}},
		{"bad cycle", &api.CreateSubscriptionRequest{Name: "Netflix", Amount: 10, Cycle: "daily", NextBillingDate: next}},
		{"missing date", &api.CreateSubscriptionRequest{Name: "Netflix", Amount: 10, Cycle: "monthly"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.subscriptions.CreateSubscription(ctx, as("alice", tt.req))
			expectCode(t, err, connect.CodeInvalidArgument)
		})
	}

	resp, err := env.subscriptions.CreateSubscription(ctx, as("alice", &api.CreateSubscriptionRequest{
		Name:            "Netflix",
		Amount:          15.99,
		Currency:        "usd",
		Cycle:           "monthly",
		NextBillingDate: next,
		Participants:    []string{"bob"},
		Category:        "streaming",
	}))
	if err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}
	sub := resp.Msg.Subscription
	if !sub.Active {
		t.Error("new subscriptions should be active")
	}
	if sub.Currency != "USD" {
		t.Errorf("currency: expected 'USD', got '%s'", sub.Currency)
	}
	if len(sub.Participants) != 2 || sub.Participants[0] != "alice" {
		t.Errorf("expected owner added to participants, got %v", sub.Participants)
	}

	// Shared subscriptions show up for participants too.
	list, err := env.subscriptions.ListSubscriptions(ctx, as("bob", &api.ListSubscriptionsRequest{}))
	if err != nil {
		t.Fatalf("ListSubscriptions failed: %v", err)
	}
	if len(list.Msg.Subscriptions) != 1 {
		t.Fatalf("expected 1 subscription for bob, got %d", len(list.Msg.Subscriptions))
	}

	paused := false
	amount := 17.99
	_, err = env.subscriptions.UpdateSubscription(ctx, as("bob", &api.UpdateSubscriptionRequest{
		SubscriptionID: sub.ID,
		Active:         &paused,
	}))
	expectCode(t, err, connect.CodePermissionDenied)

	updated, err := env.subscriptions.UpdateSubscription(ctx, as("alice", &api.UpdateSubscriptionRequest{
		SubscriptionID: sub.ID,
		Amount:         &amount,
		Active:         &paused,
	}))
	if err != nil {
		t.Fatalf("UpdateSubscription failed: %v", err)
	}
	if updated.Msg.Subscription.Amount != 17.99 || updated.Msg.Subscription.Active {
		t.Errorf("unexpected update result: %+v", updated.Msg.Subscription)
	}
	if updated.Msg.Subscription.Name != "Netflix" {
		t.Errorf("unset fields should be kept, got name %q", updated.Msg.Subscription.Name)
	}

	summary, err := env.subscriptions.GetSubscriptionSummary(ctx, as("alice", &api.GetSubscriptionSummaryRequest{}))
	if err != nil {
		t.Fatalf("GetSubscriptionSummary failed: %v", err)
	}
	if summary.Msg.MonthlyTotal != 0 {
		t.Errorf("paused subscriptions should not count, got %v", summary.Msg.MonthlyTotal)
	}

	_, err = env.subscriptions.DeleteSubscription(ctx, as("bob", &api.DeleteSubscriptionRequest{SubscriptionID: sub.ID}))
	expectCode(t, err, connect.CodePermissionDenied)

	if _, err := env.subscriptions.DeleteSubscription(ctx, as("alice", &api.DeleteSubscriptionRequest{SubscriptionID: sub.ID})); err != nil {
		t.Fatalf("DeleteSubscription failed: %v", err)
	}
	_, err = env.subscriptions.DeleteSubscription(ctx, as("alice", &api.DeleteSubscriptionRequest{SubscriptionID: sub.ID}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	day := int64(24 * 60 * 60)

	subs := []*models.Subscription{
		{ID: "netflix", OwnerID: "alice", Name: "Netflix", Amount: 15, Cycle: models.CycleMonthly,
			NextBillingDate: now.Unix() + 2*day, Participants: []string{"alice", "bob", "carol"}, Category: "streaming", Active: true},
		{ID: "gym", OwnerID: "alice", Name: "Gym", Amount: 12, Cycle: models.CycleWeekly,
			NextBillingDate: now.Unix() + 10*day, Active: true},
		{ID: "cloud", OwnerID: "bob", Name: "Cloud", Amount: 120, Cycle: models.CycleYearly,
			NextBillingDate: now.Unix() + day, Participants: []string{"bob", "alice"}, Category: "software", Active: true},
		{ID: "paused", OwnerID: "alice", Name: "Paper", Amount: 50, Cycle: models.CycleMonthly,
			NextBillingDate: now.Unix() + day, Active: false},
	}

	tests := []struct {
		user string
		mine float64
	}{
		{"alice", 62}, // 5 + 52 + 5
		{"bob", 10},   // 5 + 5
		{"carol", 5},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got := summarize(subs, tt.user, now)

			if got.MonthlyTotal != 77 {
				t.Errorf("monthly total: expected 77, got %v", got.MonthlyTotal)
			}
			if got.MyMonthlyShare != tt.mine {
				t.Errorf("my share: expected %v, got %v", tt.mine, got.MyMonthlyShare)
			}

			wantCategories := map[string]float64{"streaming": 15, "other": 52, "software": 10}
			for cat, want := range wantCategories {
				if got.ByCategory[cat] != want {
					t.Errorf("category %s: expected %v, got %v", cat, want, got.ByCategory[cat])
				}
			}

			if len(got.Upcoming) != 2 {
				t.Fatalf("expected 2 upcoming, got %d", len(got.Upcoming))
			}
			if got.Upcoming[0].ID != "cloud" || got.Upcoming[1].ID != "netflix" {
				t.Errorf("upcoming should be sorted by date, got %s, %s", got.Upcoming[0].ID, got.Upcoming[1].ID)
			}
		})
	}
}
