package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splithub/internal/calculator"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
	"github.com/mmynk/splithub/pkg/api"
)

const upcomingWindow = 7 * 24 * time.Hour

// SubscriptionService implements the Connect SubscriptionService.
type SubscriptionService struct {
	store storage.SubscriptionStore
	now   func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(store storage.SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{store: store, now: time.Now}
}

func validateSubscription(sub *models.Subscription) error {
	switch {
	case strings.TrimSpace(sub.Name) == "":
		return fmt.Errorf("name required")
	case sub.Amount <= 0:
		return fmt.Errorf("amount must be positive")
	case !sub.Cycle.Valid():
		return fmt.Errorf("unknown billing cycle %q", sub.Cycle)
	case sub.NextBillingDate <= 0:
		return fmt.Errorf("next_billing_date required")
	}
	return nil
}

// ownedSubscription loads a subscription and checks the caller owns it.
func (s *SubscriptionService) ownedSubscription(ctx context.Context, subID string) (*models.Subscription, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	sub, err := s.store.GetSubscription(ctx, subID)
	if err != nil {
		slog.Error("Failed to get subscription", "subscription_id", subID, "error", err)
		return nil, storeError(err)
	}
	if sub.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the owner can change this subscription"))
	}
	return sub, nil
}

// CreateSubscription records a recurring bill owned by the caller.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req *connect.Request[api.CreateSubscriptionRequest]) (*connect.Response[api.SubscriptionResponse], error) {
	msg := req.Msg
	slog.Info("CreateSubscription request received", "name", msg.Name, "cycle", msg.Cycle)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	sub := &models.Subscription{
		OwnerID:         userID,
		Name:            strings.TrimSpace(msg.Name),
		Amount:          calculator.RoundCents(msg.Amount),
		Currency:        strings.ToUpper(strings.TrimSpace(msg.Currency)),
		Cycle:           models.BillingCycle(msg.Cycle),
		NextBillingDate: msg.NextBillingDate,
		Participants:    msg.Participants,
		Category:        msg.Category,
		Active:          true,
	}
	if len(sub.Participants) > 0 {
		sub.Participants = withMember(userID, sub.Participants)
	}
	if err := validateSubscription(sub); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		slog.Error("CreateSubscription failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Subscription created", "subscription_id", sub.ID)
	return connect.NewResponse(&api.SubscriptionResponse{Subscription: toAPISubscription(sub)}), nil
}

// ListSubscriptions returns subscriptions the caller owns or shares.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, req *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	subs, err := s.store.ListSubscriptionsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListSubscriptions failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Subscription, len(subs))
	for i, sub := range subs {
		out[i] = toAPISubscription(sub)
	}
	return connect.NewResponse(&api.ListSubscriptionsResponse{Subscriptions: out}), nil
}

// UpdateSubscription applies the fields set in the request.
func (s *SubscriptionService) UpdateSubscription(ctx context.Context, req *connect.Request[api.UpdateSubscriptionRequest]) (*connect.Response[api.SubscriptionResponse], error) {
	msg := req.Msg
	slog.Info("UpdateSubscription request received", "subscription_id", msg.SubscriptionID)

	sub, err := s.ownedSubscription(ctx, msg.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if msg.Name != nil {
		sub.Name = strings.TrimSpace(*msg.Name)
	}
	if msg.Amount != nil {
		sub.Amount = calculator.RoundCents(*msg.Amount)
	}
	if msg.Cycle != nil {
		sub.Cycle = models.BillingCycle(*msg.Cycle)
	}
	if msg.NextBillingDate != nil {
		sub.NextBillingDate = *msg.NextBillingDate
	}
	if msg.Participants != nil {
		sub.Participants = withMember(sub.OwnerID, msg.Participants)
	}
	if msg.Category != nil {
		sub.Category = *msg.Category
	}
	if msg.Active != nil {
		sub.Active = *msg.Active
	}
	if err := validateSubscription(sub); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		slog.Error("UpdateSubscription failed", "error", err)
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.SubscriptionResponse{Subscription: toAPISubscription(sub)}), nil
}

// DeleteSubscription removes a subscription the caller owns.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, req *connect.Request[api.DeleteSubscriptionRequest]) (*connect.Response[api.DeleteSubscriptionResponse], error) {
	slog.Info("DeleteSubscription request received", "subscription_id", req.Msg.SubscriptionID)

	sub, err := s.ownedSubscription(ctx, req.Msg.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteSubscription(ctx, sub.ID); err != nil {
		slog.Error("DeleteSubscription failed", "error", err)
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.DeleteSubscriptionResponse{}), nil
}

// GetSubscriptionSummary normalises every active subscription to a monthly
// cost and splits it evenly among its participants.
func (s *SubscriptionService) GetSubscriptionSummary(ctx context.Context, req *connect.Request[api.GetSubscriptionSummaryRequest]) (*connect.Response[api.GetSubscriptionSummaryResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	subs, err := s.store.ListSubscriptionsForUser(ctx, userID)
	if err != nil {
		slog.Error("GetSubscriptionSummary failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := summarize(subs, userID, s.now())
	slog.Info("GetSubscriptionSummary successful",
		"user_id", userID,
		"subscriptions_count", len(subs),
		"monthly_total", resp.MonthlyTotal,
	)
	return connect.NewResponse(resp), nil
}

func summarize(subs []*models.Subscription, userID string, now time.Time) *api.GetSubscriptionSummaryResponse {
	resp := &api.GetSubscriptionSummaryResponse{
		ByCategory: make(map[string]float64),
		Upcoming:   []*api.Subscription{},
	}
	horizon := now.Add(upcomingWindow).Unix()

	var total, mine float64
	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		monthly := sub.Amount * sub.Cycle.MonthlyFactor()
		total += monthly

		sharers := len(sub.Participants)
		if sharers == 0 {
			// Unshared subscriptions are paid by the owner alone.
			sharers = 1
		}
		if sub.OwnerID == userID || isParticipant(userID, sub.Participants) {
			mine += monthly / float64(sharers)
		}

		category := sub.Category
		if category == "" {
			category = "other"
		}
		resp.ByCategory[category] += monthly

		if sub.NextBillingDate >= now.Unix() && sub.NextBillingDate <= horizon {
			resp.Upcoming = append(resp.Upcoming, toAPISubscription(sub))
		}
	}

	for k, v := range resp.ByCategory {
		resp.ByCategory[k] = calculator.RoundCents(v)
	}
	sort.Slice(resp.Upcoming, func(i, j int) bool {
		return resp.Upcoming[i].NextBillingDate < resp.Upcoming[j].NextBillingDate
	})
	resp.MonthlyTotal = calculator.RoundCents(total)
	resp.MyMonthlyShare = calculator.RoundCents(mine)
	return resp
}
