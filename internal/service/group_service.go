package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splithub/internal/calculator"
	"github.com/mmynk/splithub/internal/events"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
	"github.com/mmynk/splithub/pkg/api"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, publisher events.Publisher) *GroupService {
	return &GroupService{store: store, publisher: publisher}
}

// memberGroup loads a group and checks the caller belongs to it.
func (s *GroupService) memberGroup(ctx context.Context, groupID string) (*models.Group, string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if groupID == "" {
		return nil, "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("Failed to get group", "group_id", groupID, "error", err)
		return nil, "", storeError(err)
	}
	if !group.HasMember(userID) {
		return nil, "", connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a member of this group"))
	}
	return group, userID, nil
}

// memberNames resolves display names for the given IDs. Unknown IDs are
// skipped; lookup failures only cost the names.
func (s *GroupService) memberNames(ctx context.Context, ids []string) map[string]string {
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		slog.Warn("Failed to resolve member names", "error", err)
		return nil
	}
	names := make(map[string]string, len(users))
	for id, u := range users {
		names[id] = u.DisplayName
	}
	return names
}

// withMember returns members with id prepended when absent, dropping blanks and duplicates.
func withMember(id string, members []string) []string {
	out := []string{id}
	seen := map[string]bool{id: true}
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// CreateGroup creates a new group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name required"))
	}

	group := &models.Group{
		Name:        name,
		Description: req.Msg.Description,
		OwnerID:     userID,
		Members:     withMember(userID, req.Msg.Members),
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.GroupResponse{
		Group: toAPIGroup(group, s.memberNames(ctx, group.Members)),
	}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, _, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GroupResponse{
		Group: toAPIGroup(group, s.memberNames(ctx, group.Members)),
	}), nil
}

// ListGroups returns the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	slog.Info("ListGroups request received", "user_id", userID)

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group, nil)
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup renames a group or replaces its members. Only the owner may do
// this, and the owner always stays a member.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	group, userID, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the group owner can update it"))
	}

	if name := strings.TrimSpace(req.Msg.Name); name != "" {
		group.Name = name
	}
	group.Description = req.Msg.Description
	if req.Msg.Members != nil {
		group.Members = withMember(group.OwnerID, req.Msg.Members)
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)
	return connect.NewResponse(&api.GroupResponse{
		Group: toAPIGroup(group, s.memberNames(ctx, group.Members)),
	}), nil
}

// DeleteGroup removes a group by ID. Its sessions survive without a group.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	group, userID, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the group owner can delete it"))
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group deleted", "group_id", group.ID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetGroupBalances calculates balances across all sessions and recorded
// payments in a group.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID)

	if _, _, err := s.memberGroup(ctx, groupID); err != nil {
		return nil, err
	}

	sessions, err := s.store.ListSessionsByGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupBalances failed - could not list sessions", "group_id", groupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	payments, err := s.store.ListPaymentsByGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupBalances failed - could not list payments", "group_id", groupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	forBalance := make([]calculator.SessionForBalance, 0, len(sessions))
	for _, session := range sessions {
		forBalance = append(forBalance, calculator.FromSession(session))
	}
	paid := make([]calculator.PaymentForBalance, 0, len(payments))
	for _, p := range payments {
		paid = append(paid, calculator.PaymentForBalance{
			FromUserID: p.FromUserID,
			ToUserID:   p.ToUserID,
			Amount:     p.Amount,
		})
	}

	memberBalances, debts := calculator.GroupBalances(forBalance, paid)

	ids := make([]string, len(memberBalances))
	for i, bal := range memberBalances {
		ids[i] = bal.MemberID
	}
	names := s.memberNames(ctx, ids)

	balances := make([]*api.MemberBalance, len(memberBalances))
	for i, bal := range memberBalances {
		balances[i] = &api.MemberBalance{
			UserID:      bal.MemberID,
			DisplayName: names[bal.MemberID],
			NetBalance:  bal.NetBalance,
			TotalPaid:   bal.TotalPaid,
			TotalOwed:   bal.TotalOwed,
		}
	}

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"sessions_count", len(sessions),
		"payments_count", len(payments),
		"debts_count", len(debts),
	)

	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Balances: balances,
		Debts:    toAPIDebts(debts),
	}), nil
}

// RecordPayment stores a settle-up payment between two group members.
func (s *GroupService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.PaymentResponse], error) {
	msg := req.Msg
	slog.Info("RecordPayment request received", "group_id", msg.GroupID, "amount", msg.Amount)

	group, userID, err := s.memberGroup(ctx, msg.GroupID)
	if err != nil {
		return nil, err
	}

	switch {
	case msg.Amount <= 0:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("amount must be positive"))
	case msg.FromUserID == msg.ToUserID:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("payer and receiver must differ"))
	case !group.HasMember(msg.FromUserID) || !group.HasMember(msg.ToUserID):
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("payer and receiver must be group members"))
	}

	payment := &models.Payment{
		GroupID:    group.ID,
		FromUserID: msg.FromUserID,
		ToUserID:   msg.ToUserID,
		Amount:     calculator.RoundCents(msg.Amount),
		Note:       msg.Note,
		CreatedBy:  userID,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("RecordPayment failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	events.Emit(ctx, s.publisher, events.New(events.PaymentRecorded, userID,
		fmt.Sprintf("recorded a payment of %.2f in %q", payment.Amount, group.Name)).ForGroup(group.ID))

	slog.Info("Payment recorded", "payment_id", payment.ID, "group_id", group.ID)
	return connect.NewResponse(&api.PaymentResponse{Payment: toAPIPayment(payment)}), nil
}

// ListPayments returns a group's recorded payments.
func (s *GroupService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	slog.Info("ListPayments request received", "group_id", req.Msg.GroupID)

	if _, _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	payments, err := s.store.ListPaymentsByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListPayments failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Payment, len(payments))
	for i, p := range payments {
		out[i] = toAPIPayment(p)
	}
	return connect.NewResponse(&api.ListPaymentsResponse{Payments: out}), nil
}

// DeletePayment removes a payment. Its recorder or the group owner may do this.
func (s *GroupService) DeletePayment(ctx context.Context, req *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error) {
	slog.Info("DeletePayment request received", "payment_id", req.Msg.PaymentID)

	if req.Msg.PaymentID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("payment_id required"))
	}
	payment, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		slog.Error("DeletePayment: failed to get payment", "payment_id", req.Msg.PaymentID, "error", err)
		return nil, storeError(err)
	}

	group, userID, err := s.memberGroup(ctx, payment.GroupID)
	if err != nil {
		return nil, err
	}
	if payment.CreatedBy != userID && group.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the recorder or group owner can delete a payment"))
	}

	if err := s.store.DeletePayment(ctx, payment.ID); err != nil {
		slog.Error("DeletePayment failed", "error", err)
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.DeletePaymentResponse{}), nil
}
