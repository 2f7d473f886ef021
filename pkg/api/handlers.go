package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// AuthServiceHandler is implemented by the auth service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error)
	Logout(context.Context, *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler serving every Auth procedure.
// It returns the path prefix to mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AuthRegisterProcedure, connect.NewUnaryHandler(AuthRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthLoginProcedure, connect.NewUnaryHandler(AuthLoginProcedure, svc.Login, opts...))
	mux.Handle(AuthLogoutProcedure, connect.NewUnaryHandler(AuthLogoutProcedure, svc.Logout, opts...))
	mux.Handle(AuthGetCurrentUserProcedure, connect.NewUnaryHandler(AuthGetCurrentUserProcedure, svc.GetCurrentUser, opts...))
	return "/" + AuthServiceName + "/", mux
}

// GroupServiceHandler is implemented by the group service.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error)
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	RecordPayment(context.Context, *connect.Request[RecordPaymentRequest]) (*connect.Response[PaymentResponse], error)
	ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error)
	DeletePayment(context.Context, *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler serving every Group procedure.
// It returns the path prefix to mount it on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GroupCreateProcedure, connect.NewUnaryHandler(GroupCreateProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupGetProcedure, connect.NewUnaryHandler(GroupGetProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupListProcedure, connect.NewUnaryHandler(GroupListProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupUpdateProcedure, connect.NewUnaryHandler(GroupUpdateProcedure, svc.UpdateGroup, opts...))
	mux.Handle(GroupDeleteProcedure, connect.NewUnaryHandler(GroupDeleteProcedure, svc.DeleteGroup, opts...))
	mux.Handle(GroupBalancesProcedure, connect.NewUnaryHandler(GroupBalancesProcedure, svc.GetGroupBalances, opts...))
	mux.Handle(GroupRecordPaymentProcedure, connect.NewUnaryHandler(GroupRecordPaymentProcedure, svc.RecordPayment, opts...))
	mux.Handle(GroupListPaymentsProcedure, connect.NewUnaryHandler(GroupListPaymentsProcedure, svc.ListPayments, opts...))
	mux.Handle(GroupDeletePaymentProcedure, connect.NewUnaryHandler(GroupDeletePaymentProcedure, svc.DeletePayment, opts...))
	return "/" + GroupServiceName + "/", mux
}

// SessionServiceHandler is implemented by the session service.
type SessionServiceHandler interface {
	CreateSession(context.Context, *connect.Request[CreateSessionRequest]) (*connect.Response[SessionResponse], error)
	GetSession(context.Context, *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error)
	ListSessions(context.Context, *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error)
	UpdateSession(context.Context, *connect.Request[UpdateSessionRequest]) (*connect.Response[SessionResponse], error)
	DeleteSession(context.Context, *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error)
	AddTransaction(context.Context, *connect.Request[AddTransactionRequest]) (*connect.Response[SessionResponse], error)
	RemoveTransaction(context.Context, *connect.Request[RemoveTransactionRequest]) (*connect.Response[SessionResponse], error)
	ClaimItem(context.Context, *connect.Request[ClaimItemRequest]) (*connect.Response[SessionResponse], error)
	GetSettlement(context.Context, *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error)
	CalculateSplit(context.Context, *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error)
	MarkSettled(context.Context, *connect.Request[MarkSettledRequest]) (*connect.Response[SessionResponse], error)
}

// NewSessionServiceHandler builds an HTTP handler serving every Session procedure.
// It returns the path prefix to mount it on.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(SessionCreateProcedure, connect.NewUnaryHandler(SessionCreateProcedure, svc.CreateSession, opts...))
	mux.Handle(SessionGetProcedure, connect.NewUnaryHandler(SessionGetProcedure, svc.GetSession, opts...))
	mux.Handle(SessionListProcedure, connect.NewUnaryHandler(SessionListProcedure, svc.ListSessions, opts...))
	mux.Handle(SessionUpdateProcedure, connect.NewUnaryHandler(SessionUpdateProcedure, svc.UpdateSession, opts...))
	mux.Handle(SessionDeleteProcedure, connect.NewUnaryHandler(SessionDeleteProcedure, svc.DeleteSession, opts...))
	mux.Handle(SessionAddTransactionProcedure, connect.NewUnaryHandler(SessionAddTransactionProcedure, svc.AddTransaction, opts...))
	mux.Handle(SessionRemoveTransactionProcedure, connect.NewUnaryHandler(SessionRemoveTransactionProcedure, svc.RemoveTransaction, opts...))
	mux.Handle(SessionClaimItemProcedure, connect.NewUnaryHandler(SessionClaimItemProcedure, svc.ClaimItem, opts...))
	mux.Handle(SessionGetSettlementProcedure, connect.NewUnaryHandler(SessionGetSettlementProcedure, svc.GetSettlement, opts...))
	mux.Handle(SessionCalculateSplitProcedure, connect.NewUnaryHandler(SessionCalculateSplitProcedure, svc.CalculateSplit, opts...))
	mux.Handle(SessionMarkSettledProcedure, connect.NewUnaryHandler(SessionMarkSettledProcedure, svc.MarkSettled, opts...))
	return "/" + SessionServiceName + "/", mux
}

// SubscriptionServiceHandler is implemented by the subscription service.
type SubscriptionServiceHandler interface {
	CreateSubscription(context.Context, *connect.Request[CreateSubscriptionRequest]) (*connect.Response[SubscriptionResponse], error)
	ListSubscriptions(context.Context, *connect.Request[ListSubscriptionsRequest]) (*connect.Response[ListSubscriptionsResponse], error)
	UpdateSubscription(context.Context, *connect.Request[UpdateSubscriptionRequest]) (*connect.Response[SubscriptionResponse], error)
	DeleteSubscription(context.Context, *connect.Request[DeleteSubscriptionRequest]) (*connect.Response[DeleteSubscriptionResponse], error)
	GetSubscriptionSummary(context.Context, *connect.Request[GetSubscriptionSummaryRequest]) (*connect.Response[GetSubscriptionSummaryResponse], error)
}

// NewSubscriptionServiceHandler builds an HTTP handler serving every Subscription procedure.
// It returns the path prefix to mount it on.
func NewSubscriptionServiceHandler(svc SubscriptionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(SubscriptionCreateProcedure, connect.NewUnaryHandler(SubscriptionCreateProcedure, svc.CreateSubscription, opts...))
	mux.Handle(SubscriptionListProcedure, connect.NewUnaryHandler(SubscriptionListProcedure, svc.ListSubscriptions, opts...))
	mux.Handle(SubscriptionUpdateProcedure, connect.NewUnaryHandler(SubscriptionUpdateProcedure, svc.UpdateSubscription, opts...))
	mux.Handle(SubscriptionDeleteProcedure, connect.NewUnaryHandler(SubscriptionDeleteProcedure, svc.DeleteSubscription, opts...))
	mux.Handle(SubscriptionSummaryProcedure, connect.NewUnaryHandler(SubscriptionSummaryProcedure, svc.GetSubscriptionSummary, opts...))
	return "/" + SubscriptionServiceName + "/", mux
}
