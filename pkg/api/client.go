package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// AuthClient calls the Auth service.
type AuthClient struct {
	register       *connect.Client[RegisterRequest, AuthResponse]
	login          *connect.Client[LoginRequest, AuthResponse]
	logout         *connect.Client[LogoutRequest, LogoutResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
}

// NewAuthClient creates a client for the server at baseURL.
func NewAuthClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &AuthClient{
		register:       connect.NewClient[RegisterRequest, AuthResponse](httpClient, baseURL+AuthRegisterProcedure, opts...),
		login:          connect.NewClient[LoginRequest, AuthResponse](httpClient, baseURL+AuthLoginProcedure, opts...),
		logout:         connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseURL+AuthLogoutProcedure, opts...),
		getCurrentUser: connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL+AuthGetCurrentUserProcedure, opts...),
	}
}

func (c *AuthClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthClient) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *AuthClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// GroupClient calls the Group service.
type GroupClient struct {
	createGroup      *connect.Client[CreateGroupRequest, GroupResponse]
	getGroup         *connect.Client[GetGroupRequest, GroupResponse]
	listGroups       *connect.Client[ListGroupsRequest, ListGroupsResponse]
	updateGroup      *connect.Client[UpdateGroupRequest, GroupResponse]
	deleteGroup      *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	getGroupBalances *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	recordPayment    *connect.Client[RecordPaymentRequest, PaymentResponse]
	listPayments     *connect.Client[ListPaymentsRequest, ListPaymentsResponse]
	deletePayment    *connect.Client[DeletePaymentRequest, DeletePaymentResponse]
}

// NewGroupClient creates a client for the server at baseURL.
func NewGroupClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &GroupClient{
		createGroup:      connect.NewClient[CreateGroupRequest, GroupResponse](httpClient, baseURL+GroupCreateProcedure, opts...),
		getGroup:         connect.NewClient[GetGroupRequest, GroupResponse](httpClient, baseURL+GroupGetProcedure, opts...),
		listGroups:       connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupListProcedure, opts...),
		updateGroup:      connect.NewClient[UpdateGroupRequest, GroupResponse](httpClient, baseURL+GroupUpdateProcedure, opts...),
		deleteGroup:      connect.NewClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL+GroupDeleteProcedure, opts...),
		getGroupBalances: connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL+GroupBalancesProcedure, opts...),
		recordPayment:    connect.NewClient[RecordPaymentRequest, PaymentResponse](httpClient, baseURL+GroupRecordPaymentProcedure, opts...),
		listPayments:     connect.NewClient[ListPaymentsRequest, ListPaymentsResponse](httpClient, baseURL+GroupListPaymentsProcedure, opts...),
		deletePayment:    connect.NewClient[DeletePaymentRequest, DeletePaymentResponse](httpClient, baseURL+GroupDeletePaymentProcedure, opts...),
	}
}

func (c *GroupClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *GroupClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *GroupClient) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[PaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *GroupClient) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

func (c *GroupClient) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error) {
	return c.deletePayment.CallUnary(ctx, req)
}

// SessionClient calls the Session service.
type SessionClient struct {
	createSession     *connect.Client[CreateSessionRequest, SessionResponse]
	getSession        *connect.Client[GetSessionRequest, SessionResponse]
	listSessions      *connect.Client[ListSessionsRequest, ListSessionsResponse]
	updateSession     *connect.Client[UpdateSessionRequest, SessionResponse]
	deleteSession     *connect.Client[DeleteSessionRequest, DeleteSessionResponse]
	addTransaction    *connect.Client[AddTransactionRequest, SessionResponse]
	removeTransaction *connect.Client[RemoveTransactionRequest, SessionResponse]
	claimItem         *connect.Client[ClaimItemRequest, SessionResponse]
	getSettlement     *connect.Client[GetSettlementRequest, GetSettlementResponse]
	calculateSplit    *connect.Client[CalculateSplitRequest, CalculateSplitResponse]
	markSettled       *connect.Client[MarkSettledRequest, SessionResponse]
}

// NewSessionClient creates a client for the server at baseURL.
func NewSessionClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SessionClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &SessionClient{
		createSession:     connect.NewClient[CreateSessionRequest, SessionResponse](httpClient, baseURL+SessionCreateProcedure, opts...),
		getSession:        connect.NewClient[GetSessionRequest, SessionResponse](httpClient, baseURL+SessionGetProcedure, opts...),
		listSessions:      connect.NewClient[ListSessionsRequest, ListSessionsResponse](httpClient, baseURL+SessionListProcedure, opts...),
		updateSession:     connect.NewClient[UpdateSessionRequest, SessionResponse](httpClient, baseURL+SessionUpdateProcedure, opts...),
		deleteSession:     connect.NewClient[DeleteSessionRequest, DeleteSessionResponse](httpClient, baseURL+SessionDeleteProcedure, opts...),
		addTransaction:    connect.NewClient[AddTransactionRequest, SessionResponse](httpClient, baseURL+SessionAddTransactionProcedure, opts...),
		removeTransaction: connect.NewClient[RemoveTransactionRequest, SessionResponse](httpClient, baseURL+SessionRemoveTransactionProcedure, opts...),
		claimItem:         connect.NewClient[ClaimItemRequest, SessionResponse](httpClient, baseURL+SessionClaimItemProcedure, opts...),
		getSettlement:     connect.NewClient[GetSettlementRequest, GetSettlementResponse](httpClient, baseURL+SessionGetSettlementProcedure, opts...),
		calculateSplit:    connect.NewClient[CalculateSplitRequest, CalculateSplitResponse](httpClient, baseURL+SessionCalculateSplitProcedure, opts...),
		markSettled:       connect.NewClient[MarkSettledRequest, SessionResponse](httpClient, baseURL+SessionMarkSettledProcedure, opts...),
	}
}

func (c *SessionClient) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *SessionClient) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *SessionClient) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	return c.listSessions.CallUnary(ctx, req)
}

func (c *SessionClient) UpdateSession(ctx context.Context, req *connect.Request[UpdateSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.updateSession.CallUnary(ctx, req)
}

func (c *SessionClient) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	return c.deleteSession.CallUnary(ctx, req)
}

func (c *SessionClient) AddTransaction(ctx context.Context, req *connect.Request[AddTransactionRequest]) (*connect.Response[SessionResponse], error) {
	return c.addTransaction.CallUnary(ctx, req)
}

func (c *SessionClient) RemoveTransaction(ctx context.Context, req *connect.Request[RemoveTransactionRequest]) (*connect.Response[SessionResponse], error) {
	return c.removeTransaction.CallUnary(ctx, req)
}

func (c *SessionClient) ClaimItem(ctx context.Context, req *connect.Request[ClaimItemRequest]) (*connect.Response[SessionResponse], error) {
	return c.claimItem.CallUnary(ctx, req)
}

func (c *SessionClient) GetSettlement(ctx context.Context, req *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

func (c *SessionClient) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	return c.calculateSplit.CallUnary(ctx, req)
}

func (c *SessionClient) MarkSettled(ctx context.Context, req *connect.Request[MarkSettledRequest]) (*connect.Response[SessionResponse], error) {
	return c.markSettled.CallUnary(ctx, req)
}

// SubscriptionClient calls the Subscription service.
type SubscriptionClient struct {
	createSubscription     *connect.Client[CreateSubscriptionRequest, SubscriptionResponse]
	listSubscriptions      *connect.Client[ListSubscriptionsRequest, ListSubscriptionsResponse]
	updateSubscription     *connect.Client[UpdateSubscriptionRequest, SubscriptionResponse]
	deleteSubscription     *connect.Client[DeleteSubscriptionRequest, DeleteSubscriptionResponse]
	getSubscriptionSummary *connect.Client[GetSubscriptionSummaryRequest, GetSubscriptionSummaryResponse]
}

// NewSubscriptionClient creates a client for the server at baseURL.
func NewSubscriptionClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SubscriptionClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &SubscriptionClient{
		createSubscription:     connect.NewClient[CreateSubscriptionRequest, SubscriptionResponse](httpClient, baseURL+SubscriptionCreateProcedure, opts...),
		listSubscriptions:      connect.NewClient[ListSubscriptionsRequest, ListSubscriptionsResponse](httpClient, baseURL+SubscriptionListProcedure, opts...),
		updateSubscription:     connect.NewClient[UpdateSubscriptionRequest, SubscriptionResponse](httpClient, baseURL+SubscriptionUpdateProcedure, opts...),
		deleteSubscription:     connect.NewClient[DeleteSubscriptionRequest, DeleteSubscriptionResponse](httpClient, baseURL+SubscriptionDeleteProcedure, opts...),
		getSubscriptionSummary: connect.NewClient[GetSubscriptionSummaryRequest, GetSubscriptionSummaryResponse](httpClient, baseURL+SubscriptionSummaryProcedure, opts...),
	}
}

func (c *SubscriptionClient) CreateSubscription(ctx context.Context, req *connect.Request[CreateSubscriptionRequest]) (*connect.Response[SubscriptionResponse], error) {
	return c.createSubscription.CallUnary(ctx, req)
}

func (c *SubscriptionClient) ListSubscriptions(ctx context.Context, req *connect.Request[ListSubscriptionsRequest]) (*connect.Response[ListSubscriptionsResponse], error) {
	return c.listSubscriptions.CallUnary(ctx, req)
}

func (c *SubscriptionClient) UpdateSubscription(ctx context.Context, req *connect.Request[UpdateSubscriptionRequest]) (*connect.Response[SubscriptionResponse], error) {
	return c.updateSubscription.CallUnary(ctx, req)
}

func (c *SubscriptionClient) DeleteSubscription(ctx context.Context, req *connect.Request[DeleteSubscriptionRequest]) (*connect.Response[DeleteSubscriptionResponse], error) {
	return c.deleteSubscription.CallUnary(ctx, req)
}

func (c *SubscriptionClient) GetSubscriptionSummary(ctx context.Context, req *connect.Request[GetSubscriptionSummaryRequest]) (*connect.Response[GetSubscriptionSummaryResponse], error) {
	return c.getSubscriptionSummary.CallUnary(ctx, req)
}
