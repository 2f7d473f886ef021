package api

// PackageName prefixes every service name.
const PackageName = "splithub.v1"

// Fully-qualified service names.
const (
	AuthServiceName         = PackageName + ".AuthService"
	GroupServiceName        = PackageName + ".GroupService"
	SessionServiceName      = PackageName + ".SessionService"
	SubscriptionServiceName = PackageName + ".SubscriptionService"
)

// Procedure paths, "/<service>/<method>".
const (
	AuthRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthLogoutProcedure         = "/" + AuthServiceName + "/Logout"
	AuthGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"

	GroupCreateProcedure        = "/" + GroupServiceName + "/CreateGroup"
	GroupGetProcedure           = "/" + GroupServiceName + "/GetGroup"
	GroupListProcedure          = "/" + GroupServiceName + "/ListGroups"
	GroupUpdateProcedure        = "/" + GroupServiceName + "/UpdateGroup"
	GroupDeleteProcedure        = "/" + GroupServiceName + "/DeleteGroup"
	GroupBalancesProcedure      = "/" + GroupServiceName + "/GetGroupBalances"
	GroupRecordPaymentProcedure = "/" + GroupServiceName + "/RecordPayment"
	GroupListPaymentsProcedure  = "/" + GroupServiceName + "/ListPayments"
	GroupDeletePaymentProcedure = "/" + GroupServiceName + "/DeletePayment"

	SessionCreateProcedure            = "/" + SessionServiceName + "/CreateSession"
	SessionGetProcedure               = "/" + SessionServiceName + "/GetSession"
	SessionListProcedure              = "/" + SessionServiceName + "/ListSessions"
	SessionUpdateProcedure            = "/" + SessionServiceName + "/UpdateSession"
	SessionDeleteProcedure            = "/" + SessionServiceName + "/DeleteSession"
	SessionAddTransactionProcedure    = "/" + SessionServiceName + "/AddTransaction"
	SessionRemoveTransactionProcedure = "/" + SessionServiceName + "/RemoveTransaction"
	SessionClaimItemProcedure         = "/" + SessionServiceName + "/ClaimItem"
	SessionGetSettlementProcedure     = "/" + SessionServiceName + "/GetSettlement"
	SessionCalculateSplitProcedure    = "/" + SessionServiceName + "/CalculateSplit"
	SessionMarkSettledProcedure       = "/" + SessionServiceName + "/MarkSettled"

	SubscriptionCreateProcedure  = "/" + SubscriptionServiceName + "/CreateSubscription"
	SubscriptionListProcedure    = "/" + SubscriptionServiceName + "/ListSubscriptions"
	SubscriptionUpdateProcedure  = "/" + SubscriptionServiceName + "/UpdateSubscription"
	SubscriptionDeleteProcedure  = "/" + SubscriptionServiceName + "/DeleteSubscription"
	SubscriptionSummaryProcedure = "/" + SubscriptionServiceName + "/GetSubscriptionSummary"
)

// PublicProcedures can be called without a bearer token.
var PublicProcedures = map[string]bool{
	AuthRegisterProcedure: true,
	AuthLoginProcedure:    true,
}
