package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splithub/internal/calculator"
	"github.com/mmynk/splithub/internal/events"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/models"
	"github.com/mmynk/splithub/internal/storage"
	"github.com/mmynk/splithub/pkg/api"
)

// SessionService implements the Connect SessionService.
type SessionService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewSessionService creates a new SessionService.
func NewSessionService(store storage.Store, publisher events.Publisher) *SessionService {
	return &SessionService{store: store, publisher: publisher}
}

func isParticipant(userID string, participants []string) bool {
	for _, p := range participants {
		if p == userID {
			return true
		}
	}
	return false
}

// findNewParticipants returns participants that are not already in existingMembers.
func findNewParticipants(participants, existingMembers []string) []string {
	memberSet := make(map[string]bool, len(existingMembers))
	for _, m := range existingMembers {
		memberSet[m] = true
	}
	var newOnes []string
	for _, p := range participants {
		if !memberSet[p] {
			newOnes = append(newOnes, p)
		}
	}
	return newOnes
}

// autoAddParticipantsToGroup adds any session participants not already in the group.
func (s *SessionService) autoAddParticipantsToGroup(ctx context.Context, groupID string, participants []string) {
	if groupID == "" {
		return
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Warn("autoAddParticipantsToGroup: failed to get group", "group_id", groupID, "error", err)
		return
	}

	newMembers := findNewParticipants(participants, group.Members)
	if len(newMembers) == 0 {
		return
	}

	if err := s.store.AddGroupMembers(ctx, groupID, newMembers); err != nil {
		slog.Error("autoAddParticipantsToGroup: failed to add members", "group_id", groupID, "error", err)
		return
	}
	slog.Info("Auto-added participants to group", "group_id", groupID, "new_members", newMembers)
}

// participantSession loads a session and checks the caller takes part in it.
func (s *SessionService) participantSession(ctx context.Context, sessionID string) (*models.Session, string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if sessionID == "" {
		return nil, "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session_id required"))
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		slog.Error("Failed to get session", "session_id", sessionID, "error", err)
		return nil, "", storeError(err)
	}
	if !session.HasParticipant(userID) {
		return nil, "", connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a participant in this session"))
	}
	return session, userID, nil
}

func (s *SessionService) save(ctx context.Context, session *models.Session) (*connect.Response[api.SessionResponse], error) {
	if err := s.store.SaveSession(ctx, session); err != nil {
		slog.Error("SaveSession failed", "session_id", session.ID, "error", err)
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(session)}), nil
}

// CreateSession starts a new split-bill session with the caller as participant.
func (s *SessionService) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	slog.Info("CreateSession request received",
		"title", req.Msg.Title,
		"group_id", req.Msg.GroupID,
		"participants_count", len(req.Msg.Participants),
	)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	if req.Msg.GroupID != "" {
		group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
		if err != nil {
			return nil, storeError(err)
		}
		if !group.HasMember(userID) {
			return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a member of this group"))
		}
	}

	session := &models.Session{
		Title:        strings.TrimSpace(req.Msg.Title),
		GroupID:      req.Msg.GroupID,
		CreatedBy:    userID,
		Participants: withMember(userID, req.Msg.Participants),
		Currency:     strings.ToUpper(strings.TrimSpace(req.Msg.Currency)),
	}

	// Save to storage (generates ID, title and timestamps)
	if err := s.store.CreateSession(ctx, session); err != nil {
		slog.Error("CreateSession failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.autoAddParticipantsToGroup(ctx, session.GroupID, session.Participants)

	events.Emit(ctx, s.publisher, events.New(events.SessionCreated, userID,
		fmt.Sprintf("created %q", session.Title)).ForSession(session))

	slog.Info("Session created", "session_id", session.ID)
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(session)}), nil
}

// GetSession retrieves a session by ID.
func (s *SessionService) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	session, _, err := s.participantSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.SessionResponse{Session: toAPISession(session)}), nil
}

// ListSessions returns the caller's sessions, or a group's sessions when
// GroupID is set and the caller is a member.
func (s *SessionService) ListSessions(ctx context.Context, req *connect.Request[api.ListSessionsRequest]) (*connect.Response[api.ListSessionsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	var (
		sessions []*models.Session
		err      error
	)
	if req.Msg.GroupID != "" {
		group, gerr := s.store.GetGroup(ctx, req.Msg.GroupID)
		if gerr != nil {
			slog.Error("ListSessions: failed to get group", "group_id", req.Msg.GroupID, "error", gerr)
			return nil, storeError(gerr)
		}
		if !group.HasMember(userID) {
			return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a member of this group"))
		}
		sessions, err = s.store.ListSessionsByGroup(ctx, group.ID)
	} else {
		sessions, err = s.store.ListSessionsForUser(ctx, userID)
	}
	if err != nil {
		slog.Error("ListSessions failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Session, len(sessions))
	for i, session := range sessions {
		out[i] = toAPISession(session)
	}
	return connect.NewResponse(&api.ListSessionsResponse{Sessions: out}), nil
}

// UpdateSession changes the title, currency or participant list. Everyone
// who paid for or claimed something must stay a participant.
func (s *SessionService) UpdateSession(ctx context.Context, req *connect.Request[api.UpdateSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	slog.Info("UpdateSession request received", "session_id", req.Msg.SessionID)

	session, _, err := s.participantSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(req.Msg.Title); title != "" {
		session.Title = title
	}
	if currency := strings.TrimSpace(req.Msg.Currency); currency != "" {
		session.Currency = strings.ToUpper(currency)
	}
	if req.Msg.Participants != nil {
		participants := withMember(session.CreatedBy, req.Msg.Participants)
		for _, id := range involved(session) {
			if !isParticipant(id, participants) {
				return nil, connect.NewError(connect.CodeFailedPrecondition,
					fmt.Errorf("%s still has expenses in this session", id))
			}
		}
		session.Participants = participants
	}

	resp, err := s.save(ctx, session)
	if err != nil {
		return nil, err
	}
	s.autoAddParticipantsToGroup(ctx, session.GroupID, session.Participants)
	return resp, nil
}

// involved lists everyone referenced by a transaction in the session.
func involved(session *models.Session) []string {
	var ids []string
	for _, tx := range session.Transactions {
		ids = append(ids, tx.PaidBy)
		ids = append(ids, tx.SplitAmong...)
		for id := range tx.Shares {
			ids = append(ids, id)
		}
		for _, it := range tx.Items {
			ids = append(ids, it.Participants...)
		}
	}
	return ids
}

// DeleteSession removes a session. Only its creator may do this.
func (s *SessionService) DeleteSession(ctx context.Context, req *connect.Request[api.DeleteSessionRequest]) (*connect.Response[api.DeleteSessionResponse], error) {
	slog.Info("DeleteSession request received", "session_id", req.Msg.SessionID)

	session, userID, err := s.participantSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the session creator can delete it"))
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil {
		slog.Error("DeleteSession failed", "error", err)
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.DeleteSessionResponse{}), nil
}

// AddTransaction appends an expense to an open session.
func (s *SessionService) AddTransaction(ctx context.Context, req *connect.Request[api.AddTransactionRequest]) (*connect.Response[api.SessionResponse], error) {
	slog.Info("AddTransaction request received", "session_id", req.Msg.SessionID)

	session, userID, err := s.participantSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionSettled {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("session is settled"))
	}
	if req.Msg.Transaction == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("transaction required"))
	}

	tx, err := buildTransaction(req.Msg.Transaction, userID, session.Participants)
	if err != nil {
		slog.Warn("AddTransaction validation failed", "session_id", session.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	session.Transactions = append(session.Transactions, tx)

	resp, err := s.save(ctx, session)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.New(events.TransactionAdded, userID,
		fmt.Sprintf("added %q (%.2f %s)", tx.Description, tx.Amount, session.Currency)).ForSession(session))

	slog.Info("Transaction added", "session_id", session.ID, "transaction_id", tx.ID, "split_type", tx.SplitType)
	return resp, nil
}

// buildTransaction validates an incoming transaction against the session's
// participants and fills in IDs and defaults.
func buildTransaction(in *api.Transaction, callerID string, participants []string) (models.Transaction, error) {
	tx := models.Transaction{
		ID:          uuid.New().String(),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		PaidBy:      in.PaidBy,
		SplitType:   models.SplitType(in.SplitType),
		Tax:         in.Tax,
		Tip:         in.Tip,
		CreatedAt:   time.Now().Unix(),
	}
	if tx.PaidBy == "" {
		tx.PaidBy = callerID
	}
	if tx.SplitType == "" {
		tx.SplitType = models.SplitEqual
	}
	if tx.Description == "" {
		return tx, fmt.Errorf("description required")
	}
	if !isParticipant(tx.PaidBy, participants) {
		return tx, fmt.Errorf("payer %s is not a participant", tx.PaidBy)
	}
	if tx.Amount < 0 || tx.Tax < 0 || tx.Tip < 0 {
		return tx, calculator.ErrNegativeAmount
	}

	checkPeople := func(ids []string) error {
		for _, id := range ids {
			if !isParticipant(id, participants) {
				return fmt.Errorf("%s is not a participant", id)
			}
		}
		return nil
	}

	switch tx.SplitType {
	case models.SplitEqual:
		if err := checkPeople(in.SplitAmong); err != nil {
			return tx, err
		}
		tx.SplitAmong = in.SplitAmong

	case models.SplitCustom:
		people := make([]string, 0, len(in.Shares))
		for id := range in.Shares {
			people = append(people, id)
		}
		if err := checkPeople(people); err != nil {
			return tx, err
		}
		shares, err := calculator.SplitCustom(tx.Amount, in.Shares)
		if err != nil {
			return tx, err
		}
		tx.Shares = shares

	case models.SplitItemized:
		if len(in.Items) == 0 {
			return tx, fmt.Errorf("itemized transactions need at least one item")
		}
		var subtotal float64
		for _, it := range in.Items {
			if it == nil || strings.TrimSpace(it.Name) == "" {
				return tx, fmt.Errorf("every item needs a name")
			}
			if it.Price < 0 {
				return tx, calculator.ErrNegativeAmount
			}
			if err := checkPeople(it.Participants); err != nil {
				return tx, err
			}
			item := models.ReceiptItem{
				ID:           uuid.New().String(),
				Name:         strings.TrimSpace(it.Name),
				Price:        it.Price,
				Quantity:     it.Quantity,
				Participants: it.Participants,
			}
			if item.Quantity <= 0 {
				item.Quantity = 1
			}
			subtotal += item.LineTotal()
			tx.Items = append(tx.Items, item)
		}
		// Amount defaults to the receipt total and must match it when given.
		total := calculator.RoundCents(subtotal + tx.Tax + tx.Tip)
		if tx.Amount == 0 {
			tx.Amount = total
		} else if math.Abs(tx.Amount-total) > 0.01 {
			return tx, fmt.Errorf("%w: amount=%.2f items=%.2f", calculator.ErrItemsMismatch, tx.Amount, total)
		}

	default:
		return tx, fmt.Errorf("unknown split type %q", in.SplitType)
	}

	if tx.Amount <= 0 {
		return tx, fmt.Errorf("amount must be positive")
	}
	return tx, nil
}

// RemoveTransaction deletes one expense from a session.
func (s *SessionService) RemoveTransaction(ctx context.Context, req *connect.Request[api.RemoveTransactionRequest]) (*connect.Response[api.SessionResponse], error) {
	slog.Info("RemoveTransaction request received",
		"session_id", req.Msg.SessionID,
		"transaction_id", req.Msg.TransactionID,
	)

	session, _, err := s.participantSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	idx := session.FindTransaction(req.Msg.TransactionID)
	if idx < 0 {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("transaction %s: %w", req.Msg.TransactionID, storage.ErrNotFound))
	}
	session.Transactions = append(session.Transactions[:idx], session.Transactions[idx+1:]...)

	return s.save(ctx, session)
}

// ClaimItem attaches the caller to a receipt item, or detaches them.
func (s *SessionService) ClaimItem(ctx context.Context, req *connect.Request[api.ClaimItemRequest]) (*connect.Response[api.SessionResponse], error) {
	msg := req.Msg
	slog.Info("ClaimItem request received",
		"session_id", msg.SessionID,
		"transaction_id", msg.TransactionID,
		"item_id", msg.ItemID,
		"unclaim", msg.Unclaim,
	)

	session, userID, err := s.participantSession(ctx, msg.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionSettled {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("session is settled"))
	}

	txIdx := session.FindTransaction(msg.TransactionID)
	if txIdx < 0 {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("transaction %s: %w", msg.TransactionID, storage.ErrNotFound))
	}
	tx := &session.Transactions[txIdx]

	var item *models.ReceiptItem
	for i := range tx.Items {
		if tx.Items[i].ID == msg.ItemID {
			item = &tx.Items[i]
			break
		}
	}
	if item == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("item %s: %w", msg.ItemID, storage.ErrNotFound))
	}

	claimed := isParticipant(userID, item.Participants)
	switch {
	case msg.Unclaim && claimed:
		kept := item.Participants[:0:0]
		for _, p := range item.Participants {
			if p != userID {
				kept = append(kept, p)
			}
		}
		item.Participants = kept
	case !msg.Unclaim && !claimed:
		item.Participants = append(item.Participants, userID)
	default:
		// Already in the requested state.
		return connect.NewResponse(&api.SessionResponse{Session: toAPISession(session)}), nil
	}

	resp, err := s.save(ctx, session)
	if err != nil {
		return nil, err
	}
	if !msg.Unclaim {
		events.Emit(ctx, s.publisher, events.New(events.ItemClaimed, userID,
			fmt.Sprintf("claimed %q", item.Name)).ForSession(session))
	}
	return resp, nil
}

// GetSettlement computes balances and the minimal transfer list for a session.
func (s *SessionService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	slog.Info("GetSettlement request received", "session_id", req.Msg.SessionID)

	session, _, err := s.participantSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	in := calculator.FromSession(session)
	memberBalances, _ := calculator.GroupBalances([]calculator.SessionForBalance{in}, nil)
	transfers := calculator.SettleDebts(in.Participants, in.Transactions)

	balances := make([]*api.MemberBalance, len(memberBalances))
	for i, bal := range memberBalances {
		balances[i] = &api.MemberBalance{
			UserID:     bal.MemberID,
			NetBalance: bal.NetBalance,
			TotalPaid:  bal.TotalPaid,
			TotalOwed:  bal.TotalOwed,
		}
	}

	var unclaimed []models.ReceiptItem
	for _, tx := range session.Transactions {
		if tx.SplitType != models.SplitItemized {
			continue
		}
		for _, it := range tx.Items {
			if len(it.Participants) == 0 {
				unclaimed = append(unclaimed, it)
			}
		}
	}

	slog.Info("GetSettlement successful",
		"session_id", session.ID,
		"transfers_count", len(transfers),
		"unclaimed_count", len(unclaimed),
	)

	return connect.NewResponse(&api.GetSettlementResponse{
		Total:          calculator.RoundCents(session.Total()),
		Balances:       balances,
		Transfers:      toAPIDebts(transfers),
		UnclaimedItems: toAPIItems(unclaimed),
	}), nil
}

// CalculateSplit previews a receipt split with proportional tax. Nothing is stored.
func (s *SessionService) CalculateSplit(ctx context.Context, req *connect.Request[api.CalculateSplitRequest]) (*connect.Response[api.CalculateSplitResponse], error) {
	items := make([]calculator.Item, 0, len(req.Msg.Items))
	for i, item := range req.Msg.Items {
		if item == nil {
			continue
		}
		slog.Debug("Processing item",
			"index", i+1,
			"name", item.Name,
			"price", item.Price,
			"participants", item.Participants,
		)
		items = append(items, calculator.Item{
			Name:         item.Name,
			Price:        item.Price,
			Quantity:     item.Quantity,
			Participants: item.Participants,
		})
	}

	splits, err := calculator.PersonShares(items, req.Msg.Total, req.Msg.Subtotal, req.Msg.Participants)
	if err != nil {
		slog.Error("CalculateSplit failed", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	out := make(map[string]*api.PersonSplit, len(splits))
	for person, split := range splits {
		personItems := make([]*api.PersonItem, len(split.Items))
		for i, item := range split.Items {
			personItems[i] = &api.PersonItem{
				Name:   item.Name,
				Amount: calculator.RoundCents(item.Amount),
			}
		}
		out[person] = &api.PersonSplit{
			Subtotal: calculator.RoundCents(split.Subtotal),
			Tax:      calculator.RoundCents(split.Tax),
			Total:    calculator.RoundCents(split.Total),
			Items:    personItems,
		}
	}

	return connect.NewResponse(&api.CalculateSplitResponse{
		Splits:    out,
		TaxAmount: calculator.RoundCents(req.Msg.Total - req.Msg.Subtotal),
		Subtotal:  req.Msg.Subtotal,
	}), nil
}

// MarkSettled closes a session, or reopens it.
func (s *SessionService) MarkSettled(ctx context.Context, req *connect.Request[api.MarkSettledRequest]) (*connect.Response[api.SessionResponse], error) {
	slog.Info("MarkSettled request received", "session_id", req.Msg.SessionID, "reopen", req.Msg.Reopen)

	session, _, err := s.participantSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	if req.Msg.Reopen {
		session.Status = models.SessionOpen
	} else {
		session.Status = models.SessionSettled
	}
	return s.save(ctx, session)
}
