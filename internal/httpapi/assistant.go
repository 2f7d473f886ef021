package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/splithub/internal/assistant"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/models"
)

type chatRequest struct {
	ChatID  string `json:"chatId,omitempty"`
	Message string `json:"message"`
}

type chatResponse struct {
	Chat     *models.ChatSession `json:"chat"`
	Messages []*models.Message   `json:"messages"`
}

type summaryRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	assistant.SummaryInput
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// handleChat answers 200 whenever a reply could be produced, including the
// fallback reply when the model fails.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.assistant.Chat(r.Context(), userID, req.ChatID, req.Message)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, assistant.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
		return
	case err != nil:
		slog.Error("Chat failed", "user_id", userID, "chat_id", req.ChatID, "error", err)
		writeError(w, storeStatus(err), "chat unavailable")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	chats, err := s.store.ListChats(r.Context(), userID)
	if err != nil {
		slog.Error("ListChats failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not list chats")
		return
	}
	if chats == nil {
		chats = []*models.ChatSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

// ownedChat loads the chat in the route and checks the caller owns it.
func (s *Server) ownedChat(w http.ResponseWriter, r *http.Request) (*models.ChatSession, bool) {
	userID := middleware.GetUserID(r.Context())
	chat, err := s.store.GetChat(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return nil, false
	}
	if chat.UserID != userID {
		writeError(w, http.StatusForbidden, assistant.ErrForbidden.Error())
		return nil, false
	}
	return chat, true
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, ok := s.ownedChat(w, r)
	if !ok {
		return
	}

	messages, err := s.store.ListMessages(r.Context(), chat.ID, 0)
	if err != nil {
		slog.Error("ListMessages failed", "chat_id", chat.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	writeJSON(w, http.StatusOK, chatResponse{Chat: chat, Messages: messages})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chat, ok := s.ownedChat(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteChat(r.Context(), chat.ID); err != nil {
		slog.Error("DeleteChat failed", "chat_id", chat.ID, "error", err)
		writeError(w, storeStatus(err), "could not delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReceiptSummary narrates either a stored session or the posted items.
// Model failures still answer 200 with the fallback summary.
func (s *Server) handleReceiptSummary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req summaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := req.SummaryInput
	if req.SessionID != "" {
		session, err := s.store.GetSession(r.Context(), req.SessionID)
		if err != nil {
			writeError(w, storeStatus(err), err.Error())
			return
		}
		if !session.HasParticipant(userID) {
			writeError(w, http.StatusForbidden, "you must be a participant in this session")
			return
		}
		in = assistant.SummaryFromSession(session)
	}
	if len(in.Items) == 0 {
		writeError(w, http.StatusBadRequest, "sessionId or items required")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{Summary: s.assistant.ReceiptSummary(r.Context(), in)})
}
