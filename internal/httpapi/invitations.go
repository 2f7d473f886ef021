package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mmynk/splithub/internal/invite"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/storage"
)

type createInvitationRequest struct {
	SessionID string  `json:"sessionId"`
	TTLHours  float64 `json:"ttlHours,omitempty"`
}

type acceptInvitationResponse struct {
	SessionID    string   `json:"sessionId"`
	Title        string   `json:"title"`
	GroupID      string   `json:"groupId,omitempty"`
	Participants []string `json:"participants"`
}

func inviteStatus(err error) int {
	switch {
	case errors.Is(err, invite.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, invite.ErrNotCreator):
		return http.StatusForbidden
	case errors.Is(err, invite.ErrExpired):
		return http.StatusGone
	case errors.Is(err, invite.ErrUsed), errors.Is(err, invite.ErrAlreadyParticipant):
		return http.StatusConflict
	case errors.Is(err, invite.ErrCodeSpace):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createInvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId required")
		return
	}
	if req.TTLHours < 0 {
		writeError(w, http.StatusBadRequest, "ttlHours cannot be negative")
		return
	}

	ttl := time.Duration(req.TTLHours * float64(time.Hour))
	created, err := s.invites.Create(r.Context(), userID, req.SessionID, ttl)
	if err != nil {
		slog.Warn("Create invitation failed", "session_id", req.SessionID, "user_id", userID, "error", err)
		writeError(w, inviteStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleValidateInvitation(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	v, err := s.invites.Validate(r.Context(), code)
	if err != nil {
		slog.Error("Validate invitation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not check invitation")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	code := mux.Vars(r)["code"]

	session, err := s.invites.Accept(r.Context(), userID, code)
	if err != nil {
		slog.Warn("Accept invitation failed", "user_id", userID, "error", err)
		writeError(w, inviteStatus(err), err.Error())
		return
	}
	slog.Info("Invitation accepted", "session_id", session.ID, "user_id", userID, "email", middleware.GetEmail(r.Context()))
	writeJSON(w, http.StatusOK, acceptInvitationResponse{
		SessionID:    session.ID,
		Title:        session.Title,
		GroupID:      session.GroupID,
		Participants: session.Participants,
	})
}
