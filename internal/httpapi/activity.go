package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/models"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxActivityLimit)
	}

	entries, err := s.store.ListActivityForUser(r.Context(), userID, limit)
	if err != nil {
		slog.Error("ListActivity failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load activity")
		return
	}
	if entries == nil {
		entries = []*models.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}
