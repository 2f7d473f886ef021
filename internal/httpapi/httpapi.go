// Package httpapi serves the JSON REST endpoints that sit next to the Connect
// services: invitations, receipt scanning, the AI assistant and the activity
// feed, plus health and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mmynk/splithub/internal/assistant"
	"github.com/mmynk/splithub/internal/auth"
	"github.com/mmynk/splithub/internal/invite"
	"github.com/mmynk/splithub/internal/metrics"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/receipt"
	"github.com/mmynk/splithub/internal/storage"
)

const maxJSONBody = 1 << 20

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Store     storage.Store
	Invites   *invite.Service
	Scanner   receipt.Scanner
	Assistant *assistant.Assistant
	JWT       *auth.JWTManager
	// Limiter throttles the AI and receipt endpoints. Nil uses 1 rps with a burst of 5.
	Limiter *middleware.RateLimiter
	// MaxUploadBytes bounds receipt uploads. Zero uses receipt.MaxImageBytes.
	MaxUploadBytes int64
}

// Server holds the REST handlers.
type Server struct {
	store     storage.Store
	invites   *invite.Service
	scanner   receipt.Scanner
	assistant *assistant.Assistant
	jwt       *auth.JWTManager
	limiter   *middleware.RateLimiter
	maxUpload int64
}

// New returns a Server for d.
func New(d Deps) *Server {
	s := &Server{
		store:     d.Store,
		invites:   d.Invites,
		scanner:   d.Scanner,
		assistant: d.Assistant,
		jwt:       d.JWT,
		limiter:   d.Limiter,
		maxUpload: d.MaxUploadBytes,
	}
	if s.limiter == nil {
		s.limiter = middleware.NewRateLimiter(1, 5)
	}
	if s.maxUpload <= 0 || s.maxUpload > receipt.MaxImageBytes {
		s.maxUpload = receipt.MaxImageBytes
	}
	return s
}

// Router registers every REST route on a new gorilla/mux router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public
	api.HandleFunc("/invitations/{code}", s.handleValidateInvitation).Methods(http.MethodGet)

	// Anonymous callers are limited per IP, signed-in callers per user.
	open := api.NewRoute().Subrouter()
	open.Use(middleware.OptionalUser(s.jwt), s.limiter.Handler)
	open.HandleFunc("/receipts/mock-ocr", s.handleMockOCR).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.RequireUser(s.jwt))
	authed.HandleFunc("/invitations", s.handleCreateInvitation).Methods(http.MethodPost)
	authed.HandleFunc("/invitations/{code}/accept", s.handleAcceptInvitation).Methods(http.MethodPost)
	authed.HandleFunc("/ai/chats", s.handleListChats).Methods(http.MethodGet)
	authed.HandleFunc("/ai/chats/{id}", s.handleGetChat).Methods(http.MethodGet)
	authed.HandleFunc("/ai/chats/{id}", s.handleDeleteChat).Methods(http.MethodDelete)
	authed.HandleFunc("/activity", s.handleActivity).Methods(http.MethodGet)

	// Rate limited per user; runs inside RequireUser.
	limited := authed.NewRoute().Subrouter()
	limited.Use(s.limiter.Handler)
	limited.HandleFunc("/receipts/scan", s.handleScanReceipt).Methods(http.MethodPost)
	limited.HandleFunc("/ai/chat", s.handleChat).Methods(http.MethodPost)
	limited.HandleFunc("/ai/receipt-summary", s.handleReceiptSummary).Methods(http.MethodPost)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// storeStatus maps storage errors to an HTTP status.
func storeStatus(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
