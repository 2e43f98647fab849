package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/api/shared"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/service/session"
)

// SessionHandler handles review session HTTP requests
type SessionHandler struct {
	sessionManager session.Manager
	logger         *slog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionManager session.Manager, log *slog.Logger) *SessionHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		sessionManager: sessionManager,
		logger:         log.With(slog.String("component", "session_handler")),
	}
}

// CreateSession handles POST /sessions requests.
// If the caller already has an ACTIVE session for the content type, that
// session is returned unchanged; otherwise a new one is created from the
// given item IDs.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode session request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("session request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: content_type and at least one item_id are required")
		return
	}

	reviewSession, err := h.sessionManager.CreateOrResume(
		r.Context(), userID, domain.ContentType(req.ContentType), req.ItemIDs)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(reviewSession))
}

// CompleteItem handles POST /sessions/{id}/items/{itemID}/complete requests.
// Marking an already completed item is a no-op that returns the current
// session state.
func (h *SessionHandler) CompleteItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	reviewSession, err := h.sessionManager.MarkCompleted(r.Context(), userID, sessionID, itemID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(reviewSession))
}

// CloseSession handles POST /sessions/{id}/close requests.
// Closing completes the session regardless of how many items were finished.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	reviewSession, err := h.sessionManager.Close(r.Context(), userID, sessionID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(reviewSession))
}

// sessionToResponse transforms a domain session into its API response.
func sessionToResponse(s *domain.ReviewSession) SessionResponse {
	itemIDs := make([]string, 0, len(s.ItemIDs))
	for _, id := range s.ItemIDs {
		itemIDs = append(itemIDs, id.String())
	}

	completed := make([]string, 0, len(s.CompletedItemIDs))
	for _, id := range s.CompletedItemIDs {
		completed = append(completed, id.String())
	}

	return SessionResponse{
		ID:               s.ID.String(),
		UserID:           s.UserID.String(),
		ContentType:      s.ContentType.String(),
		ItemIDs:          itemIDs,
		CompletedItemIDs: completed,
		Status:           s.Status.String(),
		CreatedAt:        s.CreatedAt,
		CompletedAt:      s.CompletedAt,
	}
}
