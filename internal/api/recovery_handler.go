package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/api/shared"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/service/recovery"
	"github.com/recallmed/recall-api/internal/store"
)

// RecoveryHandler handles overdue inspection and bulk maintenance requests
type RecoveryHandler struct {
	recoveryService recovery.Service
	logger          *slog.Logger
}

// NewRecoveryHandler creates a new RecoveryHandler
func NewRecoveryHandler(recoveryService recovery.Service, log *slog.Logger) *RecoveryHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RecoveryHandler")
	}

	return &RecoveryHandler{
		recoveryService: recoveryService,
		logger:          log.With(slog.String("component", "recovery_handler")),
	}
}

// GetOverdueStats handles GET /reviews/overdue/stats requests.
// Optional repeated content_type query parameters narrow the inspection;
// as_of (RFC 3339) evaluates overdueness at a time other than now.
func (h *RecoveryHandler) GetOverdueStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var contentTypes []domain.ContentType
	for _, raw := range r.URL.Query()["content_type"] {
		ct := domain.ContentType(raw)
		if !ct.IsValid() {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid content type")
			return
		}
		contentTypes = append(contentTypes, ct)
	}

	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid as_of parameter")
			return
		}
		asOf = parsed
	}

	stats, err := h.recoveryService.GetOverdueStats(r.Context(), userID, contentTypes, asOf)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	byType := make(map[string]int, len(stats.ByType))
	for ct, count := range stats.ByType {
		byType[ct.String()] = count
	}

	shared.RespondWithJSON(w, r, http.StatusOK, OverdueStatsResponse{
		TotalOverdue:      stats.TotalOverdue,
		ByType:            byType,
		VeryOverdueCount:  stats.VeryOverdueCount,
		OldestOverdueDays: stats.OldestOverdueDays,
	})
}

// RescheduleOverdue handles POST /reviews/overdue/reschedule requests.
func (h *RecoveryHandler) RescheduleOverdue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req RescheduleOverdueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode reschedule request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("reschedule request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}

	result, err := h.recoveryService.Reschedule(r.Context(), userID, recovery.RescheduleRequest{
		ContentTypes:     parseContentTypes(req.ContentTypes),
		DaysToDistribute: req.DaysToDistribute,
		NewDate:          req.NewDate,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response := RescheduleOverdueResponse{Rescheduled: result.Rescheduled}
	if result.Rescheduled > 0 {
		response.FirstDueAt = &result.FirstDueAt
		response.LastDueAt = &result.LastDueAt
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// BulkDelete handles POST /reviews/bulk/delete requests.
func (h *RecoveryHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, h.recoveryService.BulkDelete)
}

// BulkReset handles POST /reviews/bulk/reset requests.
func (h *RecoveryHandler) BulkReset(w http.ResponseWriter, r *http.Request) {
	h.handleBulk(w, r, h.recoveryService.BulkResetProgress)
}

// handleBulk decodes a scoped bulk request and dispatches it to the given
// recovery operation.
func (h *RecoveryHandler) handleBulk(
	w http.ResponseWriter,
	r *http.Request,
	operation func(ctx context.Context, userID uuid.UUID, filter store.BulkFilter) (int64, error),
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req BulkItemsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode bulk request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("bulk request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}

	affected, err := operation(r.Context(), userID, store.BulkFilter{
		ContentIDs:   req.ContentIDs,
		ContentTypes: parseContentTypes(req.ContentTypes),
		All:          req.All,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BulkItemsResponse{Affected: affected})
}

// parseContentTypes converts validated wire strings into domain types.
func parseContentTypes(raw []string) []domain.ContentType {
	if len(raw) == 0 {
		return nil
	}
	types := make([]domain.ContentType, 0, len(raw))
	for _, s := range raw {
		types = append(types, domain.ContentType(s))
	}
	return types
}
