package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/api/shared"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/service/queue"
	"github.com/recallmed/recall-api/internal/service/review"
)

// ReviewHandler handles grading and queue HTTP requests
type ReviewHandler struct {
	reviewService review.ReviewService
	queueBuilder  queue.Builder
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(
	reviewService review.ReviewService,
	queueBuilder queue.Builder,
	log *slog.Logger,
) *ReviewHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		queueBuilder:  queueBuilder,
		logger:        log.With(slog.String("component", "review_handler")),
	}
}

// GradeReview handles POST /reviews/grade requests.
// It applies the grading algorithm to one item and returns the new
// scheduling state.
func (h *ReviewHandler) GradeReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req GradeReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode grade request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("grade request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: content_type, content_id and grade are required")
		return
	}

	item, err := h.reviewService.SubmitGrade(r.Context(), userID, review.GradeRequest{
		ContentType: domain.ContentType(req.ContentType),
		ContentID:   req.ContentID,
		Grade:       domain.Grade(req.Grade),
		ReviewedAt:  req.ReviewedAt,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// GetQueue handles GET /reviews/queue requests.
// Optional query parameters: as_of (RFC 3339) evaluates dueness at a time
// other than now, limit caps the total queue size, and limit_<type>
// (e.g. limit_flashcard) caps one content type; a per-type limit of 0
// excludes that type.
func (h *ReviewHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	request := queue.Request{}

	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid as_of parameter")
			return
		}
		request.AsOf = asOf
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		request.TotalLimit = limit
	}

	for _, contentType := range domain.AllContentTypes {
		raw := r.URL.Query().Get("limit_" + contentType.String())
		if raw == "" {
			continue
		}
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid per-type limit parameter")
			return
		}
		if request.TypeLimits == nil {
			request.TypeLimits = make(map[domain.ContentType]int)
		}
		request.TypeLimits[contentType] = limit
	}

	entries, err := h.queueBuilder.BuildQueue(r.Context(), userID, request)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response := QueueResponse{
		Entries: make([]QueueEntryResponse, 0, len(entries)),
		Total:   len(entries),
	}
	for _, entry := range entries {
		response.Entries = append(response.Entries, QueueEntryResponse{
			ContentType: entry.ContentType.String(),
			ContentID:   entry.ContentID.String(),
			State:       entry.State.String(),
			DueAt:       entry.DueAt,
			IsOverdue:   entry.IsOverdue,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// itemToResponse transforms a domain review item into its API response.
func itemToResponse(item *domain.ReviewItem) ReviewItemResponse {
	return ReviewItemResponse{
		UserID:         item.UserID.String(),
		ContentType:    item.ContentType.String(),
		ContentID:      item.ContentID.String(),
		State:          item.State.String(),
		DueAt:          item.DueAt,
		IntervalDays:   item.IntervalDays,
		Stability:      item.Stability,
		Repetitions:    item.Repetitions,
		LastReviewedAt: item.LastReviewedAt,
	}
}
