package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmed/recall-api/internal/api"
	apiMiddleware "github.com/recallmed/recall-api/internal/api/middleware"
	"github.com/recallmed/recall-api/internal/domain/srs"
	"github.com/recallmed/recall-api/internal/platform/memory"
	"github.com/recallmed/recall-api/internal/service/queue"
	"github.com/recallmed/recall-api/internal/service/recovery"
	"github.com/recallmed/recall-api/internal/service/review"
	"github.com/recallmed/recall-api/internal/service/session"
)

// newTestRouter wires the full API over in-memory stores.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	items := memory.NewReviewItemStore()
	sessions := memory.NewReviewSessionStore()

	srsService := srs.NewDefaultService()
	sessionManager := session.NewManager(sessions, nil)
	reviewService := review.NewReviewService(items, sessionManager, srsService, nil, nil)
	queueBuilder := queue.NewBuilder(items, 0, nil, nil)
	recoveryService := recovery.NewService(items, 7, srsService.NewItemDefaults(), nil)

	reviewHandler := api.NewReviewHandler(reviewService, queueBuilder, testLogger())
	sessionHandler := api.NewSessionHandler(sessionManager, testLogger())
	recoveryHandler := api.NewRecoveryHandler(recoveryService, testLogger())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.IdentityMiddleware)
		r.Post("/reviews/grade", reviewHandler.GradeReview)
		r.Get("/reviews/queue", reviewHandler.GetQueue)
		r.Post("/sessions", sessionHandler.CreateSession)
		r.Post("/sessions/{id}/items/{itemID}/complete", sessionHandler.CompleteItem)
		r.Post("/sessions/{id}/close", sessionHandler.CloseSession)
		r.Get("/reviews/overdue/stats", recoveryHandler.GetOverdueStats)
		r.Post("/reviews/overdue/reschedule", recoveryHandler.RescheduleOverdue)
		r.Post("/reviews/bulk/delete", recoveryHandler.BulkDelete)
		r.Post("/reviews/bulk/reset", recoveryHandler.BulkReset)
	})
	return r
}

func doJSON(
	t *testing.T,
	router http.Handler,
	method, path string,
	userID uuid.UUID,
	body interface{},
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set(apiMiddleware.UserIDHeader, userID.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGradeReviewEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()
	contentID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/reviews/grade", userID, map[string]interface{}{
		"content_type": "question",
		"content_id":   contentID.String(),
		"grade":        "good",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.ReviewItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, contentID.String(), resp.ContentID)
	assert.Equal(t, "learning", resp.State)
	assert.Equal(t, 1, resp.IntervalDays)
	assert.Equal(t, 1, resp.Repetitions)
}

func TestGradeReviewEndpointValidation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()

	testCases := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "missing grade",
			body: map[string]interface{}{
				"content_type": "question",
				"content_id":   uuid.New().String(),
			},
		},
		{
			name: "unknown grade",
			body: map[string]interface{}{
				"content_type": "question",
				"content_id":   uuid.New().String(),
				"grade":        "perfect",
			},
		},
		{
			name: "unknown content type",
			body: map[string]interface{}{
				"content_type": "podcast",
				"content_id":   uuid.New().String(),
				"grade":        "good",
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := doJSON(t, router, http.MethodPost, "/api/reviews/grade", userID, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGradeReviewRequiresIdentity(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/reviews/grade", uuid.Nil, map[string]interface{}{
		"content_type": "question",
		"content_id":   uuid.New().String(),
		"grade":        "good",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueueEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()

	// Grade three items so they exist, then fetch the queue; all were just
	// reviewed so none are due yet. Add new exposure via grading with a
	// backdated reviewed_at so something is due now.
	backdated := time.Now().UTC().AddDate(0, 0, -2)
	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/reviews/grade", userID, map[string]interface{}{
			"content_type": "flashcard",
			"content_id":   uuid.New().String(),
			"grade":        "good",
			"reviewed_at":  backdated.Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/reviews/queue", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Total)
	for _, entry := range resp.Entries {
		assert.Equal(t, "flashcard", entry.ContentType)
		assert.True(t, entry.IsOverdue, "due yesterday means overdue today")
	}

	// Queue assembly must not consume anything: a second call sees the
	// same entries.
	rec = doJSON(t, router, http.MethodGet, "/api/reviews/queue", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var second api.QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, resp, second)
}

func TestQueueEndpointAsOf(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()

	// A fresh GOOD grade schedules the item one day out, so it is absent
	// from today's queue but present when dueness is evaluated in the future.
	rec := doJSON(t, router, http.MethodPost, "/api/reviews/grade", userID, map[string]interface{}{
		"content_type": "flashcard",
		"content_id":   uuid.New().String(),
		"grade":        "good",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/reviews/queue", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var today api.QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &today))
	assert.Zero(t, today.Total)

	asOf := time.Now().UTC().AddDate(0, 0, 2).Format(time.RFC3339)
	rec = doJSON(t, router, http.MethodGet, "/api/reviews/queue?as_of="+url.QueryEscape(asOf), userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var future api.QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &future))
	assert.Equal(t, 1, future.Total)

	rec = doJSON(t, router, http.MethodGet, "/api/reviews/queue?as_of=yesterday", userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueEndpointRejectsBadLimit(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/reviews/queue?limit=abc", uuid.New(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()
	itemIDs := []string{uuid.New().String(), uuid.New().String()}

	rec := doJSON(t, router, http.MethodPost, "/api/sessions", userID, map[string]interface{}{
		"content_type": "question",
		"item_ids":     itemIDs,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "active", created.Status)

	// Creating again resumes the same session.
	rec = doJSON(t, router, http.MethodPost, "/api/sessions", userID, map[string]interface{}{
		"content_type": "question",
		"item_ids":     []string{uuid.New().String()},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resumed api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resumed))
	assert.Equal(t, created.ID, resumed.ID)

	// Complete the first item.
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/sessions/%s/items/%s/complete", created.ID, itemIDs[0]), userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var progressed api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progressed))
	assert.Equal(t, "active", progressed.Status)
	assert.Len(t, progressed.CompletedItemIDs, 1)

	// Completing an item outside the snapshot is a 400.
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/sessions/%s/items/%s/complete", created.ID, uuid.New()), userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Close early.
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/sessions/%s/close", created.ID), userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var closed api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &closed))
	assert.Equal(t, "completed", closed.Status)
	assert.NotNil(t, closed.CompletedAt)
}

func TestSessionEndpointsHideForeignSessions(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	owner := uuid.New()
	itemID := uuid.New().String()

	rec := doJSON(t, router, http.MethodPost, "/api/sessions", owner, map[string]interface{}{
		"content_type": "question",
		"item_ids":     []string{itemID},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	stranger := uuid.New()
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/sessions/%s/close", created.ID), stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverdueStatsAndRescheduleEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()

	// Create overdue backlog through backdated grading.
	backdated := time.Now().UTC().AddDate(0, 0, -10)
	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/reviews/grade", userID, map[string]interface{}{
			"content_type": "flashcard",
			"content_id":   uuid.New().String(),
			"grade":        "good",
			"reviewed_at":  backdated.Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/reviews/overdue/stats?as_of=lastweek", userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/reviews/overdue/stats", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats api.OverdueStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalOverdue)
	assert.Equal(t, 3, stats.ByType["flashcard"])
	assert.Equal(t, 3, stats.VeryOverdueCount, "nine days overdue exceeds the 7-day threshold")

	rec = doJSON(t, router, http.MethodPost, "/api/reviews/overdue/reschedule", userID,
		map[string]interface{}{"days_to_distribute": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.RescheduleOverdueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(3), result.Rescheduled)

	// Backlog cleared.
	rec = doJSON(t, router, http.MethodGet, "/api/reviews/overdue/stats", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalOverdue)
}

func TestRescheduleEndpointValidation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/reviews/overdue/reschedule", userID,
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/reviews/overdue/reschedule", userID,
		map[string]interface{}{"days_to_distribute": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	userID := uuid.New()
	contentID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/reviews/grade", userID, map[string]interface{}{
		"content_type": "flashcard",
		"content_id":   contentID.String(),
		"grade":        "good",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Unscoped bulk requests are rejected.
	rec = doJSON(t, router, http.MethodPost, "/api/reviews/bulk/delete", userID,
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Reset scoped by content ID.
	rec = doJSON(t, router, http.MethodPost, "/api/reviews/bulk/reset", userID,
		map[string]interface{}{"content_ids": []string{contentID.String()}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resetResp api.BulkItemsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resetResp))
	assert.Equal(t, int64(1), resetResp.Affected)

	// Delete everything explicitly.
	rec = doJSON(t, router, http.MethodPost, "/api/reviews/bulk/delete", userID,
		map[string]interface{}{"all": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var deleteResp api.BulkItemsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleteResp))
	assert.Equal(t, int64(1), deleteResp.Affected)
}
