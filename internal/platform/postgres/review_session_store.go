package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/store"
)

const reviewSessionColumns = `id, user_id, content_type, item_ids,
	completed_item_ids, status, created_at, completed_at, updated_at`

// PostgresReviewSessionStore implements the store.ReviewSessionStore
// interface using a PostgreSQL database as the storage backend. The
// at-most-one-ACTIVE-session invariant is enforced by a partial unique
// index on (user_id, content_type) WHERE status = 'active', so a creation
// race is resolved by the database, not by client-side checking.
type PostgresReviewSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewSessionStore creates a new PostgreSQL implementation of
// the ReviewSessionStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresReviewSessionStore(db store.DBTX, log *slog.Logger) *PostgresReviewSessionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresReviewSessionStore{
		db:     db,
		logger: log.With(slog.String("component", "review_session_store")),
	}
}

// Ensure PostgresReviewSessionStore implements store.ReviewSessionStore
var _ store.ReviewSessionStore = (*PostgresReviewSessionStore)(nil)

// WithTx implements store.ReviewSessionStore.WithTx
func (s *PostgresReviewSessionStore) WithTx(tx *sql.Tx) store.ReviewSessionStore {
	return &PostgresReviewSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID implements store.ReviewSessionStore.GetByID
func (s *PostgresReviewSessionStore) GetByID(ctx context.Context, sessionID uuid.UUID) (*domain.ReviewSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s
		FROM review_sessions
		WHERE id = $1
	`, reviewSessionColumns)

	session, err := scanReviewSession(s.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get review session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// FindActive implements store.ReviewSessionStore.FindActive
func (s *PostgresReviewSessionStore) FindActive(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
) (*domain.ReviewSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s
		FROM review_sessions
		WHERE user_id = $1 AND content_type = $2 AND status = $3
	`, reviewSessionColumns)

	session, err := scanReviewSession(
		s.db.QueryRowContext(ctx, query, userID, contentType, domain.SessionStatusActive),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to find active review session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("content_type", contentType.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// Create implements store.ReviewSessionStore.Create
// A unique violation on the partial ACTIVE index maps to
// store.ErrActiveSessionExists so the caller can fetch the winning session.
func (s *PostgresReviewSessionStore) Create(ctx context.Context, session *domain.ReviewSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("review session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	itemIDs, completedIDs, err := marshalSessionItems(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO review_sessions (id, user_id, content_type, item_ids,
			completed_item_ids, status, created_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.ContentType,
		itemIDs,
		completedIDs,
		session.Status,
		session.CreatedAt,
		session.CompletedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("active session already exists",
				slog.String("user_id", session.UserID.String()),
				slog.String("content_type", session.ContentType.String()))
			return store.ErrActiveSessionExists
		}
		log.Error("failed to create review session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Info("review session created",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.Int("item_count", len(session.ItemIDs)))
	return nil
}

// Update implements store.ReviewSessionStore.Update
func (s *PostgresReviewSessionStore) Update(ctx context.Context, session *domain.ReviewSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("review session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, completedIDs, err := marshalSessionItems(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE review_sessions
		SET completed_item_ids = $1, status = $2, completed_at = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		completedIDs,
		session.Status,
		session.CompletedAt,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		log.Error("failed to update review session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "review session"); err != nil {
		return store.ErrSessionNotFound
	}

	return nil
}

// marshalSessionItems serializes the session's ID lists for the JSONB
// item_ids and completed_item_ids columns.
func marshalSessionItems(session *domain.ReviewSession) ([]byte, []byte, error) {
	itemIDs, err := json.Marshal(session.ItemIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal item IDs: %w", err)
	}

	completed := session.CompletedItemIDs
	if completed == nil {
		completed = []uuid.UUID{}
	}
	completedIDs, err := json.Marshal(completed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal completed item IDs: %w", err)
	}

	return itemIDs, completedIDs, nil
}

func scanReviewSession(row rowScanner) (*domain.ReviewSession, error) {
	var session domain.ReviewSession
	var contentType, status string
	var itemIDs, completedIDs []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&contentType,
		&itemIDs,
		&completedIDs,
		&status,
		&session.CreatedAt,
		&completedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.ContentType = domain.ContentType(contentType)
	session.Status = domain.SessionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}

	if err := json.Unmarshal(itemIDs, &session.ItemIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item IDs: %w", err)
	}
	if err := json.Unmarshal(completedIDs, &session.CompletedItemIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed item IDs: %w", err)
	}

	return &session, nil
}
