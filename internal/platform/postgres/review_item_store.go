package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/store"
)

// reviewItemColumns is the column list shared by every SELECT in this file.
const reviewItemColumns = `user_id, content_type, content_id, state, due_at,
	interval_days, stability, repetitions, last_reviewed_at, created_at, updated_at`

// PostgresReviewItemStore implements the store.ReviewItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewItemStore creates a new PostgreSQL implementation of the
// ReviewItemStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresReviewItemStore(db store.DBTX, log *slog.Logger) *PostgresReviewItemStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresReviewItemStore{
		db:     db,
		logger: log.With(slog.String("component", "review_item_store")),
	}
}

// Ensure PostgresReviewItemStore implements store.ReviewItemStore
var _ store.ReviewItemStore = (*PostgresReviewItemStore)(nil)

// WithTx implements store.ReviewItemStore.WithTx
func (s *PostgresReviewItemStore) WithTx(tx *sql.Tx) store.ReviewItemStore {
	return &PostgresReviewItemStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.ReviewItemStore.Get
func (s *PostgresReviewItemStore) Get(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
	contentID uuid.UUID,
) (*domain.ReviewItem, error) {
	return s.get(ctx, userID, contentType, contentID, false)
}

// GetForUpdate implements store.ReviewItemStore.GetForUpdate
// It acquires a row-level lock with SELECT FOR UPDATE and must run inside
// a transaction.
func (s *PostgresReviewItemStore) GetForUpdate(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
	contentID uuid.UUID,
) (*domain.ReviewItem, error) {
	return s.get(ctx, userID, contentType, contentID, true)
}

func (s *PostgresReviewItemStore) get(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
	contentID uuid.UUID,
	forUpdate bool,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s
		FROM review_items
		WHERE user_id = $1 AND content_type = $2 AND content_id = $3
	`, reviewItemColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	item, err := scanReviewItem(s.db.QueryRowContext(ctx, query, userID, contentType, contentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewItemNotFound
		}
		log.Error("failed to get review item",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("content_id", contentID.String()))
		return nil, MapError(err)
	}

	return item, nil
}

// Upsert implements store.ReviewItemStore.Upsert
// The ON CONFLICT target is the (user_id, content_type, content_id) primary
// key, so exactly one record per identity ever exists.
func (s *PostgresReviewItemStore) Upsert(ctx context.Context, item *domain.ReviewItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("review item validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", item.UserID.String()),
			slog.String("content_id", item.ContentID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_items (user_id, content_type, content_id, state, due_at,
			interval_days, stability, repetitions, last_reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, content_type, content_id) DO UPDATE SET
			state = EXCLUDED.state,
			due_at = EXCLUDED.due_at,
			interval_days = EXCLUDED.interval_days,
			stability = EXCLUDED.stability,
			repetitions = EXCLUDED.repetitions,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		item.UserID,
		item.ContentType,
		item.ContentID,
		item.State,
		item.DueAt,
		item.IntervalDays,
		item.Stability,
		item.Repetitions,
		item.LastReviewedAt,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert review item",
			slog.String("error", err.Error()),
			slog.String("user_id", item.UserID.String()),
			slog.String("content_id", item.ContentID.String()))
		return MapError(err)
	}

	return nil
}

// QueryDue implements store.ReviewItemStore.QueryDue
// Due means due_at <= asOf or state NEW; ordered by due_at ascending so the
// most overdue items surface first.
func (s *PostgresReviewItemStore) QueryDue(
	ctx context.Context,
	userID uuid.UUID,
	contentType *domain.ContentType,
	asOf time.Time,
	limit int,
) ([]*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s
		FROM review_items
		WHERE user_id = $1 AND (due_at <= $2 OR state = $3)
	`, reviewItemColumns)
	args := []any{userID, asOf, domain.ItemStateNew}

	if contentType != nil {
		args = append(args, *contentType)
		query += fmt.Sprintf(" AND content_type = $%d", len(args))
	}

	query += " ORDER BY due_at ASC"

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due review items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	return collectReviewItems(rows)
}

// QueryOverdue implements store.ReviewItemStore.QueryOverdue
// Overdue means due_at strictly before the start of the day containing
// asOf; NEW items are never overdue.
func (s *PostgresReviewItemStore) QueryOverdue(
	ctx context.Context,
	userID uuid.UUID,
	contentTypes []domain.ContentType,
	asOf time.Time,
) ([]*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s
		FROM review_items
		WHERE user_id = $1 AND due_at < $2 AND state <> $3
	`, reviewItemColumns)
	args := []any{userID, domain.StartOfDay(asOf), domain.ItemStateNew}

	if len(contentTypes) > 0 {
		placeholders := make([]string, 0, len(contentTypes))
		for _, ct := range contentTypes {
			args = append(args, ct)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += fmt.Sprintf(" AND content_type IN (%s)", strings.Join(placeholders, ", "))
	}

	query += " ORDER BY due_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query overdue review items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	return collectReviewItems(rows)
}

// UpdateDueDates implements store.ReviewItemStore.UpdateDueDates
// Callers wanting atomicity run this through WithTx.
func (s *PostgresReviewItemStore) UpdateDueDates(
	ctx context.Context,
	userID uuid.UUID,
	updates []store.DueDateUpdate,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE review_items
		SET due_at = $1, updated_at = $2
		WHERE user_id = $3 AND content_type = $4 AND content_id = $5
	`

	now := time.Now().UTC()
	var affected int64
	for _, u := range updates {
		result, err := s.db.ExecContext(ctx, query, u.DueAt, now, userID, u.ContentType, u.ContentID)
		if err != nil {
			log.Error("failed to update review item due date",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("content_id", u.ContentID.String()))
			return affected, MapError(err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return affected, fmt.Errorf("failed to get rows affected: %w", err)
		}
		affected += n
	}

	return affected, nil
}

// BulkDelete implements store.ReviewItemStore.BulkDelete
// An unscoped filter deletes nothing; callers must be unambiguous about
// intent.
func (s *PostgresReviewItemStore) BulkDelete(
	ctx context.Context,
	userID uuid.UUID,
	filter store.BulkFilter,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !filter.IsScoped() {
		return 0, nil
	}

	query := "DELETE FROM review_items WHERE user_id = $1"
	query, args := appendFilter(query, []any{userID}, filter)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to bulk delete review items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("bulk deleted review items",
		slog.String("user_id", userID.String()),
		slog.Int64("count", n))
	return n, nil
}

// BulkReset implements store.ReviewItemStore.BulkReset
// State returns to NEW and progress is cleared; last_reviewed_at is
// deliberately left untouched so review history survives the reset.
func (s *PostgresReviewItemStore) BulkReset(
	ctx context.Context,
	userID uuid.UUID,
	filter store.BulkFilter,
	initialStability float64,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !filter.IsScoped() {
		return 0, nil
	}

	now := time.Now().UTC()
	query := `
		UPDATE review_items
		SET state = $2, repetitions = 0, interval_days = 1, stability = $3,
			due_at = $4, updated_at = $4
		WHERE user_id = $1
	`
	query, args := appendFilter(query, []any{userID, domain.ItemStateNew, initialStability, now}, filter)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to bulk reset review items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("bulk reset review items",
		slog.String("user_id", userID.String()),
		slog.Int64("count", n))
	return n, nil
}

// appendFilter extends a WHERE clause with the bulk filter's content ID and
// content type constraints, returning the final query and argument list.
func appendFilter(query string, args []any, filter store.BulkFilter) (string, []any) {
	if len(filter.ContentIDs) > 0 {
		placeholders := make([]string, 0, len(filter.ContentIDs))
		for _, id := range filter.ContentIDs {
			args = append(args, id)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += fmt.Sprintf(" AND content_id IN (%s)", strings.Join(placeholders, ", "))
	}

	if len(filter.ContentTypes) > 0 {
		placeholders := make([]string, 0, len(filter.ContentTypes))
		for _, ct := range filter.ContentTypes {
			args = append(args, ct)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += fmt.Sprintf(" AND content_type IN (%s)", strings.Join(placeholders, ", "))
	}

	return query, args
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanReviewItem.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReviewItem(row rowScanner) (*domain.ReviewItem, error) {
	var item domain.ReviewItem
	var contentType, state string
	var lastReviewedAt sql.NullTime

	err := row.Scan(
		&item.UserID,
		&contentType,
		&item.ContentID,
		&state,
		&item.DueAt,
		&item.IntervalDays,
		&item.Stability,
		&item.Repetitions,
		&lastReviewedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ContentType = domain.ContentType(contentType)
	item.State = domain.ItemState(state)
	if lastReviewedAt.Valid {
		t := lastReviewedAt.Time
		item.LastReviewedAt = &t
	}

	return &item, nil
}

func collectReviewItems(rows *sql.Rows) ([]*domain.ReviewItem, error) {
	var items []*domain.ReviewItem
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
