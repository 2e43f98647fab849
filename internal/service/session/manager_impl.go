package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/platform/logger"
	"github.com/recallmed/recall-api/internal/store"
)

// Verify interface compliance at compile time
var _ Manager = (*managerImpl)(nil)

// managerImpl implements the Manager interface.
type managerImpl struct {
	sessions store.ReviewSessionStore
	logger   *slog.Logger
}

// NewManager creates a new session Manager backed by the given store.
func NewManager(sessions store.ReviewSessionStore, log *slog.Logger) Manager {
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sessions store cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &managerImpl{
		sessions: sessions,
		logger:   log.With(slog.String("component", "session_manager")),
	}
}

// CreateOrResume implements Manager.CreateOrResume.
func (m *managerImpl) CreateOrResume(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
	itemIDs []uuid.UUID,
) (*domain.ReviewSession, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if existing, err := m.sessions.FindActive(ctx, userID, contentType); err == nil {
		log.Debug("resuming active session",
			slog.String("user_id", userID.String()),
			slog.String("session_id", existing.ID.String()))
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, &ServiceError{Operation: "create_or_resume", Message: "failed to look up active session", Err: err}
	}

	if len(itemIDs) == 0 {
		return nil, ErrNoItems
	}

	session, err := domain.NewReviewSession(userID, contentType, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		// Lost the creation race: another request created the ACTIVE
		// session between our lookup and insert. Return the winner.
		if errors.Is(err, store.ErrActiveSessionExists) {
			winner, findErr := m.sessions.FindActive(ctx, userID, contentType)
			if findErr != nil {
				return nil, &ServiceError{Operation: "create_or_resume", Message: "failed to fetch winning session", Err: findErr}
			}
			log.Debug("session creation race resolved to existing session",
				slog.String("user_id", userID.String()),
				slog.String("session_id", winner.ID.String()))
			return winner, nil
		}
		return nil, &ServiceError{Operation: "create_or_resume", Message: "failed to create session", Err: err}
	}

	log.Info("review session started",
		slog.String("user_id", userID.String()),
		slog.String("session_id", session.ID.String()),
		slog.String("content_type", contentType.String()),
		slog.Int("item_count", len(session.ItemIDs)))
	return session, nil
}

// MarkCompleted implements Manager.MarkCompleted.
func (m *managerImpl) MarkCompleted(
	ctx context.Context,
	userID, sessionID, itemID uuid.UUID,
) (*domain.ReviewSession, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	session, err := m.loadOwned(ctx, userID, sessionID, "mark_completed")
	if err != nil {
		return nil, err
	}

	if !session.ContainsItem(itemID) {
		log.Warn("item not part of session",
			slog.String("session_id", sessionID.String()),
			slog.String("item_id", itemID.String()))
		return nil, ErrItemNotInSession
	}

	if session.IsItemCompleted(itemID) {
		return session, nil
	}

	if session.Status == domain.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}

	now := time.Now().UTC()
	session.CompletedItemIDs = append(session.CompletedItemIDs, itemID)
	session.UpdatedAt = now

	if session.AllItemsCompleted() {
		session.Status = domain.SessionStatusCompleted
		session.CompletedAt = &now
	}

	if err := m.sessions.Update(ctx, session); err != nil {
		return nil, &ServiceError{Operation: "mark_completed", Message: "failed to persist session", Err: err}
	}

	if session.Status == domain.SessionStatusCompleted {
		log.Info("review session completed",
			slog.String("session_id", session.ID.String()),
			slog.Int("item_count", len(session.ItemIDs)))
	}

	return session, nil
}

// Close implements Manager.Close.
func (m *managerImpl) Close(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ReviewSession, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	session, err := m.loadOwned(ctx, userID, sessionID, "close")
	if err != nil {
		return nil, err
	}

	if session.Status == domain.SessionStatusCompleted {
		return session, nil
	}

	now := time.Now().UTC()
	session.Status = domain.SessionStatusCompleted
	session.CompletedAt = &now
	session.UpdatedAt = now

	if err := m.sessions.Update(ctx, session); err != nil {
		return nil, &ServiceError{Operation: "close", Message: "failed to persist session", Err: err}
	}

	log.Info("review session closed early",
		slog.String("session_id", session.ID.String()),
		slog.Int("completed", len(session.CompletedItemIDs)),
		slog.Int("item_count", len(session.ItemIDs)))
	return session, nil
}

// CompleteItemForUser implements Manager.CompleteItemForUser.
func (m *managerImpl) CompleteItemForUser(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
	itemID uuid.UUID,
) error {
	session, err := m.sessions.FindActive(ctx, userID, contentType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return &ServiceError{Operation: "complete_item_for_user", Message: "failed to look up active session", Err: err}
	}

	if !session.ContainsItem(itemID) {
		return nil
	}

	_, err = m.MarkCompleted(ctx, userID, session.ID, itemID)
	return err
}

// loadOwned fetches a session and enforces ownership. A session belonging
// to another user is indistinguishable from a missing one.
func (m *managerImpl) loadOwned(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	operation string,
) (*domain.ReviewSession, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, &ServiceError{Operation: operation, Message: "failed to load session", Err: err}
	}

	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	return session, nil
}
