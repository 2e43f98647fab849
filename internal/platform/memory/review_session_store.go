package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/recallmed/recall-api/internal/domain"
	"github.com/recallmed/recall-api/internal/store"
)

// activeKey identifies the at-most-one-ACTIVE-session slot per user and
// content type.
type activeKey struct {
	userID      uuid.UUID
	contentType domain.ContentType
}

// ReviewSessionStore is a mutex-guarded, map-backed implementation of
// store.ReviewSessionStore. Create performs the uniqueness check and the
// insert under one lock, giving the same compare-and-swap guarantee the
// partial unique index provides in PostgreSQL.
type ReviewSessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.ReviewSession
	active   map[activeKey]uuid.UUID
}

// NewReviewSessionStore creates an empty in-memory review session store.
func NewReviewSessionStore() *ReviewSessionStore {
	return &ReviewSessionStore{
		sessions: make(map[uuid.UUID]*domain.ReviewSession),
		active:   make(map[activeKey]uuid.UUID),
	}
}

// Ensure ReviewSessionStore implements store.ReviewSessionStore
var _ store.ReviewSessionStore = (*ReviewSessionStore)(nil)

// WithTx implements store.ReviewSessionStore.WithTx. The memory store has
// no transaction concept.
func (s *ReviewSessionStore) WithTx(tx *sql.Tx) store.ReviewSessionStore {
	return s
}

// GetByID implements store.ReviewSessionStore.GetByID
func (s *ReviewSessionStore) GetByID(ctx context.Context, sessionID uuid.UUID) (*domain.ReviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, store.ErrSessionNotFound
	}

	return copySession(session), nil
}

// FindActive implements store.ReviewSessionStore.FindActive
func (s *ReviewSessionStore) FindActive(
	ctx context.Context,
	userID uuid.UUID,
	contentType domain.ContentType,
) (*domain.ReviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.active[activeKey{userID, contentType}]
	if !ok {
		return nil, store.ErrSessionNotFound
	}

	return copySession(s.sessions[id]), nil
}

// Create implements store.ReviewSessionStore.Create
func (s *ReviewSessionStore) Create(ctx context.Context, session *domain.ReviewSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := activeKey{session.UserID, session.ContentType}
	if session.Status == domain.SessionStatusActive {
		if _, exists := s.active[key]; exists {
			return store.ErrActiveSessionExists
		}
		s.active[key] = session.ID
	}

	s.sessions[session.ID] = copySession(session)
	return nil
}

// Update implements store.ReviewSessionStore.Update
func (s *ReviewSessionStore) Update(ctx context.Context, session *domain.ReviewSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[session.ID]
	if !ok {
		return store.ErrSessionNotFound
	}

	// A session leaving ACTIVE frees its uniqueness slot.
	key := activeKey{existing.UserID, existing.ContentType}
	if existing.Status == domain.SessionStatusActive && session.Status != domain.SessionStatusActive {
		delete(s.active, key)
	}

	s.sessions[session.ID] = copySession(session)
	return nil
}

func copySession(session *domain.ReviewSession) *domain.ReviewSession {
	copied := *session
	copied.ItemIDs = append([]uuid.UUID(nil), session.ItemIDs...)
	copied.CompletedItemIDs = append([]uuid.UUID(nil), session.CompletedItemIDs...)
	if session.CompletedAt != nil {
		t := *session.CompletedAt
		copied.CompletedAt = &t
	}
	return &copied
}
