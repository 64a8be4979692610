package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lifeease/lifeease-client/internal/data/store"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
)

// SessionService owns the durable session id that correlates every
// conversation turn with server-side history. Exactly one id is active at a
// time; Rotate is an atomic replace, so a call already in flight keeps the id
// it captured at dispatch.
type SessionService interface {
	// CurrentID returns the persisted session id, creating one on first use.
	CurrentID(ctx context.Context) (string, error)

	// Rotate discards the current id and persists a fresh one. Used when a
	// conversation ends so later turns do not append to old history.
	Rotate(ctx context.Context) (string, error)
}

type sessionService struct {
	store store.ClientStore
	log   *logger.Logger
	mu    sync.Mutex
}

func NewSessionService(clientStore store.ClientStore, baseLog *logger.Logger) SessionService {
	return &sessionService{
		store: clientStore,
		log:   baseLog.With("service", "SessionService"),
	}
}

func (s *sessionService) CurrentID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.store.Get(ctx, store.KeySessionID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := s.store.Set(ctx, store.KeySessionID, id); err != nil {
		return "", err
	}
	s.log.Debug("session created", "session_id", id)
	return id, nil
}

func (s *sessionService) Rotate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if err := s.store.Set(ctx, store.KeySessionID, id); err != nil {
		return "", err
	}
	s.log.Info("session rotated", "session_id", id)
	return id, nil
}
