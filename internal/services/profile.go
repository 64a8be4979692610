package services

import (
	"context"

	"github.com/lifeease/lifeease-client/internal/data/store"
	types "github.com/lifeease/lifeease-client/internal/domain"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
)

// ProfileService is the collaborator surface for the onboarding flow. The
// profile's field set is free-form; this layer only merges and persists it.
type ProfileService interface {
	Profile(ctx context.Context) (*types.Profile, error)
	SaveProfile(ctx context.Context, partial map[string]any) (*types.Profile, error)
	CompleteProfile(ctx context.Context) (*types.Profile, error)
}

type profileService struct {
	store store.ClientStore
	log   *logger.Logger
}

func NewProfileService(clientStore store.ClientStore, baseLog *logger.Logger) ProfileService {
	return &profileService{
		store: clientStore,
		log:   baseLog.With("service", "ProfileService"),
	}
}

func (s *profileService) Profile(ctx context.Context) (*types.Profile, error) {
	return s.store.Profile(ctx)
}

func (s *profileService) SaveProfile(ctx context.Context, partial map[string]any) (*types.Profile, error) {
	p, err := s.store.SaveProfile(ctx, partial)
	if err != nil {
		return nil, err
	}
	s.log.Debug("profile saved", "fields", len(partial))
	return p, nil
}

func (s *profileService) CompleteProfile(ctx context.Context) (*types.Profile, error) {
	p, err := s.store.CompleteProfile(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("profile completed", "profile_id", p.ID)
	return p, nil
}
