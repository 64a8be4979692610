package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	types "github.com/lifeease/lifeease-client/internal/domain"
	"github.com/lifeease/lifeease-client/internal/pkg/ctxutil"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
)

// Durable state keys. These mirror the keys the web client kept in
// localStorage so that server-side expectations stay aligned.
const (
	KeySessionID    = "lifeease-session-id"
	KeySystemPrompt = "lifeease-system-prompt"
)

// ClientStore persists installation-scoped state: the session id, the
// client-wide system prompt default, and the onboarding profile.
type ClientStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	Profile(ctx context.Context) (*types.Profile, error)
	SaveProfile(ctx context.Context, partial map[string]any) (*types.Profile, error)
	CompleteProfile(ctx context.Context) (*types.Profile, error)

	Close() error
}

type clientStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open opens (creating if needed) the embedded sqlite database at path and
// migrates the state tables.
func Open(path string, log *logger.Logger) (ClientStore, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if path == "" {
		return nil, fmt.Errorf("state db path required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.AutoMigrate(&types.ClientState{}, &types.Profile{}); err != nil {
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	return &clientStore{db: db, log: log.With("service", "ClientStore")}, nil
}

func (s *clientStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row types.ClientState
	err := s.db.WithContext(ctxutil.Default(ctx)).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (s *clientStore) Set(ctx context.Context, key, value string) error {
	row := types.ClientState{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctxutil.Default(ctx)).Save(&row).Error
}

func (s *clientStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctxutil.Default(ctx)).Delete(&types.ClientState{}, "key = ?", key).Error
}

// Profile returns the single profile row, creating it on first use.
func (s *clientStore) Profile(ctx context.Context) (*types.Profile, error) {
	return s.loadOrCreateProfile(ctxutil.Default(ctx))
}

func (s *clientStore) loadOrCreateProfile(ctx context.Context) (*types.Profile, error) {
	var row types.Profile
	err := s.db.WithContext(ctx).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	row = types.Profile{
		ID:        uuid.New(),
		Fields:    datatypes.JSON([]byte("{}")),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveProfile merges partial fields into the stored profile JSON. Existing
// keys not present in partial are kept.
func (s *clientStore) SaveProfile(ctx context.Context, partial map[string]any) (*types.Profile, error) {
	ctx = ctxutil.Default(ctx)
	row, err := s.loadOrCreateProfile(ctx)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	if len(row.Fields) > 0 {
		if err := json.Unmarshal(row.Fields, &merged); err != nil {
			s.log.Warn("profile fields unreadable, resetting", "error", err)
			merged = map[string]any{}
		}
	}
	for k, v := range partial {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	row.Fields = datatypes.JSON(raw)
	row.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s *clientStore) CompleteProfile(ctx context.Context) (*types.Profile, error) {
	ctx = ctxutil.Default(ctx)
	row, err := s.loadOrCreateProfile(ctx)
	if err != nil {
		return nil, err
	}
	row.Onboarded = true
	row.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s *clientStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
