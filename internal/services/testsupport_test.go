package services

import (
	"context"
	"sync"
	"time"

	"github.com/lifeease/lifeease-client/internal/data/store"
	types "github.com/lifeease/lifeease-client/internal/domain"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
	"github.com/lifeease/lifeease-client/internal/platform/backend"
)

// memStore is an in-memory stand-in for the sqlite-backed ClientStore.
type memStore struct {
	mu sync.Mutex
	kv map[string]string
}

var _ store.ClientStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{kv: map[string]string{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *memStore) Profile(context.Context) (*types.Profile, error) {
	return &types.Profile{}, nil
}

func (m *memStore) SaveProfile(context.Context, map[string]any) (*types.Profile, error) {
	return &types.Profile{}, nil
}

func (m *memStore) CompleteProfile(context.Context) (*types.Profile, error) {
	return &types.Profile{Onboarded: true}, nil
}

func (m *memStore) Close() error { return nil }

// fakeBackend lets each test override just the endpoints it cares about.
type fakeBackend struct {
	healthFn  func(ctx context.Context) (*types.HealthStatus, error)
	textFn    func(ctx context.Context, text string) (*types.ChatResponse, error)
	visionFn  func(ctx context.Context, atts []types.Attachment, text string) (*types.ChatResponse, error)
	chatFn    func(ctx context.Context, req backend.ChatRequest) (*types.ChatResponse, error)
	historyFn func(ctx context.Context, sessionID string) (*types.ChatResponse, error)
	resetFn   func(ctx context.Context, sessionID string) (*types.ChatResponse, error)
}

var _ backend.Client = (*fakeBackend)(nil)

func okResponse() *types.ChatResponse {
	return &types.ChatResponse{Success: true, ModelOutput: "ok"}
}

func (f *fakeBackend) Health(ctx context.Context) (*types.HealthStatus, error) {
	if f.healthFn != nil {
		return f.healthFn(ctx)
	}
	return &types.HealthStatus{Status: "ok"}, nil
}

func (f *fakeBackend) AnalyzeText(ctx context.Context, text string, _ time.Duration) (*types.ChatResponse, error) {
	if f.textFn != nil {
		return f.textFn(ctx, text)
	}
	return okResponse(), nil
}

func (f *fakeBackend) AnalyzeVision(ctx context.Context, atts []types.Attachment, text string, _ time.Duration) (*types.ChatResponse, error) {
	if f.visionFn != nil {
		return f.visionFn(ctx, atts, text)
	}
	return okResponse(), nil
}

func (f *fakeBackend) Chat(ctx context.Context, req backend.ChatRequest) (*types.ChatResponse, error) {
	if f.chatFn != nil {
		return f.chatFn(ctx, req)
	}
	return okResponse(), nil
}

func (f *fakeBackend) History(ctx context.Context, sessionID string) (*types.ChatResponse, error) {
	if f.historyFn != nil {
		return f.historyFn(ctx, sessionID)
	}
	return &types.ChatResponse{Success: true, SessionID: sessionID}, nil
}

func (f *fakeBackend) ResetHistory(ctx context.Context, sessionID string) (*types.ChatResponse, error) {
	if f.resetFn != nil {
		return f.resetFn(ctx, sessionID)
	}
	return &types.ChatResponse{Success: true}, nil
}

// stubRouter drives the conversation state machine without a backend.
type stubRouter struct {
	routeFn   func(ctx context.Context, req RouteRequest) (*types.ChatResponse, error)
	historyFn func(ctx context.Context) (*types.ChatResponse, error)
}

var _ RouterService = (*stubRouter)(nil)

func (s *stubRouter) Analyze(_ context.Context, _ AnalyzeRequest) (*types.ChatResponse, error) {
	return okResponse(), nil
}

func (s *stubRouter) Route(ctx context.Context, req RouteRequest) (*types.ChatResponse, error) {
	if s.routeFn != nil {
		return s.routeFn(ctx, req)
	}
	return okResponse(), nil
}

func (s *stubRouter) FetchHistory(ctx context.Context) (*types.ChatResponse, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx)
	}
	return &types.ChatResponse{Success: true}, nil
}

func (s *stubRouter) ResetHistory(context.Context) (*types.ChatResponse, error) {
	return &types.ChatResponse{Success: true}, nil
}

func (s *stubRouter) EndConversation(context.Context) (string, error) { return "", nil }

func (s *stubRouter) SetSystemPrompt(context.Context, string) error { return nil }

func (s *stubRouter) SystemPrompt(context.Context) (string, error) { return "", nil }

func testLogger() *logger.Logger { return logger.NewNop() }
