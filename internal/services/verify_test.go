package services

import (
	"context"
	"errors"
	"testing"

	types "github.com/lifeease/lifeease-client/internal/domain"
)

func historyOf(roles ...string) *types.ChatResponse {
	entries := make([]types.HistoryEntry, 0, len(roles))
	for _, r := range roles {
		entries = append(entries, types.HistoryEntry{Role: r, Text: "…"})
	}
	return &types.ChatResponse{Success: true, History: entries}
}

func newTestVerify(router RouterService) VerifyService {
	sessions := NewSessionService(newMemStore(), testLogger())
	conv := NewConversationService(router, testLogger())
	return NewVerifyService(conv, router, sessions, testLogger())
}

func TestVerifySucceedsWhenAssistantInterleaved(t *testing.T) {
	var sends int
	router := &stubRouter{
		routeFn: func(_ context.Context, _ RouteRequest) (*types.ChatResponse, error) {
			sends++
			return &types.ChatResponse{Success: true, ModelOutput: "Your name is Maya."}, nil
		},
		historyFn: func(_ context.Context) (*types.ChatResponse, error) {
			return historyOf("user", "assistant", "user", "assistant"), nil
		},
	}

	res, err := newTestVerify(router).Verify(context.Background(), "My name is Maya.", "What is my name?")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sends != 2 {
		t.Fatalf("sends = %d, want 2", sends)
	}
	if !res.OK {
		t.Fatalf("OK = false, roles %v", res.Roles)
	}
	if res.HistoryLength != 4 || len(res.Roles) != 4 {
		t.Fatalf("result = %+v", res)
	}
}

func TestVerifyFailsWhenAssistantMissing(t *testing.T) {
	router := &stubRouter{
		historyFn: func(_ context.Context) (*types.ChatResponse, error) {
			// Older entries include an assistant, but the inspected window is
			// only the trailing four.
			return historyOf("assistant", "user", "user", "user", "user"), nil
		},
	}

	res, err := newTestVerify(router).Verify(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.OK {
		t.Fatalf("OK = true for roles %v", res.Roles)
	}
	if len(res.Roles) != verifyWindow {
		t.Fatalf("window = %v, want %d entries", res.Roles, verifyWindow)
	}
}

func TestVerifyShortHistoryWindow(t *testing.T) {
	router := &stubRouter{
		historyFn: func(_ context.Context) (*types.ChatResponse, error) {
			return historyOf("user", "assistant"), nil
		},
	}

	res, err := newTestVerify(router).Verify(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.OK || len(res.Roles) != 2 || res.HistoryLength != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestVerifyStopsOnFailedTurn(t *testing.T) {
	router := &stubRouter{
		routeFn: func(_ context.Context, _ RouteRequest) (*types.ChatResponse, error) {
			return nil, errors.New("connection refused")
		},
	}

	if _, err := newTestVerify(router).Verify(context.Background(), "a", "b"); err == nil {
		t.Fatal("Verify succeeded despite failed turn")
	}
}

func TestVerifyRejectsEmptyPrompts(t *testing.T) {
	if _, err := newTestVerify(&stubRouter{}).Verify(context.Background(), "  ", "b"); err == nil {
		t.Fatal("empty first prompt accepted")
	}
}

func TestVerifyPropagatesHistoryError(t *testing.T) {
	router := &stubRouter{
		historyFn: func(_ context.Context) (*types.ChatResponse, error) {
			return nil, errors.New("history unavailable")
		},
	}

	if _, err := newTestVerify(router).Verify(context.Background(), "a", "b"); err == nil {
		t.Fatal("history error swallowed")
	}
}
