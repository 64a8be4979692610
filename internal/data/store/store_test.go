package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/lifeease/lifeease-client/internal/pkg/logger"
)

func openTestStore(t *testing.T) ClientStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetSetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeySessionID); err != nil || ok {
		t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, KeySessionID, "sid-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, KeySessionID)
	if err != nil || !ok || v != "sid-1" {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}

	// Overwrite replaces in place.
	if err := s.Set(ctx, KeySessionID, "sid-2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, _, _ = s.Get(ctx, KeySessionID)
	if v != "sid-2" {
		t.Fatalf("after overwrite = %q", v)
	}

	if err := s.Delete(ctx, KeySessionID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeySessionID); ok {
		t.Fatal("key still present after Delete")
	}
}

func TestSaveProfileMergesFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveProfile(ctx, map[string]any{"name": "Maya", "age": 30}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	p, err := s.SaveProfile(ctx, map[string]any{"age": 31, "city": "Lisbon"})
	if err != nil {
		t.Fatalf("SaveProfile merge: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(p.Fields, &fields); err != nil {
		t.Fatalf("fields not json: %v", err)
	}
	if fields["name"] != "Maya" {
		t.Fatalf("name lost on merge: %v", fields)
	}
	if fields["age"] != float64(31) {
		t.Fatalf("age not updated: %v", fields["age"])
	}
	if fields["city"] != "Lisbon" {
		t.Fatalf("city missing: %v", fields)
	}
}

func TestCompleteProfile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, err := s.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Onboarded {
		t.Fatal("fresh profile should not be onboarded")
	}

	done, err := s.CompleteProfile(ctx)
	if err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if !done.Onboarded {
		t.Fatal("profile not marked onboarded")
	}
	if done.ID != p.ID {
		t.Fatalf("profile row replaced: %s != %s", done.ID, p.ID)
	}

	// Still a single row.
	again, err := s.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile reload: %v", err)
	}
	if again.ID != p.ID || !again.Onboarded {
		t.Fatalf("reloaded profile = %+v", again)
	}
}
