package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestCurrentIDCreatesOnceAndSticks(t *testing.T) {
	svc := NewSessionService(newMemStore(), testLogger())
	ctx := context.Background()

	first, err := svc.CurrentID(ctx)
	if err != nil {
		t.Fatalf("CurrentID: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("session id %q is not a uuid: %v", first, err)
	}

	second, err := svc.CurrentID(ctx)
	if err != nil {
		t.Fatalf("CurrentID again: %v", err)
	}
	if second != first {
		t.Fatalf("session id changed between reads: %s != %s", second, first)
	}
}

func TestCurrentIDSurvivesServiceRestart(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	first, err := NewSessionService(st, testLogger()).CurrentID(ctx)
	if err != nil {
		t.Fatalf("CurrentID: %v", err)
	}

	// A new service over the same store must see the persisted id.
	again, err := NewSessionService(st, testLogger()).CurrentID(ctx)
	if err != nil {
		t.Fatalf("CurrentID after restart: %v", err)
	}
	if again != first {
		t.Fatalf("id not durable: %s != %s", again, first)
	}
}

func TestRotateReplacesID(t *testing.T) {
	svc := NewSessionService(newMemStore(), testLogger())
	ctx := context.Background()

	old, err := svc.CurrentID(ctx)
	if err != nil {
		t.Fatalf("CurrentID: %v", err)
	}
	fresh, err := svc.Rotate(ctx)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if fresh == old {
		t.Fatal("Rotate returned the old id")
	}

	now, err := svc.CurrentID(ctx)
	if err != nil {
		t.Fatalf("CurrentID after rotate: %v", err)
	}
	if now != fresh {
		t.Fatalf("CurrentID = %s, want rotated id %s", now, fresh)
	}
}

func TestConcurrentCurrentIDCreatesSingleID(t *testing.T) {
	svc := NewSessionService(newMemStore(), testLogger())
	ctx := context.Background()

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			id, err := svc.CurrentID(ctx)
			if err != nil {
				t.Errorf("CurrentID: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("divergent ids under concurrency: %s != %s", ids[i], ids[0])
		}
	}
}
