package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ljungman/calendard/internal/domain"
)

func TestMemoryStoreCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Create(ctx, domain.Event{Title: "a", Date: "2025-10-01", StartTime: "10:00", EndTime: "11:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" {
		t.Fatal("create must assign an id")
	}
	b, _ := s.Create(ctx, domain.Event{Title: "b", Date: "2025-10-02", StartTime: "10:00", EndTime: "11:00"})

	events, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 || events[0].ID != a.ID || events[1].ID != b.ID {
		t.Fatalf("expected insertion order, got %+v", events)
	}

	a.Title = "renamed"
	updated, err := s.Update(ctx, a.ID, a)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	events, _ = s.List(ctx)
	if len(events) != 1 || events[0].ID != b.ID {
		t.Fatalf("unexpected remaining events: %+v", events)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.Update(ctx, "missing", domain.Event{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
