package cache

import (
	"context"
	"testing"
	"time"
)

func TestNilStore_GetMisses(t *testing.T) {
	var s *Store
	var out int
	if err := s.Get(context.Background(), "k", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestNilStore_SetIsNoop(t *testing.T) {
	var s *Store
	if err := s.Set(context.Background(), "k", 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStoreWithoutClient_Misses(t *testing.T) {
	s := New(nil, time.Minute)
	var out string
	if err := s.Get(context.Background(), "k", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if err := s.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
