package cache

import (
	"context"
	"testing"
	"time"

	"linkedin-outreach/internal/domain"
)

func TestMemoryRoundTrip(t *testing.T) {
	c := NewMemory(24 * time.Hour)
	entry := domain.Icebreaker{
		ProfileKey: "key-1",
		Message:    "Hi Jane, impressive work at Tech Corp!",
		TokensUsed: 50,
		Cost:       0.00025,
	}
	if err := c.Put(context.Background(), entry); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	got, ok, err := c.Get(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !ok {
		t.Fatalf("ожидали попадание в кэш")
	}
	if got.Message != entry.Message || got.TokensUsed != 50 || got.Cost != 0.00025 {
		t.Fatalf("запись не совпала: %+v", got)
	}
}

func TestMemoryMiss(t *testing.T) {
	c := NewMemory(time.Hour)
	_, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ok {
		t.Fatalf("ожидали промах для отсутствующего ключа")
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory(24 * time.Hour)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	if err := c.Put(context.Background(), domain.Icebreaker{ProfileKey: "key-1", Message: "hi"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	c.now = func() time.Time { return base.Add(23 * time.Hour) }
	if _, ok, _ := c.Get(context.Background(), "key-1"); !ok {
		t.Fatalf("запись не должна истечь до окончания TTL")
	}

	c.now = func() time.Time { return base.Add(24*time.Hour + time.Second) }
	if _, ok, _ := c.Get(context.Background(), "key-1"); ok {
		t.Fatalf("просроченная запись должна считаться отсутствующей")
	}
}

func TestMemoryOverwrite(t *testing.T) {
	c := NewMemory(time.Hour)
	ctx := context.Background()
	_ = c.Put(ctx, domain.Icebreaker{ProfileKey: "key-1", Message: "первый"})
	_ = c.Put(ctx, domain.Icebreaker{ProfileKey: "key-1", Message: "второй"})
	got, ok, _ := c.Get(ctx, "key-1")
	if !ok || got.Message != "второй" {
		t.Fatalf("ожидали last-write-wins, получили %+v", got)
	}
}
