package cache

import (
	"context"
	"sync"
	"time"

	"linkedin-outreach/internal/domain"
)

// Memory простая in-memory реализация кэша для тестов и dev-окружения.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]domain.Icebreaker
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory создаёт кэш с указанным сроком жизни записей.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Memory{entries: make(map[string]domain.Icebreaker), ttl: ttl, now: time.Now}
}

var _ domain.IcebreakerCache = (*Memory)(nil)

// Get возвращает действующую запись по ключу профиля.
func (m *Memory) Get(_ context.Context, key string) (domain.Icebreaker, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !entry.Valid(m.now()) {
		return domain.Icebreaker{}, false, nil
	}
	return entry, true, nil
}

// Put записывает айсбрейкер, перетирая предыдущую запись по ключу.
func (m *Memory) Put(_ context.Context, entry domain.Icebreaker) error {
	now := m.now()
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(m.ttl)
	m.mu.Lock()
	m.entries[entry.ProfileKey] = entry
	m.mu.Unlock()
	return nil
}
