package quota

import (
	"context"
	"sync"

	"linkedin-outreach/internal/domain"
)

type dayCounter struct {
	sent int
	cost float64
}

// Memory простая in-memory реализация трекера для тестов и dev-окружения.
// Бронь атомарна под общим мьютексом.
type Memory struct {
	mu                sync.Mutex
	days              map[string]*dayCounter
	limit             int
	targetCostPerLead float64
}

// NewMemory создаёт трекер с дневным лимитом сообщений.
func NewMemory(limit int, targetCostPerLead float64) *Memory {
	return &Memory{days: make(map[string]*dayCounter), limit: limit, targetCostPerLead: targetCostPerLead}
}

var _ domain.QuotaTracker = (*Memory)(nil)

func (m *Memory) day(date string) *dayCounter {
	d, ok := m.days[date]
	if !ok {
		d = &dayCounter{}
		m.days[date] = d
	}
	return d
}

// Remaining возвращает остаток лимита на дату.
func (m *Memory) Remaining(_ context.Context, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	remaining := m.limit - m.day(date).sent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TryReserve занимает один слот дневного лимита.
func (m *Memory) TryReserve(_ context.Context, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.day(date)
	if d.sent >= m.limit {
		return false, nil
	}
	d.sent++
	return true, nil
}

// RecordCost добавляет стоимость к дневному накопителю.
func (m *Memory) RecordCost(_ context.Context, date string, cost float64) error {
	if cost <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.day(date).cost += cost
	return nil
}

// Stats возвращает агрегат за дату.
func (m *Memory) Stats(_ context.Context, date string) (domain.QuotaStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.day(date)
	return domain.NewQuotaStats(date, d.sent, d.cost, m.limit, m.targetCostPerLead), nil
}
