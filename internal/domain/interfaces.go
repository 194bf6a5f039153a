package domain

import (
	"context"
	"time"
)

// IcebreakerCache кэш сгенерированных сообщений по ключу профиля.
// Просроченные записи считаются отсутствующими, даже если физически ещё не удалены.
type IcebreakerCache interface {
	Get(ctx context.Context, key string) (Icebreaker, bool, error)
	Put(ctx context.Context, entry Icebreaker) error
}

// QuotaTracker следит за дневным лимитом отправок и накопленной стоимостью.
// Даты передаются ключом календарного дня в UTC (см. DayKey).
type QuotaTracker interface {
	Remaining(ctx context.Context, date string) (int, error)
	TryReserve(ctx context.Context, date string) (bool, error)
	RecordCost(ctx context.Context, date string, cost float64) error
	Stats(ctx context.Context, date string) (QuotaStats, error)
}

// Generator строит айсбрейкер по профилю.
type Generator interface {
	Generate(ctx context.Context, profile Profile) (message string, tokens int, err error)
}

// Messenger доставляет сообщение получателю.
type Messenger interface {
	Send(ctx context.Context, profile Profile, message string) (DeliveryReceipt, error)
}

// OutreachRepo журналирует попытки аутрича.
type OutreachRepo interface {
	SaveAttempt(ctx context.Context, rec OutreachRecord) error
	ListForDate(ctx context.Context, date string) ([]OutreachRecord, error)
}

// OutreachQueue очередь асинхронных задач аутрича.
type OutreachQueue interface {
	Enqueue(ctx context.Context, job OutreachJob) error
	Pop(ctx context.Context) (OutreachJob, error)
}

// Notifier отправляет служебные оповещения о превышении бюджета.
type Notifier interface {
	NotifyBudgetExceeded(ctx context.Context, stats QuotaStats) error
}

// Cache используется для простых TTL-хранилищ, например дедупликации оповещений.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
