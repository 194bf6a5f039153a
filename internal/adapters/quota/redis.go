package quota

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"linkedin-outreach/internal/domain"
	"linkedin-outreach/internal/infra/metrics"
)

const (
	countKeyPrefix = "rate:count:"
	costKeyPrefix  = "rate:cost:"

	// retention держит счётчики чуть дольше суток, чтобы статистику
	// вчерашнего дня ещё можно было прочитать.
	retention = 48 * time.Hour
)

// reserveScript атомарно проверяет лимит и инкрементирует счётчик.
// Раздельные GET и SET из нескольких экземпляров перескакивали бы лимит.
var reserveScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= tonumber(ARGV[1]) then
  return -1
end
local next = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return next
`)

// Redis реализует domain.QuotaTracker поверх Redis.
// Счётчик нового дня появляется лениво при первом обращении,
// отдельного сброса в полночь нет.
type Redis struct {
	client            *redis.Client
	limit             int
	targetCostPerLead float64
}

// NewRedis создаёт трекер с дневным лимитом сообщений.
func NewRedis(client *redis.Client, limit int, targetCostPerLead float64) *Redis {
	return &Redis{client: client, limit: limit, targetCostPerLead: targetCostPerLead}
}

var _ domain.QuotaTracker = (*Redis)(nil)

// Remaining возвращает остаток лимита на дату, не опускаясь ниже нуля.
func (r *Redis) Remaining(ctx context.Context, date string) (int, error) {
	sent, err := r.sentCount(ctx, date)
	if err != nil {
		return 0, err
	}
	remaining := r.limit - sent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TryReserve атомарно занимает один слот дневного лимита.
// false означает, что лимит исчерпан; ошибок при этом нет.
func (r *Redis) TryReserve(ctx context.Context, date string) (bool, error) {
	start := time.Now()
	res, err := reserveScript.Run(ctx, r.client,
		[]string{countKeyPrefix + date},
		r.limit, int(retention.Seconds()),
	).Int()
	metrics.ObserveNetworkRequest("redis", "quota_reserve", "rate", start, err)
	if err != nil {
		return false, domain.NewStorageError("бронь квоты", err)
	}
	return res > 0, nil
}

// RecordCost добавляет стоимость к дневному накопителю.
// Точность последовательных сложений здесь достаточна: стоимость
// информационная и не участвует в контроле лимита.
func (r *Redis) RecordCost(ctx context.Context, date string, cost float64) error {
	if cost <= 0 {
		return nil
	}
	start := time.Now()
	key := costKeyPrefix + date
	pipe := r.client.TxPipeline()
	pipe.IncrByFloat(ctx, key, cost)
	pipe.Expire(ctx, key, retention)
	_, err := pipe.Exec(ctx)
	metrics.ObserveNetworkRequest("redis", "quota_record_cost", "rate", start, err)
	if err != nil {
		return domain.NewStorageError("учёт стоимости", err)
	}
	return nil
}

// Stats возвращает агрегат за дату.
func (r *Redis) Stats(ctx context.Context, date string) (domain.QuotaStats, error) {
	sent, err := r.sentCount(ctx, date)
	if err != nil {
		return domain.QuotaStats{}, err
	}
	cost, err := r.costTotal(ctx, date)
	if err != nil {
		return domain.QuotaStats{}, err
	}
	return domain.NewQuotaStats(date, sent, cost, r.limit, r.targetCostPerLead), nil
}

func (r *Redis) sentCount(ctx context.Context, date string) (int, error) {
	start := time.Now()
	val, err := r.client.Get(ctx, countKeyPrefix+date).Result()
	metrics.ObserveNetworkRequest("redis", "quota_get", "rate", start, ignoreNil(err))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.NewStorageError("чтение счётчика", err)
	}
	sent, err := strconv.Atoi(val)
	if err != nil {
		return 0, domain.NewStorageError("декодирование счётчика", err)
	}
	return sent, nil
}

func (r *Redis) costTotal(ctx context.Context, date string) (float64, error) {
	start := time.Now()
	val, err := r.client.Get(ctx, costKeyPrefix+date).Result()
	metrics.ObserveNetworkRequest("redis", "quota_get", "rate", start, ignoreNil(err))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.NewStorageError("чтение стоимости", err)
	}
	cost, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, domain.NewStorageError("декодирование стоимости", err)
	}
	return cost, nil
}

func ignoreNil(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
