package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"linkedin-outreach/internal/domain"
	"linkedin-outreach/internal/infra/crypto"
	"linkedin-outreach/internal/infra/metrics"
)

const keyPrefix = "icebreaker:"

// entryPayload формат хранения записи в Redis.
type entryPayload struct {
	Message    string    `json:"message"`
	Sealed     bool      `json:"sealed"`
	TokensUsed int       `json:"tokens_used"`
	Cost       float64   `json:"cost"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Redis реализует domain.IcebreakerCache поверх Redis.
// Физическое удаление отдаётся TTL-механизму Redis; Get дополнительно
// сверяет логический срок записи, поскольку хранилище разделяют
// несколько экземпляров процесса.
type Redis struct {
	client *redis.Client
	sealer *crypto.Sealer
	ttl    time.Duration
	now    func() time.Time
}

// NewRedis создаёт кэш айсбрейкеров. sealer может быть nil,
// тогда сообщения хранятся открытым текстом.
func NewRedis(client *redis.Client, sealer *crypto.Sealer, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, sealer: sealer, ttl: ttl, now: time.Now}
}

var _ domain.IcebreakerCache = (*Redis)(nil)

// Get возвращает действующую запись по ключу профиля.
// Просроченная или отсутствующая запись это промах, а не ошибка.
func (r *Redis) Get(ctx context.Context, key string) (domain.Icebreaker, bool, error) {
	start := time.Now()
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	metrics.ObserveNetworkRequest("redis", "icebreaker_get", "icebreaker", start, ignoreNil(err))
	if errors.Is(err, redis.Nil) {
		return domain.Icebreaker{}, false, nil
	}
	if err != nil {
		return domain.Icebreaker{}, false, domain.NewStorageError("чтение кэша", err)
	}
	var payload entryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Icebreaker{}, false, domain.NewStorageError("декодирование записи кэша", err)
	}
	entry := domain.Icebreaker{
		ProfileKey: key,
		Message:    payload.Message,
		TokensUsed: payload.TokensUsed,
		Cost:       payload.Cost,
		CreatedAt:  payload.CreatedAt,
		ExpiresAt:  payload.ExpiresAt,
	}
	if !entry.Valid(r.now()) {
		return domain.Icebreaker{}, false, nil
	}
	if payload.Sealed {
		if r.sealer == nil {
			return domain.Icebreaker{}, false, domain.NewStorageError("расшифровка записи кэша", errors.New("ключ шифрования не задан"))
		}
		message, err := r.sealer.Open(payload.Message)
		if err != nil {
			return domain.Icebreaker{}, false, domain.NewStorageError("расшифровка записи кэша", err)
		}
		entry.Message = message
	}
	return entry, true, nil
}

// Put записывает айсбрейкер, выставляя срок жизни от текущего момента.
// Повторная запись по тому же ключу перетирает предыдущую.
func (r *Redis) Put(ctx context.Context, entry domain.Icebreaker) error {
	now := r.now()
	payload := entryPayload{
		Message:    entry.Message,
		TokensUsed: entry.TokensUsed,
		Cost:       entry.Cost,
		CreatedAt:  now,
		ExpiresAt:  now.Add(r.ttl),
	}
	if r.sealer != nil {
		sealed, err := r.sealer.Seal(entry.Message)
		if err != nil {
			return domain.NewStorageError("шифрование записи кэша", err)
		}
		payload.Message = sealed
		payload.Sealed = true
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.NewStorageError("кодирование записи кэша", err)
	}
	start := time.Now()
	err = r.client.Set(ctx, keyPrefix+entry.ProfileKey, raw, r.ttl).Err()
	metrics.ObserveNetworkRequest("redis", "icebreaker_set", "icebreaker", start, err)
	if err != nil {
		return domain.NewStorageError("запись кэша", err)
	}
	return nil
}

func ignoreNil(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
