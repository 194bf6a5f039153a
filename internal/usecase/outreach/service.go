package outreach

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"linkedin-outreach/internal/domain"
	"linkedin-outreach/internal/infra/metrics"
)

// Service реализует процесс аутрича: кэш → генерация → квота → доставка.
// Авторитетное состояние (кэш, счётчики) живёт во внешнем хранилище,
// сервис не держит его копий между вызовами.
type Service struct {
	cache     domain.IcebreakerCache
	quota     domain.QuotaTracker
	generator domain.Generator
	messenger domain.Messenger
	repo      domain.OutreachRepo
	notifier  domain.Notifier
	log       zerolog.Logger
	costPer1K float64
	now       func() time.Time
}

// NewService создаёт сервис аутрича. repo и notifier могут быть nil.
func NewService(
	cache domain.IcebreakerCache,
	quota domain.QuotaTracker,
	generator domain.Generator,
	messenger domain.Messenger,
	repo domain.OutreachRepo,
	notifier domain.Notifier,
	log zerolog.Logger,
	costPer1K float64,
) *Service {
	return &Service{
		cache:     cache,
		quota:     quota,
		generator: generator,
		messenger: messenger,
		repo:      repo,
		notifier:  notifier,
		log:       log,
		costPer1K: costPer1K,
		now:       time.Now,
	}
}

// Cost вычисляет стоимость генерации по числу токенов.
func Cost(tokens int, costPer1K float64) float64 {
	return float64(tokens) / 1000 * costPer1K
}

// Process выполняет полный цикл аутрича для профиля.
// Все исходы, включая исчерпание квоты, возвращаются структурированным
// результатом, а не теряются.
func (s *Service) Process(ctx context.Context, profile domain.Profile) domain.OutreachResult {
	key := profile.Key()
	today := domain.DayKey(s.now())

	entry, ok, err := s.GenerateOnly(ctx, profile)
	if err != nil {
		genErr := &domain.GenerationError{Err: err}
		s.log.Error().Err(err).Str("profile_key", key).Msg("аутрич: генерация не удалась")
		s.saveAttempt(ctx, key, profile, domain.OutreachStatusGenerateFail, entry)
		remaining := s.remaining(ctx, today)
		return domain.OutreachResult{
			Success:    false,
			ProfileKey: key,
			Remaining:  remaining,
			Err:        genErr,
		}
	}

	// Попадание в кэш уже оплачено, вызову стоимость не начисляется.
	invocationCost := 0.0
	if !ok {
		invocationCost = entry.Cost
	}

	granted, err := s.quota.TryReserve(ctx, today)
	if err != nil {
		// Без подтверждённой атомарной брони отправлять нельзя:
		// неопределённость грозит пробоем жёсткого лимита платформы.
		s.log.Error().Err(err).Str("date", today).Msg("аутрич: бронь квоты недоступна")
		return domain.OutreachResult{
			Success:    false,
			ProfileKey: key,
			Message:    entry.Message,
			Cached:     entry.Cached,
			TokensUsed: entry.TokensUsed,
			Err:        err,
		}
	}
	if !granted {
		metrics.QuotaDenials.Inc()
		metrics.RemainingQuota.Set(0)
		s.log.Info().Str("date", today).Msg("аутрич: дневной лимит исчерпан, доставка пропущена")
		s.saveAttempt(ctx, key, profile, domain.OutreachStatusQuotaExceeded, entry)
		// Сообщение возвращаем для наглядности, но не отправляем.
		return domain.OutreachResult{
			Success:    false,
			ProfileKey: key,
			Message:    entry.Message,
			Cached:     entry.Cached,
			TokensUsed: entry.TokensUsed,
			Remaining:  0,
			Err:        domain.ErrQuotaExceeded,
		}
	}

	receipt, err := s.messenger.Send(ctx, profile, entry.Message)
	if err != nil {
		delivErr := &domain.DeliveryError{Err: err}
		metrics.DeliveryErrors.Inc()
		// Бронь намеренно не возвращается: попытка отправки расходует
		// слот, иначе шторм ретраев обойдёт дневной лимит.
		s.log.Error().Err(err).Str("profile_key", key).Msg("аутрич: доставка не удалась, слот квоты израсходован")
		s.saveAttempt(ctx, key, profile, domain.OutreachStatusDeliveryFail, entry)
		remaining := s.remaining(ctx, today)
		return domain.OutreachResult{
			Success:    false,
			ProfileKey: key,
			Message:    entry.Message,
			Cached:     entry.Cached,
			TokensUsed: entry.TokensUsed,
			Cost:       invocationCost,
			Remaining:  remaining,
			Err:        delivErr,
		}
	}

	if err := s.quota.RecordCost(ctx, today, invocationCost); err != nil {
		// Стоимость информационная, сбой учёта не валит отправленный аутрич.
		s.log.Warn().Err(err).Str("date", today).Msg("аутрич: не удалось учесть стоимость")
	}

	metrics.MessagesSent.Inc()
	metrics.OutreachCost.Add(invocationCost)
	remaining := s.remaining(ctx, today)
	metrics.RemainingQuota.Set(float64(remaining))

	s.saveAttempt(ctx, key, profile, domain.OutreachStatusSent, entry)
	s.checkBudget(ctx, today)

	s.log.Info().
		Str("profile_key", key).
		Bool("cached", entry.Cached).
		Float64("cost", invocationCost).
		Int("remaining", remaining).
		Str("message_id", receipt.MessageID).
		Msg("аутрич: сообщение отправлено")

	return domain.OutreachResult{
		Success:    true,
		ProfileKey: key,
		Message:    entry.Message,
		Cost:       invocationCost,
		TokensUsed: entry.TokensUsed,
		Cached:     entry.Cached,
		Remaining:  remaining,
		Receipt:    &receipt,
	}
}

// GenerateOnly возвращает айсбрейкер для профиля без брони квоты и доставки.
// Второе значение сообщает, взят ли результат из кэша.
func (s *Service) GenerateOnly(ctx context.Context, profile domain.Profile) (domain.Icebreaker, bool, error) {
	key := profile.Key()

	cached, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		// Недоступность кэша понижает режим, но не прерывает процесс.
		s.log.Warn().Err(err).Str("profile_key", key).Msg("аутрич: кэш недоступен, считаем промахом")
		hit = false
	}
	if hit {
		metrics.IcebreakerCacheHits.Inc()
		s.log.Debug().Str("profile_key", key).Msg("аутрич: айсбрейкер из кэша")
		cached.Cached = true
		return cached, true, nil
	}

	metrics.IcebreakerCacheMisses.Inc()
	message, tokens, err := s.generator.Generate(ctx, profile)
	if err != nil {
		return domain.Icebreaker{}, false, err
	}
	metrics.IcebreakerGenerated.Inc()

	entry := domain.Icebreaker{
		ProfileKey: key,
		Message:    message,
		TokensUsed: tokens,
		Cost:       Cost(tokens, s.costPer1K),
	}
	if err := s.cache.Put(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("profile_key", key).Msg("аутрич: запись в кэш не удалась, продолжаем без кэширования")
	}
	return entry, false, nil
}

// DailyStats возвращает статистику отправок за сегодня.
func (s *Service) DailyStats(ctx context.Context) (domain.QuotaStats, error) {
	return s.quota.Stats(ctx, domain.DayKey(s.now()))
}

func (s *Service) remaining(ctx context.Context, date string) int {
	remaining, err := s.quota.Remaining(ctx, date)
	if err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("аутрич: не удалось получить остаток лимита")
		return 0
	}
	return remaining
}

func (s *Service) saveAttempt(ctx context.Context, key string, profile domain.Profile, status string, entry domain.Icebreaker) {
	if s.repo == nil {
		return
	}
	rec := domain.OutreachRecord{
		ProfileKey: key,
		Recipient:  profile.Name,
		Status:     status,
		Cached:     entry.Cached,
		TokensUsed: entry.TokensUsed,
		Cost:       entry.Cost,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.SaveAttempt(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("profile_key", key).Msg("аутрич: не удалось записать журнал попыток")
	}
}

func (s *Service) checkBudget(ctx context.Context, date string) {
	if s.notifier == nil {
		return
	}
	stats, err := s.quota.Stats(ctx, date)
	if err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("аутрич: не удалось получить статистику для контроля бюджета")
		return
	}
	if stats.WithinBudget {
		return
	}
	if err := s.notifier.NotifyBudgetExceeded(ctx, stats); err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("аутрич: оповещение о бюджете не отправлено")
	}
}
