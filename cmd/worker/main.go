package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	cacheadapter "linkedin-outreach/internal/adapters/cache"
	"linkedin-outreach/internal/adapters/generator"
	"linkedin-outreach/internal/adapters/messenger"
	"linkedin-outreach/internal/adapters/notifier"
	"linkedin-outreach/internal/adapters/quota"
	"linkedin-outreach/internal/adapters/repo"
	"linkedin-outreach/internal/domain"
	"linkedin-outreach/internal/infra/cache"
	"linkedin-outreach/internal/infra/config"
	"linkedin-outreach/internal/infra/crypto"
	"linkedin-outreach/internal/infra/db"
	"linkedin-outreach/internal/infra/log"
	"linkedin-outreach/internal/infra/metrics"
	"linkedin-outreach/internal/infra/openai"
	"linkedin-outreach/internal/infra/queue"
	"linkedin-outreach/internal/usecase/outreach"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	sealer, err := crypto.NewSealer(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: некорректный ключ шифрования")
	}

	icebreakerCache := cacheadapter.NewRedis(redisClient, sealer, cfg.CacheTTL())
	quotaTracker := quota.NewRedis(redisClient, cfg.Limits.DailyMessages, cfg.Limits.TargetCostPerLead)

	var gen domain.Generator
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		gen = generator.NewOpenAI(client, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	} else {
		logger.Warn().Msg("worker: ключ OpenAI не задан, используем шаблонный генератор")
		gen = generator.NewTemplate()
	}

	var outreachRepo domain.OutreachRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: нет подключения к БД")
		}
		defer pool.Close()
		outreachRepo = repo.NewPostgres(pool)
	}

	var budgetNotifier domain.Notifier
	if cfg.Alerts.TGBotToken != "" && cfg.Alerts.TGChatID != 0 {
		tg, err := notifier.NewTelegram(cfg.Alerts.TGBotToken, cfg.Alerts.TGChatID, cache.NewRedis(redisClient), logger.With().Str("component", "notifier").Logger())
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: не удалось создать нотификатор")
		}
		budgetNotifier = tg
	}

	var jobs domain.OutreachQueue
	if cfg.AMQP.URL != "" {
		rabbit, err := queue.NewRabbitOutreachQueue(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: нет подключения к AMQP")
		}
		defer rabbit.Close()
		jobs = rabbit
	} else {
		jobs = queue.NewRedisOutreachQueue(redisClient, cfg.AMQP.Queue)
	}

	svc := outreach.NewService(
		icebreakerCache,
		quotaTracker,
		gen,
		messenger.NewUnipile(logger.With().Str("component", "messenger").Logger()),
		outreachRepo,
		budgetNotifier,
		logger.With().Str("component", "outreach").Logger(),
		cfg.Limits.CostPer1KTokens,
	)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	logger.Info().Str("queue", cfg.AMQP.Queue).Msg("worker: старт")

	for {
		job, err := jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("worker: чтение задачи из очереди")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		result := svc.Process(ctx, job.Profile)
		if !result.Success {
			logger.Warn().
				Str("profile_key", result.ProfileKey).
				AnErr("reason", result.Err).
				Msg("worker: аутрич не отправлен")
		}
	}

	logger.Info().Msg("worker: остановка")
}
