package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
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
	httpinfra "linkedin-outreach/internal/infra/http"
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
		logger.Fatal().Err(err).Msg("api: некорректный ключ шифрования")
	}

	icebreakerCache := cacheadapter.NewRedis(redisClient, sealer, cfg.CacheTTL())
	quotaTracker := quota.NewRedis(redisClient, cfg.Limits.DailyMessages, cfg.Limits.TargetCostPerLead)

	var gen domain.Generator
	if cfg.OpenAI.APIKey != "" {
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		gen = generator.NewOpenAI(client, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	} else {
		logger.Warn().Msg("api: ключ OpenAI не задан, используем шаблонный генератор")
		gen = generator.NewTemplate()
	}

	var outreachRepo domain.OutreachRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к БД")
		}
		defer pool.Close()
		outreachRepo = repo.NewPostgres(pool)
	}

	var budgetNotifier domain.Notifier
	if cfg.Alerts.TGBotToken != "" && cfg.Alerts.TGChatID != 0 {
		tg, err := notifier.NewTelegram(cfg.Alerts.TGBotToken, cfg.Alerts.TGChatID, cache.NewRedis(redisClient), logger.With().Str("component", "notifier").Logger())
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось создать нотификатор")
		}
		budgetNotifier = tg
	}

	var jobs domain.OutreachQueue
	if cfg.AMQP.URL != "" {
		rabbit, err := queue.NewRabbitOutreachQueue(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к AMQP")
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

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())

	srv.Router.Post("/api/v1/outreach", func(w http.ResponseWriter, r *http.Request) {
		profile, ok := decodeProfile(w, r)
		if !ok {
			return
		}
		result := svc.Process(r.Context(), profile)
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: toOutreachResponse(result), Timestamp: time.Now().UTC()})
	})

	srv.Router.Post("/api/v1/outreach/async", func(w http.ResponseWriter, r *http.Request) {
		profile, ok := decodeProfile(w, r)
		if !ok {
			return
		}
		job := domain.OutreachJob{Profile: profile, EnqueuedAt: time.Now().UTC()}
		if err := jobs.Enqueue(r.Context(), job); err != nil {
			logger.Error().Err(err).Msg("api: постановка задачи в очередь")
			writeError(w, http.StatusInternalServerError, "failed to enqueue job")
			return
		}
		writeJSON(w, http.StatusAccepted, envelope{Success: true, Data: map[string]string{"status": "queued"}, Timestamp: time.Now().UTC()})
	})

	srv.Router.Post("/api/v1/icebreaker", func(w http.ResponseWriter, r *http.Request) {
		profile, ok := decodeProfile(w, r)
		if !ok {
			return
		}
		entry, cached, err := svc.GenerateOnly(r.Context(), profile)
		if err != nil {
			logger.Error().Err(err).Msg("api: генерация айсбрейкера")
			writeError(w, http.StatusBadGateway, "generation failed")
			return
		}
		data := map[string]any{
			"profile_id":  entry.ProfileKey,
			"icebreaker":  entry.Message,
			"cost":        entry.Cost,
			"tokens_used": entry.TokensUsed,
			"cached":      cached,
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Timestamp: time.Now().UTC()})
	})

	srv.Router.Get("/api/v1/stats/today", func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.DailyStats(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("api: получение статистики")
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: stats, Timestamp: time.Now().UTC()})
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		logger.Info().Msg("api: старт")
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type outreachResponse struct {
	Success           bool                    `json:"success"`
	ProfileID         string                  `json:"profile_id"`
	Icebreaker        string                  `json:"icebreaker,omitempty"`
	Cost              float64                 `json:"cost"`
	TokensUsed        int                     `json:"tokens_used"`
	Cached            bool                    `json:"cached"`
	RemainingMessages int                     `json:"remaining_messages"`
	Receipt           *domain.DeliveryReceipt `json:"unipile_response,omitempty"`
	Error             string                  `json:"error,omitempty"`
}

func toOutreachResponse(result domain.OutreachResult) outreachResponse {
	resp := outreachResponse{
		Success:           result.Success,
		ProfileID:         result.ProfileKey,
		Icebreaker:        result.Message,
		Cost:              result.Cost,
		TokensUsed:        result.TokensUsed,
		Cached:            result.Cached,
		RemainingMessages: result.Remaining,
		Receipt:           result.Receipt,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return resp
}

func decodeProfile(w http.ResponseWriter, r *http.Request) (domain.Profile, bool) {
	defer r.Body.Close()
	var req struct {
		Profile domain.Profile `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return domain.Profile{}, false
	}
	if req.Profile.Name == "" && req.Profile.Title == "" && req.Profile.Company == "" {
		writeError(w, http.StatusBadRequest, "profile is empty")
		return domain.Profile{}, false
	}
	return req.Profile, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg, Timestamp: time.Now().UTC()})
}
