package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"30s"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	AMQP struct {
		URL   string `envconfig:"AMQP_URL"`
		Queue string `envconfig:"OUTREACH_QUEUE" default:"outreach_jobs"`
	} `envconfig:""`

	Limits struct {
		DailyMessages     int     `envconfig:"DAILY_MESSAGE_LIMIT" default:"50"`
		CostPer1KTokens   float64 `envconfig:"COST_PER_1K_TOKENS" default:"0.005"`
		TargetCostPerLead float64 `envconfig:"TARGET_COST_PER_LEAD" default:"0.05"`
		CacheTTLHours     int     `envconfig:"CACHE_TTL_HOURS" default:"24"`
	} `envconfig:""`

	Alerts struct {
		TGBotToken string `envconfig:"ALERT_TG_BOT_TOKEN"`
		TGChatID   int64  `envconfig:"ALERT_TG_CHAT_ID"`
	} `envconfig:""`

	// EncryptionKey ключ AES-256 в base64 для шифрования кэша; пустое значение отключает шифрование.
	EncryptionKey string `envconfig:"CACHE_ENCRYPTION_KEY"`
}

// CacheTTL возвращает срок жизни записи кэша айсбрейкеров.
func (c AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Limits.CacheTTLHours) * time.Hour
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
