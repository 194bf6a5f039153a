package notifier

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"linkedin-outreach/internal/domain"
)

// Telegram шлёт служебные оповещения о превышении бюджета в чат опсов.
// Дедупликация через Cache.Once: не больше одного оповещения на дату.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	dedup  domain.Cache
	log    zerolog.Logger
}

// NewTelegram создаёт нотификатор. dedup может быть nil, тогда
// оповещение уходит на каждый вызов.
func NewTelegram(token string, chatID int64, dedup domain.Cache, log zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, dedup: dedup, log: log}, nil
}

var _ domain.Notifier = (*Telegram)(nil)

// NotifyBudgetExceeded отправляет оповещение о выходе за целевую стоимость лида.
func (t *Telegram) NotifyBudgetExceeded(_ context.Context, stats domain.QuotaStats) error {
	send := func() error {
		text := fmt.Sprintf(
			"Бюджет аутрича превышен за %s:\nотправлено %d, потрачено $%.4f, стоимость лида $%.4f",
			stats.Date, stats.Sent, stats.EstimatedCost, stats.CostPerLead,
		)
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
			return fmt.Errorf("send alert: %w", err)
		}
		t.log.Warn().
			Str("date", stats.Date).
			Float64("cost_per_lead", stats.CostPerLead).
			Msg("нотификатор: отправлено оповещение о бюджете")
		return nil
	}
	if t.dedup == nil {
		return send()
	}
	return t.dedup.Once("budget_alert:"+stats.Date, 24*time.Hour, send)
}
