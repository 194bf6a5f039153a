package messenger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"linkedin-outreach/internal/domain"
)

const previewLimit = 50

// Unipile заглушка доставки через Unipile API: всегда подтверждает отправку.
// Реальная интеграция подключится на этом же интерфейсе.
type Unipile struct {
	log zerolog.Logger
	now func() time.Time
}

// NewUnipile создаёт заглушку доставки.
func NewUnipile(log zerolog.Logger) *Unipile {
	return &Unipile{log: log, now: time.Now}
}

var _ domain.Messenger = (*Unipile)(nil)

// Send имитирует доставку и возвращает синтетическую квитанцию.
func (u *Unipile) Send(_ context.Context, profile domain.Profile, message string) (domain.DeliveryReceipt, error) {
	receipt := domain.DeliveryReceipt{
		MessageID: "msg_" + uuid.NewString(),
		Status:    "sent",
		Recipient: profile.Name,
		SentAt:    u.now(),
		Preview:   clipPreview(message, previewLimit),
	}
	u.log.Info().
		Str("recipient", profile.Name).
		Str("message_id", receipt.MessageID).
		Msg("unipile: мок-доставка сообщения")
	return receipt, nil
}

func clipPreview(message string, limit int) string {
	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}
	return string(runes[:limit]) + "..."
}
