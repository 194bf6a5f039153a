package domain

import "time"

// Profile описывает профиль LinkedIn, для которого готовится сообщение.
type Profile struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Industry string `json:"industry,omitempty"`
	Location string `json:"location,omitempty"`
}

// Icebreaker хранит сгенерированное сообщение вместе с его стоимостью.
type Icebreaker struct {
	ProfileKey string    `json:"profile_key"`
	Message    string    `json:"message"`
	TokensUsed int       `json:"tokens_used"`
	Cost       float64   `json:"cost"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Cached     bool      `json:"cached"`
}

// Valid сообщает, действует ли запись на момент now.
func (i Icebreaker) Valid(now time.Time) bool {
	return now.Before(i.ExpiresAt)
}

// DeliveryReceipt подтверждение доставки сообщения.
type DeliveryReceipt struct {
	MessageID string    `json:"message_id"`
	Status    string    `json:"status"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sent_at"`
	Preview   string    `json:"preview"`
}

// QuotaStats агрегат дневной статистики отправок.
type QuotaStats struct {
	Date          string  `json:"date"`
	Sent          int     `json:"messages_sent"`
	Remaining     int     `json:"remaining_messages"`
	EstimatedCost float64 `json:"estimated_cost"`
	CostPerLead   float64 `json:"cost_per_lead"`
	WithinBudget  bool    `json:"within_budget"`
}

// OutreachResult итог одной попытки аутрича. Не персистится.
type OutreachResult struct {
	Success    bool
	ProfileKey string
	Message    string
	Cost       float64
	TokensUsed int
	Cached     bool
	Remaining  int
	Receipt    *DeliveryReceipt
	Err        error
}

// OutreachJob задача на асинхронную обработку профиля.
type OutreachJob struct {
	Profile    Profile   `json:"profile"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// OutreachRecord строка журнала попыток в БД.
type OutreachRecord struct {
	ID         int64
	ProfileKey string
	Recipient  string
	Status     string
	Cached     bool
	TokensUsed int
	Cost       float64
	CreatedAt  time.Time
}

// Статусы записей журнала аутрича.
const (
	OutreachStatusSent          = "sent"
	OutreachStatusQuotaExceeded = "quota_exceeded"
	OutreachStatusGenerateFail  = "generation_failed"
	OutreachStatusDeliveryFail  = "delivery_failed"
)

// DayKey возвращает календарный день в UTC в формате ключа квоты.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
