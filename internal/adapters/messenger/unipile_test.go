package messenger

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"linkedin-outreach/internal/domain"
)

func TestSend(t *testing.T) {
	m := NewUnipile(zerolog.Nop())
	profile := domain.Profile{Name: "Jane Doe", Title: "AI Engineer", Company: "Tech Corp"}

	receipt, err := m.Send(context.Background(), profile, "Hi Jane, impressive work at Tech Corp!")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if receipt.Status != "sent" {
		t.Fatalf("ожидали статус sent, получили %q", receipt.Status)
	}
	if receipt.Recipient != "Jane Doe" {
		t.Fatalf("получатель не совпал: %q", receipt.Recipient)
	}
	if !strings.HasPrefix(receipt.MessageID, "msg_") {
		t.Fatalf("идентификатор сообщения должен иметь префикс msg_: %q", receipt.MessageID)
	}
	if receipt.SentAt.IsZero() {
		t.Fatalf("время отправки должно быть заполнено")
	}
}

func TestSendClipsPreview(t *testing.T) {
	m := NewUnipile(zerolog.Nop())
	long := strings.Repeat("a", 120)

	receipt, err := m.Send(context.Background(), domain.Profile{Name: "Jane"}, long)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len([]rune(receipt.Preview)) != previewLimit+3 {
		t.Fatalf("превью должно обрезаться до %d символов с многоточием, получили %d", previewLimit, len(receipt.Preview))
	}
	if !strings.HasSuffix(receipt.Preview, "...") {
		t.Fatalf("обрезанное превью должно заканчиваться многоточием")
	}
}

func TestSendShortPreviewUntouched(t *testing.T) {
	m := NewUnipile(zerolog.Nop())

	receipt, err := m.Send(context.Background(), domain.Profile{Name: "Jane"}, "короткое сообщение")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if receipt.Preview != "короткое сообщение" {
		t.Fatalf("короткое сообщение не должно обрезаться: %q", receipt.Preview)
	}
}
