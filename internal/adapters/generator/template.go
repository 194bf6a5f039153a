package generator

import (
	"context"
	"fmt"
	"strings"

	"linkedin-outreach/internal/domain"
)

// Template детерминированный генератор без внешних вызовов.
// Применяется в тестах и dev-окружении без ключа OpenAI.
type Template struct{}

// NewTemplate создаёт шаблонный генератор.
func NewTemplate() *Template {
	return &Template{}
}

var _ domain.Generator = (*Template)(nil)

// Generate собирает айсбрейкер из полей профиля.
func (t *Template) Generate(_ context.Context, profile domain.Profile) (string, int, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = "there"
	}
	var message string
	switch {
	case profile.Title != "" && profile.Company != "":
		message = fmt.Sprintf("Hi %s, I noticed your work as %s at %s and would love to connect!", name, profile.Title, profile.Company)
	case profile.Company != "":
		message = fmt.Sprintf("Hi %s, your work at %s caught my attention and I would love to connect!", name, profile.Company)
	default:
		message = fmt.Sprintf("Hi %s, your profile caught my attention and I would love to connect!", name)
	}
	return message, estimateTokens(message), nil
}

// estimateTokens грубая оценка: примерно четыре символа на токен.
func estimateTokens(message string) int {
	tokens := len(message) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
