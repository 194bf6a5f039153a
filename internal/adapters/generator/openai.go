package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkedin-outreach/internal/domain"
	openai "linkedin-outreach/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI генерирует айсбрейкеры через OpenAI Chat Completions.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
}

// NewOpenAI создаёт провайдер генерации.
func NewOpenAI(client chatClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

var _ domain.Generator = (*OpenAI)(nil)

const systemPrompt = "You are an expert LinkedIn outreach specialist. Create personalized, professional, and engaging icebreaker messages that are concise (1-2 sentences) and likely to get a positive response."

// Generate строит айсбрейкер по профилю и возвращает потраченные токены.
func (g *OpenAI) Generate(ctx context.Context, profile domain.Profile) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   100,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: buildPrompt(profile)},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("openai completion: пустой ответ")
	}
	message := strings.TrimSpace(resp.Choices[0].Message.Content)
	if message == "" {
		return "", 0, fmt.Errorf("openai completion: пустое сообщение")
	}
	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	return message, tokens, nil
}

func buildPrompt(profile domain.Profile) string {
	return fmt.Sprintf(`Create a personalized LinkedIn icebreaker message for the following profile:
Name: %s
Job Title: %s
Company: %s

Requirements:
- Keep it concise (1-2 sentences)
- Be professional and engaging
- Reference their role or company
- Avoid being overly salesy
- Make it feel personal and genuine

Example format: "Hi [Name], I noticed your work as [Title] at [Company] and found your approach to [relevant topic] really interesting!"`,
		profile.Name, profile.Title, profile.Company)
}
