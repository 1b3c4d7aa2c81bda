package summarize

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/aldb-associates/inspection-ingest/internal/config"
)

// OpenAISummarizer summarizes documents with the OpenAI chat completions API.
type OpenAISummarizer struct {
	client    *openai.Client
	model     string
	maxTokens int
	limiter   *rate.Limiter
}

// NewOpenAI creates an OpenAISummarizer from config.
func NewOpenAI(cfg config.SummarizerConfig) *OpenAISummarizer {
	clientCfg := openai.DefaultConfig(cfg.Key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	return &OpenAISummarizer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// Summarize sends the document text for analysis and returns the summary.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "summarize: rate limit wait")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPromptPrefix + truncate(text)},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "summarize: openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("summarize: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
