package summarize

import (
	"context"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/aldb-associates/inspection-ingest/internal/config"
)

// AnthropicSummarizer summarizes documents with the Anthropic Messages API.
type AnthropicSummarizer struct {
	client    sdk.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// NewAnthropic creates an AnthropicSummarizer from config.
func NewAnthropic(cfg config.SummarizerConfig) *AnthropicSummarizer {
	opts := []option.RequestOption{option.WithAPIKey(cfg.Key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 500
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}

	return &AnthropicSummarizer{
		client:    sdk.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// Summarize sends the document text for analysis and returns the summary.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "summarize: rate limit wait")
	}

	msg, err := s.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(s.model),
		MaxTokens: s.maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPromptPrefix + truncate(text))),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "summarize: anthropic create message")
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", eris.New("summarize: anthropic returned no text content")
}
