package summarize

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/aldb-associates/inspection-ingest/internal/config"
)

// The prompts mirror what the safety team reviewed and signed off on.
// Change them together with the team, not unilaterally.
const (
	systemPrompt     = "You are a helpful assistant that analyzes health and safety documents."
	userPromptPrefix = "Analyze this document and give me what can be done to improve the situation on site:\n\n"
)

// maxInputChars caps how much extracted text goes into one summary request.
// Site reports run long and the tail is boilerplate sign-off pages.
const maxInputChars = 48000

// Summarizer produces an improvement summary for extracted document text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// New creates a Summarizer based on config.
func New(cfg config.SummarizerConfig) (Summarizer, error) {
	if cfg.Key == "" {
		return nil, eris.New("summarize: api key is required")
	}
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	default:
		return nil, eris.Errorf("summarize: unknown provider %q", cfg.Provider)
	}
}

func truncate(text string) string {
	if len(text) > maxInputChars {
		return text[:maxInputChars]
	}
	return text
}
