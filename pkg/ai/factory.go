package ai

import "fmt"

// Config holds provider configuration for the factory.
type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	ClassifyModel  string
	EmbeddingModel string
}

// New creates a Service from the config. A missing API key is an
// error; callers that can run without AI treat a nil Service as
// "capability unavailable" and degrade instead of failing.
func New(cfg Config) (Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the OpenAI provider")
	}
	return newOpenAIService(cfg), nil
}
