package ai

import "context"

// SummaryInput is the bounded context handed to the summarization
// capability: subject, truncated body, and at most a handful of links.
type SummaryInput struct {
	Subject string
	Body    string
	Links   []string
}

// ClassifyInput carries everything the re-categorization pass knows
// about an email, plus the fixed vocabulary the answer must come from.
type ClassifyInput struct {
	Subject    string
	Summary    string
	Tools      []string
	Domains    []string
	Vocabulary []string
	// Descriptions maps vocabulary labels to one-line hints for the prompt.
	Descriptions map[string]string
}

// Classification is the classifier contract: exactly one primary
// label, up to two secondary labels, and a confidence in [0, 1].
type Classification struct {
	Primary    string   `json:"primary"`
	Secondary  []string `json:"secondary"`
	Confidence float64  `json:"confidence"`
}

// ExtractedEntity is one named thing found in message text.
type ExtractedEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Service is the external-capability boundary. Every method may fail;
// callers degrade per item and never abort a batch on an error here.
// Implement this interface to add new providers.
type Service interface {
	Summarize(ctx context.Context, input SummaryInput) (string, error)
	Classify(ctx context.Context, input ClassifyInput) (Classification, error)
	ExtractEntities(ctx context.Context, text string) ([]ExtractedEntity, error)
	// EmbedTexts returns one vector per input; a nil entry marks a
	// per-item failure inside an otherwise successful batch.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Synthesize(ctx context.Context, system, prompt string) (string, error)
}
