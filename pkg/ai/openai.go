package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const maxEmbedChars = 25000

// openAIService implements Service on top of the OpenAI API.
type openAIService struct {
	client         *openai.Client
	chatModel      string
	classifyModel  string
	embeddingModel string
}

func newOpenAIService(cfg Config) *openAIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIService{
		client:         openai.NewClientWithConfig(clientCfg),
		chatModel:      cfg.ChatModel,
		classifyModel:  cfg.ClassifyModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

func (s *openAIService) Summarize(ctx context.Context, input SummaryInput) (string, error) {
	linksText := "No external links"
	if len(input.Links) > 0 {
		linksText = strings.Join(input.Links, "\n")
	}

	prompt := fmt.Sprintf(`Based on the following email, write a concise 2-3 sentence summary that captures the main topic and key takeaways. If there are external links, infer their content from the URL patterns and how they're referenced in the email.

Subject: %s

Content:
%s

External Links:
%s

Write a helpful summary (2-3 sentences):`, input.Subject, input.Body, linksText)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful assistant that summarizes AI development newsletter emails. Be concise and informative.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   150,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no summary returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (s *openAIService) Classify(ctx context.Context, input ClassifyInput) (Classification, error) {
	var vocab strings.Builder
	for _, label := range input.Vocabulary {
		if desc := input.Descriptions[label]; desc != "" {
			fmt.Fprintf(&vocab, "- %s: %s\n", label, desc)
		} else {
			fmt.Fprintf(&vocab, "- %s\n", label)
		}
	}

	tools := "None"
	if len(input.Tools) > 0 {
		tools = strings.Join(input.Tools, ", ")
	}
	domains := "None"
	if len(input.Domains) > 0 {
		domains = strings.Join(input.Domains, ", ")
	}

	prompt := fmt.Sprintf(`Classify this AI-related email into categories.

EMAIL:
Subject: %s
Summary: %s
Tools mentioned: %s
Link domains: %s

AVAILABLE CATEGORIES:
%s
RULES:
1. Pick exactly 1 PRIMARY category (the best fit)
2. Pick 0-2 SECONDARY categories (if clearly relevant)
3. Prefer vendor-specific categories when appropriate
4. Use "Tool Announcements" for new product launches
5. Use "AI News & Industry" for funding/acquisition news

Return JSON only:
{"primary": "Category Name", "secondary": ["Cat1", "Cat2"], "confidence": 0.95}`,
		input.Subject, input.Summary, tools, domains, vocab.String())

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.classifyModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   150,
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Classification{}, err
	}
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("no classification returned")
	}

	var result Classification
	content := stripJSONFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return Classification{}, fmt.Errorf("failed to parse classification response: %w", err)
	}
	return result, nil
}

func (s *openAIService) ExtractEntities(ctx context.Context, text string) ([]ExtractedEntity, error) {
	if len(text) > 2000 {
		text = text[:2000]
	}

	prompt := fmt.Sprintf(`Extract named entities from the following text about AI technology.

Categories:
- tool: AI products, software, apps, models (e.g., Claude, Cursor, GPT-4)
- company: Organizations (e.g., Anthropic, OpenAI, Google)
- concept: Technical concepts, methodologies (e.g., RAG, embeddings, fine-tuning)
- person: Named individuals mentioned

Return JSON array only, no other text:
[{"name": "entity name", "type": "category"}]

Text:
%s`, text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.classifyModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an entity extraction assistant. Return only valid JSON arrays.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no entities returned")
	}

	var entities []ExtractedEntity
	content := stripJSONFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &entities); err != nil {
		return nil, fmt.Errorf("failed to parse entity response: %w", err)
	}
	return entities, nil
}

func (s *openAIService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Truncate to stay inside the embedding model's context window.
	inputs := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > maxEmbedChars {
			t = t[:maxEmbedChars]
		}
		inputs[i] = t
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(s.embeddingModel),
		Input: inputs,
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	return vectors, nil
}

func (s *openAIService) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   600,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// stripJSONFence removes a markdown code fence around a JSON payload.
// Some models wrap JSON responses despite instructions not to.
func stripJSONFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	if idx := strings.Index(content, "\n"); idx >= 0 {
		content = content[idx+1:]
	}
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}
