package usecase

import (
	"regexp"
	"strings"

	"aikb-backend/internal/insight/domain"
)

// toolSpec describes one tracked tool: the patterns that detect it and
// an optional exclusion that vetoes a match (RE2 has no lookahead, so
// "cursor" minus "cursor position" is a pattern plus an exclusion).
type toolSpec struct {
	name     string
	category string
	company  string
	patterns []*regexp.Regexp
	exclude  *regexp.Regexp
}

var toolDictionary = []toolSpec{
	{
		name: "Claude Code", category: "AI Coding IDE", company: "Anthropic",
		patterns: compile(`\bclaude\s*code\b`, `\bclaudecode\b`),
	},
	{
		name: "Cursor", category: "AI Coding IDE", company: "Cursor Inc",
		patterns: compile(`\bcursor\b`, `\bcursor\.ai\b`, `\bcursor\s+ai\b`),
		exclude:  regexp.MustCompile(`\bcursor\s*position\b`),
	},
	{
		name: "Windsurf", category: "AI Coding IDE", company: "Codeium",
		patterns: compile(`\bwindsurf\b`, `\bcodeium\b`),
	},
	{
		name: "GitHub Copilot", category: "AI Coding IDE", company: "GitHub/Microsoft",
		patterns: compile(`\bcopilot\b`, `\bgithub\s*copilot\b`),
	},
	{
		name: "Devin", category: "AI Coding Agent", company: "Cognition",
		patterns: compile(`\bdevin\b`),
	},
	{
		name: "Lovable", category: "No-Code Builder", company: "Lovable",
		patterns: compile(`\blovable\b`, `\blovable\.dev\b`),
	},
	{
		name: "Bolt", category: "No-Code Builder", company: "StackBlitz",
		patterns: compile(`\bbolt\s*new\b`, `\bbolt\.new\b`),
	},
	{
		name: "Replit", category: "No-Code Builder", company: "Replit",
		patterns: compile(`\breplit\b`),
	},
	{
		name: "v0", category: "No-Code Builder", company: "Vercel",
		patterns: compile(`\bv0\b`, `\bv0\.dev\b`),
	},
	{
		name: "Claude", category: "LLM", company: "Anthropic",
		patterns: compile(`\bclaude\b`),
		exclude:  regexp.MustCompile(`\bclaude\s*code\b`),
	},
	{
		name: "GPT-4", category: "LLM", company: "OpenAI",
		patterns: compile(`\bgpt-?4\b`, `\bgpt4\b`),
	},
	{
		name: "GPT-4o", category: "LLM", company: "OpenAI",
		patterns: compile(`\bgpt-?4o\b`, `\bo1\b`, `\bo3\b`),
	},
	{
		name: "ChatGPT", category: "LLM", company: "OpenAI",
		patterns: compile(`\bchatgpt\b`),
	},
	{
		name: "Gemini", category: "LLM", company: "Google",
		patterns: compile(`\bgemini\b`),
	},
	{
		name: "DeepSeek", category: "LLM", company: "DeepSeek",
		patterns: compile(`\bdeepseek\b`),
	},
	{
		name: "Qwen", category: "LLM", company: "Alibaba",
		patterns: compile(`\bqwen\b`),
	},
	{
		name: "MCP", category: "Protocol", company: "Anthropic",
		patterns: compile(`\bmcp\b`, `\bmodel\s*context\s*protocol\b`),
	},
	{
		name: "Perplexity", category: "AI Search", company: "Perplexity AI",
		patterns: compile(`\bperplexity\b`),
	},
	{
		name: "NotebookLM", category: "AI Notes", company: "Google",
		patterns: compile(`\bnotebooklm\b`, `\bnotebook\s*lm\b`),
	},
	{
		name: "Midjourney", category: "AI Image", company: "Midjourney",
		patterns: compile(`\bmidjourney\b`),
	},
	{
		name: "DALL-E", category: "AI Image", company: "OpenAI",
		patterns: compile(`\bdall-?e\b`, `\bdalle\b`),
	},
	{
		name: "Stable Diffusion", category: "AI Image", company: "Stability AI",
		patterns: compile(`\bstable\s*diffusion\b`),
	},
	{
		name: "Anthropic", category: "Company", company: "Anthropic",
		patterns: compile(`\banthropic\b`),
	},
	{
		name: "OpenAI", category: "Company", company: "OpenAI",
		patterns: compile(`\bopenai\b`),
	},
	{
		name: "Google", category: "Company", company: "Google",
		patterns: compile(`\bgoogle\b`),
		exclude:  regexp.MustCompile(`\bgoogle\s+search\b`),
	},
	{
		name: "Vibe Coding", category: "Concept", company: "",
		patterns: compile(`\bvibe\s*coding\b`, `\bvibe-coding\b`, `\bvibecoding\b`),
	},
	{
		name: "RAG", category: "Technique", company: "",
		patterns: compile(`\brag\b`, `\bretrieval\s*augmented\b`),
	},
	{
		name: "Prompt Engineering", category: "Technique", company: "",
		patterns: compile(`\bprompt\s*engineering\b`),
	},
}

// knownEntities maps recognizable names to their entity type for
// pattern-only extraction.
var knownEntities = map[string]string{
	"Claude Code":      domain.EntityTypeTool,
	"Cursor":           domain.EntityTypeTool,
	"Windsurf":         domain.EntityTypeTool,
	"GitHub Copilot":   domain.EntityTypeTool,
	"Devin":            domain.EntityTypeTool,
	"Lovable":          domain.EntityTypeTool,
	"Bolt":             domain.EntityTypeTool,
	"v0":               domain.EntityTypeTool,
	"Replit":           domain.EntityTypeTool,
	"ChatGPT":          domain.EntityTypeTool,
	"GPT-4":            domain.EntityTypeTool,
	"GPT-4o":           domain.EntityTypeTool,
	"Claude":           domain.EntityTypeTool,
	"Gemini":           domain.EntityTypeTool,
	"Perplexity":       domain.EntityTypeTool,
	"NotebookLM":       domain.EntityTypeTool,
	"Midjourney":       domain.EntityTypeTool,
	"DALL-E":           domain.EntityTypeTool,
	"Stable Diffusion": domain.EntityTypeTool,
	"DeepSeek":         domain.EntityTypeTool,
	"Qwen":             domain.EntityTypeTool,

	"Anthropic":  domain.EntityTypeCompany,
	"OpenAI":     domain.EntityTypeCompany,
	"Google":     domain.EntityTypeCompany,
	"Microsoft":  domain.EntityTypeCompany,
	"Meta":       domain.EntityTypeCompany,
	"Amazon":     domain.EntityTypeCompany,
	"Apple":      domain.EntityTypeCompany,
	"NVIDIA":     domain.EntityTypeCompany,
	"Cognition":  domain.EntityTypeCompany,
	"Codeium":    domain.EntityTypeCompany,
	"Vercel":     domain.EntityTypeCompany,
	"StackBlitz": domain.EntityTypeCompany,

	"Vibe Coding":        domain.EntityTypeConcept,
	"MCP":                domain.EntityTypeConcept,
	"RAG":                domain.EntityTypeConcept,
	"Prompt Engineering": domain.EntityTypeConcept,
	"Fine-tuning":        domain.EntityTypeConcept,
	"Embeddings":         domain.EntityTypeConcept,
	"Vector Database":    domain.EntityTypeConcept,
	"AI Agents":          domain.EntityTypeConcept,
	"Agentic AI":         domain.EntityTypeConcept,
	"Chain of Thought":   domain.EntityTypeConcept,
	"Few-shot Learning":  domain.EntityTypeConcept,
	"Context Window":     domain.EntityTypeConcept,
}

type knownEntityPattern struct {
	name       string
	entityType string
	pattern    *regexp.Regexp
}

var knownEntityPatterns = func() []knownEntityPattern {
	patterns := make([]knownEntityPattern, 0, len(knownEntities))
	for name, entityType := range knownEntities {
		patterns = append(patterns, knownEntityPattern{
			name:       name,
			entityType: entityType,
			pattern:    regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(name)) + `\b`),
		})
	}
	return patterns
}()

func compile(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}
