package classify

import (
	"regexp"
	"strings"
)

// rule pairs a category with its trigger phrases. A trigger matches
// only as a whole word, so "agent" does not fire on "reagent".
type rule struct {
	category string
	triggers []string
}

var ruleTable = []rule{
	{"Claude & Anthropic", []string{"claude", "anthropic", "claude code"}},
	{"OpenAI & GPT", []string{"openai", "gpt", "chatgpt", "codex", "o1", "gpt-5"}},
	{"Google & Gemini", []string{"gemini", "google", "deepmind", "notebooklm"}},
	{"DeepSeek", []string{"deepseek"}},
	{"Cursor", []string{"cursor"}},
	{"Windsurf", []string{"windsurf", "codeium"}},
	{"Replit", []string{"replit"}},
	{"Perplexity", []string{"perplexity"}},
	{"MCP & Tool Integration", []string{"mcp", "model context protocol"}},
	{"AI Agents", []string{"agent", "agents", "agentic"}},
	{"Vibe Coding", []string{"vibe coding", "vibe-coding", "vibecoding"}},
	{"RAG & Embeddings", []string{"rag", "embedding", "embeddings", "vector db", "retrieval"}},
	{"Prompt Engineering", []string{"prompt", "prompting", "prompt engineering"}},
	{"AI Coding IDEs", []string{"vscode", "ide", "editor"}},
	{"No-Code/Low-Code", []string{"bolt", "lovable", "v0", "no-code", "low-code"}},
	{"LLM & Models", []string{"llm", "model", "parameter", "fine-tuning"}},
	{"AI Visual Tools", []string{"video", "image", "visual", "design"}},
	{"AI Audio & Music", []string{"voice", "music", "audio"}},
	{"Physical AI & Robotics", []string{"robot", "humanoid", "physical ai"}},
	{"AI for Business", []string{"saas", "startup", "business", "launch"}},
	{"AI Automation", []string{"automation", "workflow", "n8n"}},
	{"AI News & Industry", []string{"funding", "acquisition", "valuation"}},
	{"AI Research & Reports", []string{"paper", "benchmark", "research"}},
	{"Developer Resources", []string{"api", "documentation", "sdk"}},
	{"Learning Resources", []string{"course", "tutorial", "learn", "training", "masterclass"}},
	{"Tool Announcements", []string{"release", "announcing", "launches"}},
	{"AI Safety & Ethics", []string{"alignment", "interpretability", "safety"}},
}

type compiledRule struct {
	category string
	pattern  *regexp.Regexp
}

var compiledRules = func() []compiledRule {
	compiled := make([]compiledRule, len(ruleTable))
	for i, r := range ruleTable {
		alternatives := make([]string, len(r.triggers))
		for j, trigger := range r.triggers {
			alternatives[j] = regexp.QuoteMeta(trigger)
		}
		expr := `\b(` + strings.Join(alternatives, "|") + `)\b`
		compiled[i] = compiledRule{category: r.category, pattern: regexp.MustCompile(expr)}
	}
	return compiled
}()

// Categorize runs the static rule table over subject+body. The rules
// are independent predicates; the sentinel applies only when nothing
// matched.
func Categorize(subject, body string) []string {
	text := strings.ToLower(subject + " " + body)

	var categories []string
	for _, r := range compiledRules {
		if r.pattern.MatchString(text) {
			categories = append(categories, r.category)
		}
	}
	if len(categories) == 0 {
		categories = append(categories, SentinelCategory)
	}
	return categories
}
