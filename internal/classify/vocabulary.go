package classify

// SentinelCategory is assigned when no other category applies. Every
// stored email carries at least one category, so classification can
// never produce an empty set.
const SentinelCategory = "General AI"

// Vocabulary is the single category list shared by the rule classifier
// and the LLM recategorizer, ordered vendor-first.
var Vocabulary = []string{
	"Claude & Anthropic",
	"OpenAI & GPT",
	"Google & Gemini",
	"DeepSeek",
	"Cursor",
	"Windsurf",
	"Replit",
	"Perplexity",
	"MCP & Tool Integration",
	"AI Agents",
	"Vibe Coding",
	"RAG & Embeddings",
	"Prompt Engineering",
	"AI Coding IDEs",
	"No-Code/Low-Code",
	"LLM & Models",
	"AI Visual Tools",
	"AI Audio & Music",
	"Physical AI & Robotics",
	"AI for Business",
	"AI Automation",
	"AI News & Industry",
	"AI Research & Reports",
	"Developer Resources",
	"Learning Resources",
	"Tool Announcements",
	"AI Safety & Ethics",
}

// Descriptions gives the LLM one line of guidance per category.
var Descriptions = map[string]string{
	"Claude & Anthropic":     "Claude, Claude Code, Anthropic products",
	"OpenAI & GPT":           "ChatGPT, GPT-4, GPT-4o, o1, o3, OpenAI products",
	"Google & Gemini":        "Gemini, NotebookLM, Google AI products",
	"DeepSeek":               "DeepSeek R1, V3, and related content",
	"Cursor":                 "Cursor IDE features and tips",
	"Windsurf":               "Windsurf/Codeium IDE content",
	"Replit":                 "Replit Agent and platform",
	"Perplexity":             "Perplexity AI search and products",
	"MCP & Tool Integration": "Model Context Protocol, tool integrations",
	"AI Agents":              "Autonomous agents, agentic workflows",
	"Vibe Coding":            "Natural language coding, describe-to-build",
	"RAG & Embeddings":       "Retrieval, vector DBs, embeddings",
	"Prompt Engineering":     "Prompts, templates, system prompts",
	"AI Coding IDEs":         "Code editors, IDE features (general)",
	"No-Code/Low-Code":       "Visual builders, Bolt, Lovable, v0",
	"LLM & Models":           "Model releases, architecture, training",
	"AI Visual Tools":        "Image/video generation, design tools",
	"AI Audio & Music":       "Voice, music, audio generation",
	"Physical AI & Robotics": "Robots, embodied AI, hardware",
	"AI for Business":        "Enterprise, productivity, workflows",
	"AI Automation":          "Workflows, n8n, automations",
	"AI News & Industry":     "Funding, acquisitions, market trends",
	"AI Research & Reports":  "Papers, studies, benchmarks",
	"Developer Resources":    "Tutorials, APIs, documentation",
	"Learning Resources":     "Courses, educational content",
	"Tool Announcements":     "New releases, product launches",
	"AI Safety & Ethics":     "Alignment, interpretability, safety",
}

var vocabularySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Vocabulary)+1)
	for _, label := range Vocabulary {
		set[label] = struct{}{}
	}
	set[SentinelCategory] = struct{}{}
	return set
}()

// InVocabulary reports whether label is a known category, sentinel
// included.
func InVocabulary(label string) bool {
	_, ok := vocabularySet[label]
	return ok
}
