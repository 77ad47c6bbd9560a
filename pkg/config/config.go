package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	DBPath string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	ChatModel        string
	ClassifyModel    string
	EmbeddingModel   string
	AICallTimeout    time.Duration
	AICallDelay      time.Duration
	EmbeddingBatch   int
	LLMExtractLimit  int
	SummaryBodyLimit int
	SummaryMaxLinks  int

	LinkFetchTimeout time.Duration
	LinkFetchLimit   int

	EnrichSchedule string

	IMAPServer   string
	IMAPPort     int
	IMAPUsername string
	IMAPPassword string
	IMAPMailbox  string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "data/knowledge.db"),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		ChatModel:        getEnv("OPENAI_CHAT_MODEL", "gpt-4.1-mini"),
		ClassifyModel:    getEnv("OPENAI_CLASSIFY_MODEL", "gpt-4o-mini"),
		EmbeddingModel:   getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		AICallTimeout:    getDuration("AI_CALL_TIMEOUT", 30*time.Second),
		AICallDelay:      getDuration("AI_CALL_DELAY", 100*time.Millisecond),
		EmbeddingBatch:   getInt("EMBEDDING_BATCH_SIZE", 100),
		LLMExtractLimit:  getInt("LLM_EXTRACT_LIMIT", 50),
		SummaryBodyLimit: getInt("SUMMARY_BODY_LIMIT", 2000),
		SummaryMaxLinks:  getInt("SUMMARY_MAX_LINKS", 10),

		LinkFetchTimeout: getDuration("LINK_FETCH_TIMEOUT", 10*time.Second),
		LinkFetchLimit:   getInt("LINK_FETCH_LIMIT", 100),

		EnrichSchedule: getEnv("ENRICH_SCHEDULE", "0 3 * * *"),

		IMAPServer:   getEnv("IMAP_SERVER", ""),
		IMAPPort:     getInt("IMAP_PORT", 993),
		IMAPUsername: getEnv("IMAP_USERNAME", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMailbox:  getEnv("IMAP_MAILBOX", "INBOX"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
