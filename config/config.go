package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	PineconeAPIKey    string
	PineconeIndexName string
	CoachBackend      string
}

// Load reads configuration from the environment, with a .env file as
// the local-development source.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file found, reading configuration from environment")
	}

	return &Config{
		DatabaseURL:       os.Getenv("DB_URL"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName: os.Getenv("PINECONE_INDEX_NAME"),
		CoachBackend:      getEnvOrDefault("COACH_BACKEND", "llm"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
