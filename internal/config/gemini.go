package config

import (
	"sync"
)

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// Backend selects the generative-text provider for questions and feedback.
	Backend string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		v := env()
		v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
		v.SetDefault("EMBEDDING_MODEL", "gemini-embedding-001")
		v.SetDefault("GENERATIVE_BACKEND", "gemini")
		geminiConfig = &GeminiConfig{
			APIKey:         v.GetString("GEMINI_API_KEY"),
			Model:          v.GetString("GEMINI_MODEL"),
			EmbeddingModel: v.GetString("EMBEDDING_MODEL"),
			Backend:        v.GetString("GENERATIVE_BACKEND"),
		}
	})
	return geminiConfig
}
