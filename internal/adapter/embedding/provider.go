package embedding

import (
	"fmt"

	"vecdb/config"
	"vecdb/internal/port"
)

// New returns the embedder selected by cfg, or nil when no provider is
// configured.
func New(cfg config.EmbeddingConfig, dimension int) (port.Embedder, error) {
	var baseURL string
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		baseURL = "https://api.openai.com/v1"
	case "deepseek":
		baseURL = "https://api.deepseek.com/v1"
	case "jina":
		baseURL = "https://api.jina.ai/v1"
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL), nil
	case "mock":
		return NewMockEmbedder(dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	e, err := NewOpenAICompatibleEmbedder(cfg.APIKeyEnv, cfg.Model, baseURL)
	if err != nil {
		return nil, err
	}
	return e, nil
}
