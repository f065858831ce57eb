package providers

import (
	"fmt"
	"strings"
	"time"

	"examvault/internal/config"
)

// Manager builds the configured extraction and embedding providers once at
// startup; nothing holds process-wide provider singletons.
type Manager struct {
	extractor Extractor
	embedder  EmbeddingProvider
}

func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}

	switch strings.ToLower(cfg.ExtractProvider) {
	case "mock", "":
		m.extractor = NewMockProvider(cfg.EmbedDim)
	case "gemini":
		m.extractor = NewGeminiExtractor(cfg.GeminiModel, time.Duration(cfg.ExtractTimeoutSecs)*time.Second)
	default:
		return nil, fmt.Errorf("unsupported extract provider: %s", cfg.ExtractProvider)
	}

	switch strings.ToLower(cfg.EmbedProvider) {
	case "mock", "":
		m.embedder = NewMockProvider(cfg.EmbedDim)
	case "openai":
		m.embedder = NewOpenAIEmbedder()
	default:
		return nil, fmt.Errorf("unsupported embed provider: %s", cfg.EmbedProvider)
	}
	return m, nil
}

func (m *Manager) Extractor() Extractor {
	return m.extractor
}

func (m *Manager) Embedder() EmbeddingProvider {
	return m.embedder
}
