package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type ExtractRequest struct {
	Image        []byte `json:"image"`
	MimeType     string `json:"mime_type"`
	Instructions string `json:"instructions"`
}

type ExtractResponse struct {
	RawText string `json:"raw_text"`
}

// Extractor converts an exam-paper scan into raw model text. The response
// is expected to be JSON but is not guaranteed to be; callers sanitize and
// parse it themselves.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, ProviderInfo, error)
}

type EmbedRequest struct {
	Inputs    []string `json:"inputs"`
	Dimension int      `json:"dimension"`
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error)
}
