package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// GeminiExtractor calls the Generative Language REST API directly. The
// response modality is pinned to JSON and a low temperature to keep the
// extraction as literal as possible.
type GeminiExtractor struct {
	model  string
	apiKey string
	client *http.Client
}

func NewGeminiExtractor(model string, timeout time.Duration) *GeminiExtractor {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiExtractor{
		model:  model,
		apiKey: resolveGeminiKey(),
		client: &http.Client{Timeout: timeout},
	}
}

func (g *GeminiExtractor) Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.model}
	if g.apiKey == "" {
		return ExtractResponse{}, info, fmt.Errorf("gemini api key missing")
	}

	payload, _ := json.Marshal(map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": req.Instructions},
				{"inline_data": map[string]any{
					"mime_type": req.MimeType,
					"data":      base64.StdEncoding.EncodeToString(req.Image),
				}},
			},
		}},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"temperature":      0.2,
		},
	})

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", g.model, g.apiKey)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return ExtractResponse{}, info, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		// Status and body stay in the message so a rejection notification
		// can be diagnosed upstream.
		return ExtractResponse{}, info, fmt.Errorf("gemini error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ExtractResponse{}, info, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return ExtractResponse{}, info, fmt.Errorf("gemini returned no candidates")
	}
	return ExtractResponse{RawText: parsed.Candidates[0].Content.Parts[0].Text}, info, nil
}

func resolveGeminiKey() string {
	if k := os.Getenv("EXAMVAULT_GEMINI_KEY"); k != "" {
		return k
	}
	return os.Getenv("GEMINI_API_KEY")
}
