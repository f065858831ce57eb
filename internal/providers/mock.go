package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// MockProvider is deterministic: the same input always yields the same
// extraction text and the same embedding vectors, which keeps pipeline runs
// reproducible in tests and local development.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 10
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, ProviderInfo, error) {
	_ = ctx
	year := 2020 + int(sha256.Sum256(req.Image)[0])%6
	text := fmt.Sprintf(`{
  "course": {"code": "CS101", "name": "Introduction to Computer Science"},
  "session": "Fall",
  "sessionYear": %d,
  "examType": "Final",
  "questions": [
    {"question": "Explain the difference between a process and a thread.", "answer": "A process has its own address space; threads share one.", "tag": "os"},
    {"question": "State the worst-case complexity of quicksort.", "answer": "O(n^2), with O(n log n) expected.", "tag": "algorithms"}
  ]
}`, year)
	return ExtractResponse{RawText: text}, ProviderInfo{Name: "mock", Model: "mock-extract-v1"}, nil
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim)}, nil
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
	return v
}
