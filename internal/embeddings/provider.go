package embeddings

import (
	"context"
	"os"
	"strings"
)

// Provider defines a simple embeddings provider interface.
// Implementations should be concurrency-safe.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "ollama").
	Name() string
	// Model returns the model identifier producing the vectors.
	Model() string
	// Dimensions returns the embedding dimensionality this provider produces.
	Dimensions() int
	// Embed returns one embedding per input string.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// NewFromEnv constructs a provider based on environment variables.
// EMBEDDINGS_PROVIDER: "openai", "ollama", "localai", or empty for disabled.
// The serving index must have been built with the same model; the engine
// rejects a provider whose dimensionality differs from the loaded index.
func NewFromEnv() Provider {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("EMBEDDINGS_PROVIDER")))
	switch name {
	case "openai":
		return newOpenAIFromEnv()
	case "ollama":
		return newOllamaFromEnv()
	case "localai", "llamacpp", "llama.cpp":
		return newLocalAIFromEnv()
	default:
		return nil
	}
}

func f64to32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i := range v {
		out[i] = float32(v[i])
	}
	return out
}
