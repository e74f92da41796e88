package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/services/llm"
)

// Service implements EmbeddingService interface
type Service struct {
	gemini *llm.GeminiService
	logger arbor.ILogger
}

var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates a new embedding service backed by the Gemini service.
func NewService(gemini *llm.GeminiService, logger arbor.ILogger) interfaces.EmbeddingService {
	return &Service{
		gemini: gemini,
		logger: logger,
	}
}

// GenerateEmbedding creates a vector embedding for text
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	start := time.Now()
	embedding, err := s.gemini.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(embedding) == 0 {
		return nil, fmt.Errorf("LLM service returned empty embedding")
	}

	s.logger.Debug().
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return embedding, nil
}

// GenerateEmbeddings creates embeddings for multiple texts, preserving
// input order. Fails on the first text that cannot be embedded; ranking
// on a partial matrix would silently misorder results.
func (s *Service) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		embedding, err := s.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, embedding)
	}
	return vectors, nil
}

// GenerateQueryEmbedding generates embedding for search query
func (s *Service) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	// For queries, we might want to add a prefix or special handling
	// For now, just use the query as-is
	return s.GenerateEmbedding(ctx, query)
}

// ModelName returns the model name
func (s *Service) ModelName() string {
	return s.gemini.EmbeddingModelName()
}

// Dimension returns the embedding dimension
func (s *Service) Dimension() int {
	return s.gemini.Dimension()
}

// IsAvailable checks whether the backing service responds to a probe.
func (s *Service) IsAvailable(ctx context.Context) bool {
	_, err := s.gemini.Embed(ctx, "availability probe")
	return err == nil
}
