package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// Per-mode document budgets. Speed keeps the answer prompt small, quality
// hands the model the widest scored context.
const (
	speedBudget    = 15
	balancedBudget = 25
	qualityBudget  = 35

	// speedFileCap limits file-derived documents in speed mode when web
	// documents compete for the budget.
	speedFileCap = 8

	// summarizeBudget caps the pass-through list for summarization runs.
	summarizeBudget = 15
)

// scoredCandidate ties a similarity score back to a candidate index.
type scoredCandidate struct {
	index      int
	similarity float64
}

// Selector filters and orders candidate documents for answer generation.
type Selector struct {
	embeddings interfaces.EmbeddingService
	fileIndex  interfaces.FileIndexService
	config     *common.AgentConfig
	similarity Similarity
	logger     arbor.ILogger
}

// NewSelector creates a selector with the configured similarity measure.
func NewSelector(embeddings interfaces.EmbeddingService, fileIndex interfaces.FileIndexService, config *common.AgentConfig, logger arbor.ILogger) (*Selector, error) {
	sim, err := similarityByName(config.SimilarityMeasure)
	if err != nil {
		return nil, err
	}
	return &Selector{
		embeddings: embeddings,
		fileIndex:  fileIndex,
		config:     config,
		similarity: sim,
		logger:     logger,
	}, nil
}

// Select scores, filters and truncates the candidate pool under the mode's
// budget. docs are web or link-summary documents; fileIDs name uploaded
// files whose indexed chunks join the pool.
func (s *Selector) Select(ctx context.Context, query string, docs []models.Document, fileIDs []string, mode models.OptimizationMode) ([]models.Document, error) {
	// Nothing to rank and nothing to load: pass through untouched.
	if len(docs) == 0 && len(fileIDs) == 0 {
		return docs, nil
	}

	chunks, err := s.fileIndex.LoadAll(fileIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load file chunks: %w", err)
	}

	// Summarization runs skip ranking entirely; the fetched fragments are
	// already the subject of the question.
	if strings.ToLower(strings.TrimSpace(query)) == "summarize" {
		if len(docs) > summarizeBudget {
			return docs[:summarizeBudget], nil
		}
		return docs, nil
	}

	webDocs := withContent(docs)

	startTime := time.Now()
	var selected []models.Document
	switch mode {
	case models.ModeSpeed:
		selected, err = s.selectSpeed(ctx, query, webDocs, chunks)
	case models.ModeQuality:
		selected, err = s.selectScored(ctx, query, webDocs, chunks, qualityBudget)
	default:
		selected, err = s.selectScored(ctx, query, webDocs, chunks, balancedBudget)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("mode", string(mode)).
		Int("web_docs", len(webDocs)).
		Int("file_chunks", len(chunks)).
		Int("selected", len(selected)).
		Dur("duration", time.Since(startTime)).
		Msg("Documents reranked")

	return selected, nil
}

// selectSpeed embeds only the query and scores file chunks against it; web
// documents are passed through unscored in backend order. With no file
// chunks the web list is simply truncated.
func (s *Selector) selectSpeed(ctx context.Context, query string, webDocs []models.Document, chunks []models.FileChunk) ([]models.Document, error) {
	if len(chunks) == 0 {
		return truncate(webDocs, speedBudget), nil
	}

	queryEmbedding, err := s.embeddings.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	threshold := s.config.SpeedThreshold
	if threshold == 0 {
		threshold = 0.3
	}

	scored := make([]scoredCandidate, 0, len(chunks))
	for i, chunk := range chunks {
		sim := s.similarity(queryEmbedding, chunk.Embedding)
		if sim >= threshold {
			scored = append(scored, scoredCandidate{index: i, similarity: sim})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})
	if len(scored) > speedBudget {
		scored = scored[:speedBudget]
	}

	fileCap := len(scored)
	if len(webDocs) > 0 && fileCap > speedFileCap {
		fileCap = speedFileCap
	}

	selected := make([]models.Document, 0, speedBudget)
	for _, c := range scored[:fileCap] {
		selected = append(selected, chunks[c.index].Document())
	}
	for _, doc := range webDocs {
		if len(selected) >= speedBudget {
			break
		}
		selected = append(selected, doc)
	}
	return selected, nil
}

// selectScored embeds every candidate (web documents and file chunks
// alike), scores them against the query and keeps the top documents above
// the balanced threshold.
func (s *Selector) selectScored(ctx context.Context, query string, webDocs []models.Document, chunks []models.FileChunk, budget int) ([]models.Document, error) {
	candidates := make([]models.Document, 0, len(webDocs)+len(chunks))
	candidates = append(candidates, webDocs...)

	texts := make([]string, 0, len(webDocs))
	for _, doc := range webDocs {
		texts = append(texts, doc.Content)
	}

	vectors, err := s.embeddings.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	// File chunks arrive pre-embedded; append them after the freshly
	// embedded web documents so indexes stay aligned.
	for _, chunk := range chunks {
		candidates = append(candidates, chunk.Document())
		vectors = append(vectors, chunk.Embedding)
	}

	queryEmbedding, err := s.embeddings.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	threshold := s.config.BalancedThreshold
	if threshold == 0 {
		threshold = 0.1
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for i, vector := range vectors {
		sim := s.similarity(queryEmbedding, vector)
		if sim >= threshold {
			scored = append(scored, scoredCandidate{index: i, similarity: sim})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})
	if len(scored) > budget {
		scored = scored[:budget]
	}

	selected := make([]models.Document, 0, len(scored))
	for _, c := range scored {
		selected = append(selected, candidates[c.index])
	}
	return selected, nil
}

// withContent drops documents with empty content; they cannot support a
// citation.
func withContent(docs []models.Document) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) != "" {
			out = append(out, doc)
		}
	}
	return out
}

func truncate(docs []models.Document, n int) []models.Document {
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}
