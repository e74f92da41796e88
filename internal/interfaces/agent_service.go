package interfaces

import (
	"context"

	"github.com/smartduke/metaseek/internal/models"
)

// AnswerRequest carries one question through the pipeline.
type AnswerRequest struct {
	// Query is the user's question.
	Query string `json:"query"`

	// History is the prior conversation in chronological order.
	History []Message `json:"history,omitempty"`

	// FileIDs names uploaded files whose indexed chunks join the
	// candidate pool.
	FileIDs []string `json:"file_ids,omitempty"`

	// Mode selects the reranking budget. Empty defaults to balanced.
	Mode models.OptimizationMode `json:"mode,omitempty"`

	// SystemInstructions is caller-supplied text injected verbatim into
	// the answer prompt.
	SystemInstructions string `json:"system_instructions,omitempty"`
}

// AgentService runs the full question-answering pipeline: rewrite,
// retrieve, rerank, and stream a cited answer.
type AgentService interface {
	// Answer starts the pipeline and returns the event stream. The
	// channel delivers at most one sources event (always before the
	// first response), zero or more response chunks, and a terminal end
	// or error event, then closes. Cancelling ctx stops emission; the
	// channel still closes.
	Answer(ctx context.Context, req AnswerRequest) <-chan models.StreamEvent
}
