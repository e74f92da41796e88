package agent

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// Agent runs the full answer pipeline for one request: rewrite the query,
// retrieve and rank sources, then stream a cited answer over the event
// channel.
type Agent struct {
	rewriter  *Rewriter
	selector  *Selector
	generator *Generator
	config    *common.AgentConfig
	logger    arbor.ILogger
}

var _ interfaces.AgentService = (*Agent)(nil)

func NewAgent(rewriter *Rewriter, selector *Selector, generator *Generator, config *common.AgentConfig, logger arbor.ILogger) (*Agent, error) {
	if rewriter == nil || selector == nil || generator == nil {
		return nil, fmt.Errorf("agent requires rewriter, selector and generator")
	}
	if config == nil {
		return nil, fmt.Errorf("agent config is required")
	}
	return &Agent{
		rewriter:  rewriter,
		selector:  selector,
		generator: generator,
		config:    config,
		logger:    logger,
	}, nil
}

// Answer processes req and returns the event stream for it. The channel
// carries at most one sources event, then response chunks, and closes
// after a single end event or a terminal error event. Cancelling ctx
// stops the stream early.
func (a *Agent) Answer(ctx context.Context, req interfaces.AnswerRequest) <-chan models.StreamEvent {
	mux := NewMultiplexer(ctx, a.config.StreamDelaysOff, a.logger)
	common.SafeGo(a.logger, "agent.answer", func() {
		a.answer(ctx, req, mux)
	}, func(r interface{}) {
		mux.Fail("internal error while answering")
	})
	return mux.Events()
}

func (a *Agent) answer(ctx context.Context, req interfaces.AnswerRequest, mux *Multiplexer) {
	mode, err := models.ParseOptimizationMode(string(req.Mode))
	if err != nil {
		mux.Fail(err.Error())
		return
	}

	rewrite, err := a.rewriter.Rewrite(ctx, req.History, req.Query)
	if err != nil {
		a.logger.Warn().Err(err).Str("query", req.Query).Msg("Query rewrite failed")
		mux.Fail(fmt.Sprintf("failed to process query: %v", err))
		return
	}

	var selected []models.Document
	if !rewrite.NotNeeded() {
		selected, err = a.selector.Select(ctx, rewrite.Query, rewrite.Docs, req.FileIDs, mode)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Source selection failed")
			mux.Fail(fmt.Sprintf("failed to rank sources: %v", err))
			return
		}
	}

	mux.SendSources(selected)

	contextText := FormatDocuments(selected)

	err = a.generator.Generate(ctx, req.Query, req.History, contextText, req.SystemInstructions, mode, mux.Write)
	if err != nil {
		a.logger.Warn().Err(err).Str("query", req.Query).Msg("Answer generation failed")
		mux.Fail(fmt.Sprintf("answer generation failed: %v", err))
		return
	}

	mux.Finish()
}
