package agent

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// Generator streams the cited answer from the chat model.
type Generator struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewGenerator wires the answer generator.
func NewGenerator(llm interfaces.LLMService, logger arbor.ILogger) *Generator {
	return &Generator{llm: llm, logger: logger}
}

// Generate assembles the answer prompt and streams the completion through
// onDelta. contextText is the formatted source list (or the no-sources
// instruction); systemInstructions is caller text injected verbatim. The
// model call is not retried; an error means the answer is incomplete and
// terminal.
func (g *Generator) Generate(ctx context.Context, query string, history []interfaces.Message, contextText, systemInstructions string, mode models.OptimizationMode, onDelta interfaces.StreamHandler) error {
	system := strings.NewReplacer(
		"{system_instructions}", strings.TrimSpace(systemInstructions),
		"{date}", time.Now().UTC().Format(time.RFC3339),
		"{context}", contextText,
	).Replace(answerPrompt)

	if mode == models.ModeBalanced || mode == models.ModeQuality {
		system += answerQualityAddendum
	}

	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, interfaces.Message{Role: "user", Content: query})

	startTime := time.Now()
	if err := g.llm.ChatStream(ctx, messages, nil, onDelta); err != nil {
		return err
	}

	g.logger.Debug().
		Str("model", g.llm.ModelName()).
		Dur("duration", time.Since(startTime)).
		Msg("Answer generation finished")

	return nil
}
