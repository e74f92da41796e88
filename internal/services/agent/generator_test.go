package agent

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

var rfc3339UTCRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`)

func TestGenerateAssemblesPrompt(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"The answer."}}
	generator := NewGenerator(llm, common.GetLogger())

	var streamed strings.Builder
	history := []interfaces.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	err := generator.Generate(context.Background(), "current question", history,
		"<1> Source fragment.", "Answer briefly.", models.ModeSpeed,
		func(delta string) { streamed.WriteString(delta) })
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if streamed.String() != "The answer." {
		t.Errorf("streamed = %q", streamed.String())
	}
	if len(llm.lastMessages) != 4 {
		t.Fatalf("expected system + 2 history + user messages, got %d", len(llm.lastMessages))
	}

	system := llm.lastMessages[0]
	if system.Role != "system" {
		t.Fatalf("first message role = %q, want system", system.Role)
	}
	if !strings.Contains(system.Content, "<1> Source fragment.") {
		t.Error("system prompt should embed the formatted context")
	}
	if !strings.Contains(system.Content, "Answer briefly.") {
		t.Error("system prompt should embed the caller instructions")
	}
	if !rfc3339UTCRe.MatchString(system.Content) {
		t.Error("system prompt should carry an RFC 3339 UTC timestamp")
	}

	last := llm.lastMessages[len(llm.lastMessages)-1]
	if last.Role != "user" || last.Content != "current question" {
		t.Errorf("final message = %+v, want the current question", last)
	}
}

func TestGenerateQualityAddendum(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"ok", "ok"}}
	generator := NewGenerator(llm, common.GetLogger())
	discard := func(string) {}

	if err := generator.Generate(context.Background(), "q", nil, "ctx", "", models.ModeSpeed, discard); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	speedSystem := llm.lastMessages[0].Content

	if err := generator.Generate(context.Background(), "q", nil, "ctx", "", models.ModeQuality, discard); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	qualitySystem := llm.lastMessages[0].Content

	if len(qualitySystem) <= len(speedSystem) {
		t.Error("quality mode should extend the system prompt")
	}
	if !strings.HasPrefix(qualitySystem, strings.Split(speedSystem, "\n")[0]) {
		t.Error("quality addendum should append, not replace, the base prompt")
	}
}
