package agent

import (
	"reflect"
	"testing"
)

func TestParseRewriteOutput(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantNotNeeded bool
		wantQuestion  string
		wantLinks     []string
	}{
		{
			name:         "plain question tag",
			raw:          "<question>What is the capital of France?</question>",
			wantQuestion: "What is the capital of France?",
		},
		{
			name:          "not needed sentinel",
			raw:           "<question>not_needed</question>",
			wantNotNeeded: true,
		},
		{
			name:          "not needed case insensitive",
			raw:           "<question>Not_Needed</question>",
			wantNotNeeded: true,
		},
		{
			name:          "sentinel discards links",
			raw:           "<question>not_needed</question>\n<links>\nhttps://example.com/ignored\n</links>",
			wantNotNeeded: true,
		},
		{
			name:          "sentinel in fallback text",
			raw:           "not_needed",
			wantNotNeeded: true,
		},
		{
			name:         "question with links block",
			raw:          "<question>summarize</question>\n<links>\nhttps://example.com/a\nhttps://example.com/b\n</links>",
			wantQuestion: "summarize",
			wantLinks:    []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name:         "links with blank lines",
			raw:          "<question>What changed?</question><links>\n\nhttps://example.com/changelog\n\n</links>",
			wantQuestion: "What changed?",
			wantLinks:    []string{"https://example.com/changelog"},
		},
		{
			name:         "think block stripped",
			raw:          "<think>The user wants weather data.</think><question>Weather in Paris today</question>",
			wantQuestion: "Weather in Paris today",
		},
		{
			name:         "think block containing fake question ignored",
			raw:          "<think><question>wrong</question></think><question>right</question>",
			wantQuestion: "right",
		},
		{
			name:         "missing question tag falls back to whole text",
			raw:          "Weather in Paris today",
			wantQuestion: "Weather in Paris today",
		},
		{
			name:         "dangling tags removed in fallback",
			raw:          "<question>Weather in Paris today",
			wantQuestion: "Weather in Paris today",
		},
		{
			name:         "fallback excludes links block",
			raw:          "Summarize these\n<links>https://example.com</links>",
			wantQuestion: "Summarize these",
			wantLinks:    []string{"https://example.com"},
		},
		{
			name:         "empty output",
			raw:          "",
			wantQuestion: "",
		},
		{
			name:         "whitespace trimmed",
			raw:          "<question>  spaced out  </question>",
			wantQuestion: "spaced out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRewriteOutput(tt.raw)
			if got.NotNeeded != tt.wantNotNeeded {
				t.Errorf("NotNeeded = %v, want %v", got.NotNeeded, tt.wantNotNeeded)
			}
			if got.Question != tt.wantQuestion {
				t.Errorf("Question = %q, want %q", got.Question, tt.wantQuestion)
			}
			if !reflect.DeepEqual(got.Links, tt.wantLinks) {
				t.Errorf("Links = %v, want %v", got.Links, tt.wantLinks)
			}
		})
	}
}
