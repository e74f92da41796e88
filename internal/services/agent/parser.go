package agent

import (
	"regexp"
	"strings"
)

// NotNeededSentinel is the rewriter's marker for questions that require no
// retrieval.
const NotNeededSentinel = "not_needed"

var (
	thinkBlockRe   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	questionTagRe  = regexp.MustCompile(`(?s)<question>(.*?)</question>`)
	linksBlockRe   = regexp.MustCompile(`(?s)<links>(.*?)</links>`)
	danglingTagsRe = regexp.MustCompile(`</?(?:question|links|think)>`)
)

// rewriteOutput is the parsed form of the rewriter model's raw response.
type rewriteOutput struct {
	// NotNeeded is set when the model answered with the sentinel. It wins
	// over everything else in the response, links included.
	NotNeeded bool

	// Question is the standalone query.
	Question string

	// Links are the URLs the user asked about, in model output order.
	Links []string
}

// parseRewriteOutput extracts the question and links blocks from raw model
// output. Reasoning markup is stripped first. Output without a question
// block degrades to treating the whole cleaned text as the question; the
// pipeline never fails on a malformed rewrite.
func parseRewriteOutput(raw string) rewriteOutput {
	cleaned := thinkBlockRe.ReplaceAllString(raw, "")

	var out rewriteOutput

	if m := linksBlockRe.FindStringSubmatch(cleaned); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			link := strings.TrimSpace(line)
			if link != "" {
				out.Links = append(out.Links, link)
			}
		}
	}

	var question string
	if m := questionTagRe.FindStringSubmatch(cleaned); m != nil {
		question = strings.TrimSpace(m[1])
	} else {
		// No question block: take the whole response minus any markup
		withoutLinks := linksBlockRe.ReplaceAllString(cleaned, "")
		question = strings.TrimSpace(danglingTagsRe.ReplaceAllString(withoutLinks, ""))
	}

	if strings.EqualFold(question, NotNeededSentinel) {
		return rewriteOutput{NotNeeded: true}
	}
	out.Question = question

	return out
}
