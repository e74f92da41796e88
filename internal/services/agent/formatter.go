package agent

import (
	"fmt"
	"strings"

	"github.com/smartduke/metaseek/internal/models"
)

// FormatDocuments renders the selected documents as the numbered source
// list the answer prompt embeds. An empty list yields the no-sources
// instruction instead, which forbids citation markers.
func FormatDocuments(docs []models.Document) string {
	if len(docs) == 0 {
		return noSourcesContext
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d sources, numbered 1 to %d. Cite them by number.\n\n", len(docs), len(docs))
	for i, doc := range docs {
		title := doc.Title()
		if title == "" {
			title = doc.URL()
		}
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, title, doc.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
