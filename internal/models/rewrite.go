package models

// RewriteResult is the outcome of turning a user question plus history into
// a retrieval plan. Exactly one of three shapes applies:
//
//   - Query == "": retrieval is not needed, the answer comes from the
//     conversation alone.
//   - len(Links) > 0: the user supplied explicit links; Docs holds one
//     summary document per link group and no web search runs.
//   - otherwise: Query is the standalone search query and Docs holds the
//     web search results.
type RewriteResult struct {
	Query string
	Links []string
	Docs  []Document
}

// NotNeeded reports whether the rewriter decided no retrieval is required.
func (r RewriteResult) NotNeeded() bool {
	return r.Query == "" && len(r.Links) == 0
}
