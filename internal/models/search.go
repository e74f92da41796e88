package models

// SearchResult is one hit returned by the web search backend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Engine  string `json:"engine,omitempty"`
	ImgSrc  string `json:"img_src,omitempty"`
}

// SearchOptions narrows a web search request.
type SearchOptions struct {
	Language string
	Engines  []string
}

// Document converts the result into a pipeline document. Results from
// video-oriented engines regularly arrive without body content; callers
// decide whether to substitute the title.
func (r SearchResult) Document() Document {
	doc := NewDocument(r.Content, r.Title, r.URL)
	if r.Engine != "" {
		doc.Metadata["engine"] = r.Engine
	}
	if r.ImgSrc != "" {
		doc.Metadata["img_src"] = r.ImgSrc
	}
	return doc
}
