package models

// FileURLSentinel is stored in a document's "url" metadata when the document
// was derived from an uploaded file rather than a fetched page.
const FileURLSentinel = "File"

// Document is the unit of retrieved evidence flowing through the pipeline.
// Content holds the retrievable text; everything else (title, url, engine)
// lives in Metadata so heterogeneous sources share one shape.
type Document struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// NewDocument builds a document with the standard title/url metadata keys.
func NewDocument(content, title, url string) Document {
	return Document{
		Content: content,
		Metadata: map[string]interface{}{
			"title": title,
			"url":   url,
		},
	}
}

// Title returns the "title" metadata value, or "" when absent.
func (d Document) Title() string {
	return d.metaString("title")
}

// URL returns the "url" metadata value, or "" when absent. File-derived
// documents carry FileURLSentinel here.
func (d Document) URL() string {
	return d.metaString("url")
}

// FromFile reports whether the document was derived from an uploaded file.
func (d Document) FromFile() bool {
	return d.URL() == FileURLSentinel
}

func (d Document) metaString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	if v, ok := d.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// FileChunk is one pre-embedded fragment of an uploaded file. Chunks are
// loaded from the file index where content and embedding artifacts are
// positionally aligned.
type FileChunk struct {
	FileName  string    `json:"file_name"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// Document converts the chunk into a pipeline document carrying the file
// URL sentinel.
func (c FileChunk) Document() Document {
	return NewDocument(c.Content, c.FileName, FileURLSentinel)
}
