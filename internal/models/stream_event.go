package models

// StreamEventType enumerates the event kinds emitted to answer consumers.
type StreamEventType string

const (
	// EventSources carries the final reranked document list. Emitted at
	// most once per run, always before the first response event.
	EventSources StreamEventType = "sources"

	// EventResponse carries one chunk of generated answer text.
	EventResponse StreamEventType = "response"

	// EventEnd marks successful completion. Emitted exactly once, last.
	EventEnd StreamEventType = "end"

	// EventError carries a terminal failure message. Nothing follows it.
	EventError StreamEventType = "error"
)

// StreamEvent is the wire unit of a streamed answer. Data is []Document for
// sources events, string for response and error events, and nil for end.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	Data interface{}     `json:"data,omitempty"`
}

// SourcesEvent wraps a document list for emission.
func SourcesEvent(docs []Document) StreamEvent {
	return StreamEvent{Type: EventSources, Data: docs}
}

// ResponseEvent wraps one answer chunk.
func ResponseEvent(chunk string) StreamEvent {
	return StreamEvent{Type: EventResponse, Data: chunk}
}

// EndEvent marks the end of a completed stream.
func EndEvent() StreamEvent {
	return StreamEvent{Type: EventEnd}
}

// ErrorEvent wraps a terminal failure message.
func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventError, Data: msg}
}
