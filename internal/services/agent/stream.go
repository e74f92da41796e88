package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/models"
)

// streamState tracks the multiplexer's position in its event contract.
type streamState int

const (
	stateAwaitingSources streamState = iota
	stateStreaming
	stateDone
)

// chunkTier defines one step of the progressive pacing schedule: the first
// chunks go out tiny and fast so the client paints immediately, later
// chunks grow and slow down.
type chunkTier struct {
	untilChunk int // tier applies while fewer chunks than this were emitted
	size       int
	delay      time.Duration
}

var chunkTiers = []chunkTier{
	{untilChunk: 8, size: 3, delay: 15 * time.Millisecond},
	{untilChunk: 24, size: 8, delay: 25 * time.Millisecond},
	{untilChunk: 1 << 30, size: 15, delay: 40 * time.Millisecond},
}

// boundarySlack is how far back from the target size a whitespace boundary
// may sit and still be preferred over a hard cut.
const boundarySlack = 0.6

// Multiplexer converts the answer pipeline's signals into the ordered
// event stream consumers read: at most one sources event first, paced
// response chunks, then exactly one end, or a terminal error. All state is
// per instance; one Multiplexer serves one answer run.
type Multiplexer struct {
	out    chan models.StreamEvent
	logger arbor.ILogger

	mu       sync.Mutex
	buf      []byte
	sources  []models.Document
	haveSrcs bool
	finished bool
	failMsg  string
	failed   bool
	wake     chan struct{}

	delaysOff bool
}

// NewMultiplexer starts the emitting goroutine and returns the muxer. The
// event channel closes after the terminal event, or when ctx is cancelled.
func NewMultiplexer(ctx context.Context, delaysOff bool, logger arbor.ILogger) *Multiplexer {
	m := &Multiplexer{
		out:       make(chan models.StreamEvent, 16),
		logger:    logger,
		wake:      make(chan struct{}, 1),
		delaysOff: delaysOff,
	}
	go m.run(ctx)
	return m
}

// Events returns the consumer side of the stream.
func (m *Multiplexer) Events() <-chan models.StreamEvent {
	return m.out
}

// SendSources settles the document list. Must be called at most once,
// before Finish or Fail.
func (m *Multiplexer) SendSources(docs []models.Document) {
	m.mu.Lock()
	m.sources = docs
	m.haveSrcs = true
	m.mu.Unlock()
	m.notify()
}

// Write appends generated text to the outgoing buffer.
func (m *Multiplexer) Write(chunk string) {
	if chunk == "" {
		return
	}
	m.mu.Lock()
	m.buf = append(m.buf, chunk...)
	m.mu.Unlock()
	m.notify()
}

// Finish marks the model stream complete. The remaining buffer flushes as
// one final response event followed by the end event.
func (m *Multiplexer) Finish() {
	m.mu.Lock()
	m.finished = true
	m.mu.Unlock()
	m.notify()
}

// Fail terminates the stream with an error event. Nothing is emitted after
// it, including buffered text.
func (m *Multiplexer) Fail(msg string) {
	m.mu.Lock()
	m.failed = true
	m.failMsg = msg
	m.mu.Unlock()
	m.notify()
}

func (m *Multiplexer) notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// run drives the state machine. Cancellation of ctx stops all further
// emission and closes the channel without a terminal event.
func (m *Multiplexer) run(ctx context.Context) {
	defer close(m.out)

	state := stateAwaitingSources
	chunksEmitted := 0

	for state != stateDone {
		m.mu.Lock()
		haveSrcs := m.haveSrcs
		sources := m.sources
		failed := m.failed
		failMsg := m.failMsg
		finished := m.finished
		buffered := len(m.buf)
		m.mu.Unlock()

		// A failure preempts everything, buffered text included.
		if failed {
			m.emit(ctx, models.ErrorEvent(failMsg))
			return
		}

		switch state {
		case stateAwaitingSources:
			if !haveSrcs {
				if finished {
					// Producer ended without sources; nothing to stream.
					m.emit(ctx, models.EndEvent())
					return
				}
				if !m.await(ctx) {
					return
				}
				continue
			}
			if !m.emit(ctx, models.SourcesEvent(sources)) {
				return
			}
			state = stateStreaming

		case stateStreaming:
			tier := tierFor(chunksEmitted)

			if buffered >= tier.size+1 || (finished && buffered > 0) {
				chunk, final := m.take(tier.size)
				if chunk != "" {
					if !m.emit(ctx, models.ResponseEvent(chunk)) {
						return
					}
					chunksEmitted++
					if !final && !m.pause(ctx, tier.delay) {
						return
					}
				}
				continue
			}

			if finished {
				m.emit(ctx, models.EndEvent())
				return
			}
			if !m.await(ctx) {
				return
			}
		}
	}
}

// take cuts the next chunk off the buffer. Prefers the last whitespace
// boundary within the target window when it lies inside the slack range;
// never splits mid-word while a boundary is available. When the producer
// has finished and the remainder fits the window, the whole remainder goes
// out as the final chunk.
func (m *Multiplexer) take(target int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.buf) == 0 {
		return "", m.finished
	}

	if m.finished && len(m.buf) <= target {
		chunk := string(m.buf)
		m.buf = nil
		return chunk, true
	}
	if len(m.buf) <= target {
		// Not enough text yet for a full chunk; wait for more.
		return "", false
	}

	cut := target
	window := m.buf[:target+1]
	if idx := lastBoundary(window); idx >= 0 && float64(idx) >= boundarySlack*float64(target) {
		cut = idx + 1
	}

	chunk := string(m.buf[:cut])
	m.buf = m.buf[cut:]
	return chunk, false
}

// lastBoundary returns the index of the last whitespace byte in window, or
// -1 when there is none.
func lastBoundary(window []byte) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' || window[i] == '\n' || window[i] == '\t' {
			return i
		}
	}
	return -1
}

func tierFor(chunksEmitted int) chunkTier {
	for _, tier := range chunkTiers {
		if chunksEmitted < tier.untilChunk {
			return tier
		}
	}
	return chunkTiers[len(chunkTiers)-1]
}

// emit delivers one event unless ctx is already cancelled.
func (m *Multiplexer) emit(ctx context.Context, event models.StreamEvent) bool {
	select {
	case m.out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// pause sleeps the pacing delay without leaking the timer on cancellation.
func (m *Multiplexer) pause(ctx context.Context, d time.Duration) bool {
	if m.delaysOff || d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// await blocks until new input arrives or ctx is cancelled.
func (m *Multiplexer) await(ctx context.Context) bool {
	select {
	case <-m.wake:
		return true
	case <-ctx.Done():
		return false
	}
}

// Drain collects every remaining event into the final answer text and the
// settled sources. Used by the non-streaming response path.
func Drain(events <-chan models.StreamEvent) (answer string, sources []models.Document, errMsg string) {
	var b strings.Builder
	for event := range events {
		switch event.Type {
		case models.EventSources:
			if docs, ok := event.Data.([]models.Document); ok {
				sources = docs
			}
		case models.EventResponse:
			if text, ok := event.Data.(string); ok {
				b.WriteString(text)
			}
		case models.EventError:
			if text, ok := event.Data.(string); ok {
				errMsg = text
			}
		}
	}
	return b.String(), sources, errMsg
}
