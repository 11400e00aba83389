package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Event kinds of the chat stream protocol. Every stream starts with
// EventStart and ends with EventFinish followed by the literal [DONE] line.
const (
	EventStart     = "start"
	EventTextStart = "text-start"
	EventTextDelta = "text-delta"
	EventTextEnd   = "text-end"
	EventFinish    = "finish"
)

// TextStreamID is the single text block id; blocks are never interleaved.
const TextStreamID = "text-1"

// NewMessageID mints the per-response message id carried by the start event.
func NewMessageID() string {
	return "msg-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// StreamWriter frames chat events as text/event-stream data lines. Each
// event is one compact JSON object; the terminating sentinel is raw text.
type StreamWriter struct {
	w io.Writer
	f http.Flusher
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	sw := &StreamWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.f = f
	}
	return sw
}

// PrepareHeaders sets the response headers for an event stream. Call before
// the first event.
func PrepareHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

func (sw *StreamWriter) writeEvent(payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", raw); err != nil {
		return err
	}
	if sw.f != nil {
		sw.f.Flush()
	}
	return nil
}

func (sw *StreamWriter) Start(messageID string) error {
	return sw.writeEvent(map[string]string{"type": EventStart, "messageId": messageID})
}

func (sw *StreamWriter) TextStart(id string) error {
	return sw.writeEvent(map[string]string{"type": EventTextStart, "id": id})
}

func (sw *StreamWriter) TextDelta(id, delta string) error {
	return sw.writeEvent(map[string]string{"type": EventTextDelta, "id": id, "delta": delta})
}

func (sw *StreamWriter) TextEnd(id string) error {
	return sw.writeEvent(map[string]string{"type": EventTextEnd, "id": id})
}

func (sw *StreamWriter) Finish() error {
	return sw.writeEvent(map[string]string{"type": EventFinish})
}

// Done emits the literal stream terminator. Always the final line.
func (sw *StreamWriter) Done() error {
	if _, err := io.WriteString(sw.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	if sw.f != nil {
		sw.f.Flush()
	}
	return nil
}
