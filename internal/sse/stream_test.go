package sse

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func parseEvents(tb testing.TB, raw string) []map[string]string {
	tb.Helper()
	var events []map[string]string
	for _, block := range strings.Split(raw, "\n\n") {
		if block == "" {
			continue
		}
		if !strings.HasPrefix(block, "data: ") {
			tb.Fatalf("frame missing data prefix: %q", block)
		}
		payload := strings.TrimPrefix(block, "data: ")
		if payload == "[DONE]" {
			events = append(events, map[string]string{"type": "[DONE]"})
			continue
		}
		var ev map[string]string
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			tb.Fatalf("frame is not valid JSON: %q: %v", payload, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestStreamWriterFullSequence(t *testing.T) {
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf)

	if err := sw.Start("msg-abc"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := sw.TextStart(TextStreamID); err != nil {
		t.Fatalf("text-start: %v", err)
	}
	if err := sw.TextDelta(TextStreamID, "hello "); err != nil {
		t.Fatalf("text-delta: %v", err)
	}
	if err := sw.TextDelta(TextStreamID, "world"); err != nil {
		t.Fatalf("text-delta: %v", err)
	}
	if err := sw.TextEnd(TextStreamID); err != nil {
		t.Fatalf("text-end: %v", err)
	}
	if err := sw.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := sw.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}

	events := parseEvents(t, buf.String())
	wantTypes := []string{"start", "text-start", "text-delta", "text-delta", "text-end", "finish", "[DONE]"}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i]["type"] != want {
			t.Fatalf("event %d: got type %q, want %q", i, events[i]["type"], want)
		}
	}
	if events[0]["messageId"] != "msg-abc" {
		t.Fatalf("start carries messageId %q", events[0]["messageId"])
	}
	if got := events[2]["delta"] + events[3]["delta"]; got != "hello world" {
		t.Fatalf("concatenated deltas = %q", got)
	}
	for _, i := range []int{1, 2, 3, 4} {
		if events[i]["id"] != TextStreamID {
			t.Fatalf("event %d: id = %q, want %q", i, events[i]["id"], TextStreamID)
		}
	}
}

func TestDoneIsLiteralSentinel(t *testing.T) {
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf)
	if err := sw.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
	if got := buf.String(); got != "data: [DONE]\n\n" {
		t.Fatalf("sentinel frame = %q", got)
	}
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()
	if !strings.HasPrefix(id, "msg-") {
		t.Fatalf("id %q missing msg- prefix", id)
	}
	hex := strings.TrimPrefix(id, "msg-")
	if len(hex) != 32 {
		t.Fatalf("id suffix %q should be 32 hex chars", hex)
	}
	if strings.Contains(hex, "-") {
		t.Fatalf("id suffix %q should not contain dashes", hex)
	}
	if NewMessageID() == id {
		t.Fatal("ids should be unique")
	}
}

func TestPrepareHeaders(t *testing.T) {
	h := http.Header{}
	PrepareHeaders(h)
	if got := h.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := h.Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("Cache-Control = %q", got)
	}
}
