package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/resummate/resummate-backend/internal/domain"
	"github.com/resummate/resummate-backend/internal/platform/dbctx"
	"github.com/resummate/resummate-backend/internal/platform/gemini"
	"github.com/resummate/resummate-backend/internal/platform/logger"
	pkgerrors "github.com/resummate/resummate-backend/internal/pkg/errors"
	"github.com/resummate/resummate-backend/internal/sse"
)

type fakeMessages struct {
	created   []*types.Message
	createErr error
	recent    []*types.Message
	recentErr error
}

func (f *fakeMessages) Create(dbc dbctx.Context, row *types.Message) (*types.Message, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	row.ID = uuid.New()
	row.SentAt = time.Now().UTC()
	f.created = append(f.created, row)
	return row, nil
}

func (f *fakeMessages) ListRecent(dbc dbctx.Context, threadID string, limit int) ([]*types.Message, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recent, nil
}

type fakeDocs struct {
	resume *types.Resume
	jd     *types.JobDescription
}

func (f *fakeDocs) UploadResume(ctx context.Context, threadID, filename, mimeType string, data []byte) (string, error) {
	return threadID, nil
}

func (f *fakeDocs) GetResume(ctx context.Context, threadID string) (*types.Resume, error) {
	if f.resume == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return f.resume, nil
}

func (f *fakeDocs) DeleteResume(ctx context.Context, threadID string) error { return nil }

func (f *fakeDocs) UploadJobDescription(ctx context.Context, threadID, filename, mimeType string, data []byte) (string, error) {
	return threadID, nil
}

func (f *fakeDocs) GetJobDescription(ctx context.Context, threadID string) (*types.JobDescription, error) {
	if f.jd == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return f.jd, nil
}

func (f *fakeDocs) DeleteJobDescription(ctx context.Context, threadID string) error { return nil }

type fakeAI struct {
	chunks    []gemini.StreamChunk
	streamErr error
	uploadErr error

	contentResult string
	contentReq    gemini.GenerateRequest
}

func (f *fakeAI) UploadFile(ctx context.Context, data []byte, filename, mimeType string) (*gemini.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &gemini.File{Name: "files/test"}, nil
}

func (f *fakeAI) GetFile(ctx context.Context, name string) (*gemini.File, error) {
	return &gemini.File{Name: name, State: gemini.FileStateActive}, nil
}

func (f *fakeAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f.contentResult, nil
}

func (f *fakeAI) GenerateContent(ctx context.Context, req gemini.GenerateRequest) (string, error) {
	f.contentReq = req
	return f.contentResult, nil
}

func (f *fakeAI) GenerateStream(ctx context.Context, req gemini.GenerateRequest, onChunk func(gemini.StreamChunk) error) error {
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return f.streamErr
}

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

func eventTypes(tb testing.TB, raw string) []string {
	tb.Helper()
	var out []string
	for _, block := range strings.Split(raw, "\n\n") {
		if block == "" {
			continue
		}
		payload := strings.TrimPrefix(block, "data: ")
		if payload == "[DONE]" {
			out = append(out, "[DONE]")
			continue
		}
		var ev map[string]any
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			tb.Fatalf("bad frame %q: %v", payload, err)
		}
		t, _ := ev["type"].(string)
		out = append(out, t)
	}
	return out
}

func collectDeltas(tb testing.TB, raw string) string {
	tb.Helper()
	var b strings.Builder
	for _, block := range strings.Split(raw, "\n\n") {
		payload := strings.TrimPrefix(block, "data: ")
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var ev map[string]any
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		if ev["type"] == "text-delta" {
			d, _ := ev["delta"].(string)
			b.WriteString(d)
		}
	}
	return b.String()
}

func threadResume() *types.Resume {
	return &types.Resume{
		ThreadID: "thread-1",
		FileMetadata: types.FileMetadata{
			FileName:   "resume.pdf",
			RemoteName: "files/resume-remote",
			MimeType:   "application/pdf",
		},
	}
}

func TestStreamChatWithoutResumePromptsUpload(t *testing.T) {
	msgs := &fakeMessages{}
	svc := NewChatService(nil, testLogger(t), msgs, &fakeDocs{}, &fakeAI{})

	var buf bytes.Buffer
	if err := svc.StreamChat(context.Background(), "thread-1", "hi", sse.NewStreamWriter(&buf)); err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	got := eventTypes(t, buf.String())
	want := []string{"start", "text-start", "text-delta", "text-end", "finish", "[DONE]"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if d := collectDeltas(t, buf.String()); d != ResumePromptText {
		t.Fatalf("delta = %q, want the upload prompt", d)
	}

	if len(msgs.created) != 2 {
		t.Fatalf("created %d rows, want user + model", len(msgs.created))
	}
	if msgs.created[0].Sender != types.SenderUser || msgs.created[0].Content != "hi" {
		t.Fatalf("first row = %+v", msgs.created[0])
	}
	if msgs.created[1].Sender != types.SenderModel || msgs.created[1].Content != ResumePromptText {
		t.Fatalf("second row = %+v", msgs.created[1])
	}
}

func TestStreamChatPersistsWhatItStreamed(t *testing.T) {
	msgs := &fakeMessages{}
	ai := &fakeAI{chunks: []gemini.StreamChunk{
		{Text: "Your resume "},
		{Text: "looks strong."},
	}}
	svc := NewChatService(nil, testLogger(t), msgs, &fakeDocs{resume: threadResume()}, ai)

	var buf bytes.Buffer
	if err := svc.StreamChat(context.Background(), "thread-1", "review it", sse.NewStreamWriter(&buf)); err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	streamed := collectDeltas(t, buf.String())
	if streamed != "Your resume looks strong." {
		t.Fatalf("streamed = %q", streamed)
	}
	if len(msgs.created) != 2 {
		t.Fatalf("created %d rows", len(msgs.created))
	}
	if msgs.created[1].Sender != types.SenderModel || msgs.created[1].Content != streamed {
		t.Fatalf("persisted model row = %+v, want content %q", msgs.created[1], streamed)
	}

	types_ := eventTypes(t, buf.String())
	if types_[len(types_)-1] != "[DONE]" || types_[len(types_)-2] != "finish" {
		t.Fatalf("stream does not terminate with finish + sentinel: %v", types_)
	}
}

func TestStreamChatFailureStillTerminatesAndDropsPartialText(t *testing.T) {
	msgs := &fakeMessages{}
	ai := &fakeAI{
		chunks:    []gemini.StreamChunk{{Text: "partial "}},
		streamErr: errors.New("upstream reset"),
	}
	svc := NewChatService(nil, testLogger(t), msgs, &fakeDocs{resume: threadResume()}, ai)

	var buf bytes.Buffer
	err := svc.StreamChat(context.Background(), "thread-1", "review", sse.NewStreamWriter(&buf))
	if err == nil {
		t.Fatal("expected stream error")
	}

	got := eventTypes(t, buf.String())
	if got[len(got)-1] != "[DONE]" || got[len(got)-2] != "finish" || got[len(got)-3] != "text-end" {
		t.Fatalf("failed stream must still close cleanly: %v", got)
	}

	// Only the user turn survives.
	if len(msgs.created) != 1 || msgs.created[0].Sender != types.SenderUser {
		t.Fatalf("created rows = %+v", msgs.created)
	}
}

func TestStreamChatUserWriteFailureEmitsNothing(t *testing.T) {
	msgs := &fakeMessages{createErr: errors.New("db down")}
	svc := NewChatService(nil, testLogger(t), msgs, &fakeDocs{}, &fakeAI{})

	var buf bytes.Buffer
	err := svc.StreamChat(context.Background(), "thread-1", "hi", sse.NewStreamWriter(&buf))
	if err == nil {
		t.Fatal("expected error")
	}
	if buf.Len() != 0 {
		t.Fatalf("no events should be written, got %q", buf.String())
	}
}

func TestStreamChatFunctionCallReplaysHistoryOldestFirst(t *testing.T) {
	now := time.Now().UTC()
	msgs := &fakeMessages{recent: []*types.Message{
		{ThreadID: "thread-1", Sender: types.SenderModel, Content: "second", SentAt: now},
		{ThreadID: "thread-1", Sender: types.SenderUser, Content: "first", SentAt: now.Add(-time.Minute)},
	}}
	ai := &fakeAI{
		chunks:        []gemini.StreamChunk{{FunctionCall: &gemini.FunctionCall{Name: "get_message_history"}}},
		contentResult: "summary of the thread",
	}
	svc := NewChatService(nil, testLogger(t), msgs, &fakeDocs{resume: threadResume()}, ai)

	var buf bytes.Buffer
	if err := svc.StreamChat(context.Background(), "thread-1", "what did we say?", sse.NewStreamWriter(&buf)); err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	if d := collectDeltas(t, buf.String()); d != "summary of the thread" {
		t.Fatalf("relayed text = %q", d)
	}

	hist := ai.contentReq.History
	if len(hist) != 2 {
		t.Fatalf("history length = %d", len(hist))
	}
	if hist[0].Text != "first" || hist[1].Text != "second" {
		t.Fatalf("history not oldest-first: %+v", hist)
	}
	if hist[0].Role != types.SenderUser || hist[1].Role != types.SenderModel {
		t.Fatalf("history roles: %+v", hist)
	}

	// The relayed tool response is persisted like ordinary model text.
	if len(msgs.created) != 2 || msgs.created[1].Content != "summary of the thread" {
		t.Fatalf("created rows = %+v", msgs.created)
	}
}

func TestHistoryReturnsChronologicalOrder(t *testing.T) {
	now := time.Now().UTC()
	msgs := &fakeMessages{recent: []*types.Message{
		{Sender: types.SenderModel, Content: "newest", SentAt: now},
		{Sender: types.SenderUser, Content: "middle", SentAt: now.Add(-time.Minute)},
		{Sender: types.SenderUser, Content: "oldest", SentAt: now.Add(-2 * time.Minute)},
	}}
	svc := NewChatService(nil, testLogger(t), msgs, &fakeDocs{}, &fakeAI{})

	out, err := svc.History(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d messages", len(out))
	}
	if out[0].Content != "oldest" || out[2].Content != "newest" {
		t.Fatalf("order: %q, %q, %q", out[0].Content, out[1].Content, out[2].Content)
	}
}
