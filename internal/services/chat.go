package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/resummate/resummate-backend/internal/data/repos"
	types "github.com/resummate/resummate-backend/internal/domain"
	"github.com/resummate/resummate-backend/internal/platform/dbctx"
	"github.com/resummate/resummate-backend/internal/platform/gemini"
	"github.com/resummate/resummate-backend/internal/platform/logger"
	pkgerrors "github.com/resummate/resummate-backend/internal/pkg/errors"
	"github.com/resummate/resummate-backend/internal/sse"
)

const historyLimit = 20

// ChatService runs the streaming chat orchestration: record the user turn,
// branch on resume presence, relay the generation stream as framed events,
// and persist the completed model turn.
type ChatService interface {
	// StreamChat writes the full event stream for one turn to sw. The user
	// turn is durably recorded before any event is emitted; if that write
	// fails nothing is streamed. A mid-stream failure still terminates the
	// stream cleanly (finish + sentinel) and is returned to the caller; the
	// partial text is not persisted.
	StreamChat(ctx context.Context, threadID, prompt string, sw *sse.StreamWriter) error

	// History returns the thread's messages oldest-first.
	History(ctx context.Context, threadID string) ([]*types.Message, error)

	// Generate issues a plain one-shot generation with no thread context.
	Generate(ctx context.Context, prompt string) (string, error)
}

type chatService struct {
	db       *gorm.DB
	log      *logger.Logger
	messages repos.MessageRepo
	docs     DocumentService
	ai       gemini.Client
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	messages repos.MessageRepo,
	docs DocumentService,
	ai gemini.Client,
) ChatService {
	return &chatService{
		db:       db,
		log:      log.With("service", "ChatService"),
		messages: messages,
		docs:     docs,
		ai:       ai,
	}
}

func (s *chatService) StreamChat(ctx context.Context, threadID, prompt string, sw *sse.StreamWriter) error {
	dbc := dbctx.Context{Ctx: ctx}

	// Write-before-respond: a turn that was never recorded gets no response.
	if _, err := s.messages.Create(dbc, &types.Message{
		ThreadID: threadID,
		Sender:   types.SenderUser,
		Content:  prompt,
	}); err != nil {
		return fmt.Errorf("record user turn: %w", err)
	}

	resume, err := s.docs.GetResume(ctx, threadID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return s.streamResumePrompt(ctx, threadID, sw)
		}
		return fmt.Errorf("look up resume: %w", err)
	}

	return s.streamGeneration(ctx, threadID, prompt, resume, sw)
}

// streamResumePrompt emits the fixed upload warning exactly as if the model
// had said it, then persists it as a model turn.
func (s *chatService) streamResumePrompt(ctx context.Context, threadID string, sw *sse.StreamWriter) error {
	if err := sw.Start(sse.NewMessageID()); err != nil {
		return err
	}
	if err := sw.TextStart(sse.TextStreamID); err != nil {
		return err
	}
	if err := sw.TextDelta(sse.TextStreamID, ResumePromptText); err != nil {
		return err
	}
	if err := sw.TextEnd(sse.TextStreamID); err != nil {
		return err
	}
	if err := sw.Finish(); err != nil {
		return err
	}
	if err := sw.Done(); err != nil {
		return err
	}

	if _, err := s.messages.Create(dbctx.Context{Ctx: ctx}, &types.Message{
		ThreadID: threadID,
		Sender:   types.SenderModel,
		Content:  ResumePromptText,
	}); err != nil {
		return fmt.Errorf("record resume prompt turn: %w", err)
	}
	return nil
}

func (s *chatService) streamGeneration(ctx context.Context, threadID, prompt string, resume *types.Resume, sw *sse.StreamWriter) error {
	resumeFile, err := s.ai.GetFile(ctx, resume.RemoteName)
	if err != nil {
		return fmt.Errorf("resolve resume handle: %w", err)
	}
	s.log.Info("resolved resume", "thread_id", threadID, "remote_name", resumeFile.Name)

	files := []*gemini.File{resumeFile}

	jd, err := s.docs.GetJobDescription(ctx, threadID)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return fmt.Errorf("look up job description: %w", err)
	}
	if jd != nil {
		jdFile, err := s.ai.GetFile(ctx, jd.RemoteName)
		if err != nil {
			return fmt.Errorf("resolve job description handle: %w", err)
		}
		s.log.Info("resolved job description", "thread_id", threadID, "remote_name", jdFile.Name)
		files = append(files, jdFile)
	}

	if err := sw.Start(sse.NewMessageID()); err != nil {
		return err
	}

	var (
		accumulated strings.Builder
		textStarted bool
	)

	relayDelta := func(delta string) error {
		if !textStarted {
			if err := sw.TextStart(sse.TextStreamID); err != nil {
				return err
			}
			textStarted = true
		}
		if err := sw.TextDelta(sse.TextStreamID, delta); err != nil {
			return err
		}
		accumulated.WriteString(delta)
		return nil
	}

	streamErr := s.ai.GenerateStream(ctx, gemini.GenerateRequest{
		SystemInstruction: systemPrompt,
		Prompt:            prompt,
		Files:             files,
		Tools:             chatTools(),
	}, func(chunk gemini.StreamChunk) error {
		if chunk.FunctionCall != nil {
			s.log.Info("handling function call", "thread_id", threadID, "name", chunk.FunctionCall.Name)
			result, err := s.resolveFunctionCall(ctx, threadID, prompt, files)
			if err != nil {
				return err
			}
			if result != "" {
				return relayDelta(result)
			}
			return nil
		}
		if chunk.Text != "" {
			return relayDelta(chunk.Text)
		}
		return nil
	})

	// The client-visible stream terminates cleanly on both paths.
	if textStarted {
		if err := sw.TextEnd(sse.TextStreamID); err != nil {
			return err
		}
	}
	if err := sw.Finish(); err != nil {
		return err
	}
	if err := sw.Done(); err != nil {
		return err
	}

	if streamErr != nil {
		// At-most-once persistence: a truncated model turn is discarded.
		return fmt.Errorf("generation stream: %w", streamErr)
	}

	if accumulated.Len() > 0 {
		if _, err := s.messages.Create(dbctx.Context{Ctx: ctx}, &types.Message{
			ThreadID: threadID,
			Sender:   types.SenderModel,
			Content:  accumulated.String(),
		}); err != nil {
			return fmt.Errorf("record model turn: %w", err)
		}
	}
	return nil
}

// resolveFunctionCall runs the blocking tool path: one generation with the
// thread history replayed oldest-first plus the attached document handles.
// Its text shares the stream's framing with ordinary model text.
func (s *chatService) resolveFunctionCall(ctx context.Context, threadID, prompt string, files []*gemini.File) (string, error) {
	recent, err := s.messages.ListRecent(dbctx.Context{Ctx: ctx}, threadID, historyLimit)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	// Store order is newest-first; the model wants oldest-first.
	history := make([]gemini.Turn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, gemini.Turn{Role: recent[i].Sender, Text: recent[i].Content})
	}

	return s.ai.GenerateContent(ctx, gemini.GenerateRequest{
		SystemInstruction: systemPrompt,
		Prompt:            prompt,
		Files:             files,
		History:           history,
	})
}

func (s *chatService) History(ctx context.Context, threadID string) ([]*types.Message, error) {
	recent, err := s.messages.ListRecent(dbctx.Context{Ctx: ctx}, threadID, historyLimit)
	if err != nil {
		return nil, err
	}
	// Reverse to chronological order for clients.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (s *chatService) Generate(ctx context.Context, prompt string) (string, error) {
	return s.ai.GenerateText(ctx, prompt)
}
