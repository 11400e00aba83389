package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/resummate/resummate-backend/internal/domain"
	"github.com/resummate/resummate-backend/internal/http/response"
	"github.com/resummate/resummate-backend/internal/platform/logger"
	"github.com/resummate/resummate-backend/internal/services"
	"github.com/resummate/resummate-backend/internal/sse"
)

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:  log.With("handler", "ChatHandler"),
		chat: chat,
	}
}

// MessagePart is the tagged union a client message is built from. Only
// "text" parts carry prompt content; other types are ignored.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type ClientMessage struct {
	ID   string `json:"id,omitempty"`
	Role string `json:"role"`
	// Content is the older flat form; Parts is preferred when present.
	Content string        `json:"content,omitempty"`
	Parts   []MessagePart `json:"parts,omitempty"`
}

type chatRequest struct {
	ID       string          `json:"id,omitempty"`
	Messages []ClientMessage `json:"messages"`
}

// promptFromParts joins the text parts of the newest message with single
// spaces, matching how clients flatten multi-part input.
func promptFromParts(parts []MessagePart) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

// POST /api/chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Messages) == 0 {
		response.RespondError(c, http.StatusBadRequest, "no_messages", errors.New("no messages provided"))
		return
	}

	last := req.Messages[len(req.Messages)-1]
	prompt := last.Content
	if prompt == "" {
		prompt = promptFromParts(last.Parts)
	}
	if prompt == "" {
		response.RespondError(c, http.StatusBadRequest, "no_message_content", errors.New("no message content found"))
		return
	}

	threadID := strings.TrimSpace(req.ID)
	if threadID == "" {
		threadID = uuid.NewString()
	}

	sse.PrepareHeaders(c.Writer.Header())
	sw := sse.NewStreamWriter(c.Writer)

	if err := h.chat.StreamChat(c.Request.Context(), threadID, prompt, sw); err != nil {
		// Once the stream is open the status line is gone; errors before the
		// first event can still produce a proper envelope.
		if !c.Writer.Written() {
			response.RespondError(c, http.StatusInternalServerError, "chat_failed", err)
			return
		}
		h.log.Error("chat stream aborted", "thread_id", threadID, "error", err)
	}
}

// GET /api/chat/history/:thread_id
func (h *ChatHandler) GetHistory(c *gin.Context) {
	threadID := c.Param("thread_id")

	msgs, err := h.chat.History(c.Request.Context(), threadID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}

	out := make([]ClientMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Sender == types.SenderModel {
			role = "assistant"
		}
		out = append(out, ClientMessage{
			ID:    m.ID.String(),
			Role:  role,
			Parts: []MessagePart{{Type: "text", Text: m.Content}},
		})
	}
	response.RespondOK(c, gin.H{"messages": out})
}

type generateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// POST /api/generate
func (h *ChatHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	text, err := h.chat.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "generate_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"response": text})
}
