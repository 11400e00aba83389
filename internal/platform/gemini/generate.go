package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type wirePart struct {
	Text         string        `json:"text,omitempty"`
	FileData     *wireFileData `json:"fileData,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

type wireFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type generateContentRequest struct {
	SystemInstruction *wireContent  `json:"systemInstruction,omitempty"`
	Contents          []wireContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
	Tools []struct {
		FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
	} `json:"tools,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      wireContent `json:"content"`
		FinishReason string      `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

func (c *client) buildRequest(req GenerateRequest) generateContentRequest {
	var out generateContentRequest
	if s := strings.TrimSpace(req.SystemInstruction); s != "" {
		out.SystemInstruction = &wireContent{Parts: []wirePart{{Text: s}}}
	}

	// History replays oldest-first; callers are responsible for reversing
	// store-native newest-first order before building the request.
	for _, turn := range req.History {
		role := turn.Role
		if role != "model" {
			role = "user"
		}
		out.Contents = append(out.Contents, wireContent{
			Role:  role,
			Parts: []wirePart{{Text: turn.Text}},
		})
	}

	last := wireContent{Role: "user", Parts: []wirePart{{Text: req.Prompt}}}
	for _, f := range req.Files {
		if f == nil || strings.TrimSpace(f.URI) == "" {
			continue
		}
		last.Parts = append(last.Parts, wirePart{
			FileData: &wireFileData{MimeType: f.MimeType, FileURI: f.URI},
		})
	}
	out.Contents = append(out.Contents, last)

	out.GenerationConfig.Temperature = c.temperature
	out.GenerationConfig.MaxOutputTokens = c.maxOutputTokens

	if len(req.Tools) > 0 {
		out.Tools = append(out.Tools, struct {
			FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
		}{FunctionDeclarations: req.Tools})
	}
	return out
}

func extractText(resp generateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func (c *client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.GenerateContent(ctx, GenerateRequest{Prompt: prompt})
}

func (c *client) GenerateContent(ctx context.Context, req GenerateRequest) (string, error) {
	body := c.buildRequest(req)
	path := "/v1beta/models/" + c.model + ":generateContent"

	var resp generateContentResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return extractText(resp), nil
}

// GenerateStream opens streamGenerateContent with SSE framing and forwards
// one StreamChunk per emitted part. The stream is finite and single-use; it
// ends when the remote closes it or onChunk returns an error.
func (c *client) GenerateStream(ctx context.Context, req GenerateRequest, onChunk func(StreamChunk) error) error {
	body := c.buildRequest(req)
	path := "/v1beta/models/" + c.model + ":streamGenerateContent?alt=sse"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return streamSSE(resp.Body, func(event string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}

		var chunk generateContentResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("gemini stream decode: %w", err)
		}

		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				out := StreamChunk{Text: part.Text, FunctionCall: part.FunctionCall}
				if out.Text == "" && out.FunctionCall == nil {
					continue
				}
				if err := onChunk(out); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
