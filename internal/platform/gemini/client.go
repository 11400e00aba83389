package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/resummate/resummate-backend/internal/platform/envutil"
	"github.com/resummate/resummate-backend/internal/platform/httpx"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

var (
	// ErrFileTooLarge is returned before any remote call when an upload
	// payload exceeds the configured cap.
	ErrFileTooLarge = errors.New("file size exceeds the allowed limit")
	// ErrProcessingTimeout is returned when a remote file does not leave the
	// PROCESSING state within the configured bound.
	ErrProcessingTimeout = errors.New("remote file processing timed out")
)

// Client is the generative-language API client used by the rest of the
// backend. Implementations talk to the hosted document-AI service; tests
// substitute fakes.
type Client interface {
	// UploadFile pushes raw bytes to the remote file store and blocks until
	// the file leaves the PROCESSING state or the processing bound expires.
	UploadFile(ctx context.Context, data []byte, filename string, mimeType string) (*File, error)

	// GetFile resolves a stored remote name into a fresh handle.
	GetFile(ctx context.Context, name string) (*File, error)

	// GenerateText issues a one-shot generation with no attachments.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateContent issues a blocking generation over prompt + attached
	// files, replaying History turn by turn before the prompt.
	GenerateContent(ctx context.Context, req GenerateRequest) (string, error)

	// GenerateStream opens a streaming generation and invokes onChunk per
	// element until the remote stream ends or onChunk returns an error.
	GenerateStream(ctx context.Context, req GenerateRequest, onChunk func(StreamChunk) error) error
}

// Turn is one prior history entry, oldest-first when passed to the API.
type Turn struct {
	Role string
	Text string
}

// GenerateRequest carries everything one generation call needs. The fixed
// model parameters (model id, max output tokens, temperature) come from the
// client's configuration, not from callers.
type GenerateRequest struct {
	SystemInstruction string
	Prompt            string
	Files             []*File
	History           []Turn
	Tools             []FunctionDeclaration
}

// StreamChunk is one element of a generation stream: a text fragment, a
// request to invoke a named tool, or both empty (ignorable keep-alive).
type StreamChunk struct {
	Text         string
	FunctionCall *FunctionCall
}

type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionDeclaration describes a callable tool to the model.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type client struct {
	log     *logger.Logger
	baseURL string
	apiKey  string
	model   string

	maxOutputTokens int
	temperature     float64

	maxUploadBytes    int64
	pollInterval      time.Duration
	processingTimeout time.Duration

	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := envutil.String("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := envutil.Duration("GEMINI_TIMEOUT_SECONDS", 180*time.Second)

	return &client{
		log:               log.With("service", "GeminiClient"),
		baseURL:           baseURL,
		apiKey:            apiKey,
		model:             envutil.String("GEMINI_MODEL", "gemini-2.0-flash"),
		maxOutputTokens:   envutil.Int("GEMINI_MAX_OUTPUT_TOKENS", 8192),
		temperature:       envutil.Float("GEMINI_TEMPERATURE", 0.7),
		maxUploadBytes:    envutil.Int64("GEMINI_MAX_UPLOAD_BYTES", 10<<20),
		pollInterval:      envutil.Duration("GEMINI_POLL_INTERVAL_SECONDS", 1*time.Second),
		processingTimeout: envutil.Duration("GEMINI_PROCESSING_TIMEOUT_SECONDS", 120*time.Second),
		httpClient:        &http.Client{Timeout: timeout},
		maxRetries:        envutil.Int("GEMINI_MAX_RETRIES", 4),
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *geminiHTTPError) HTTPStatusCode() int { return e.StatusCode }

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("gemini decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Gemini request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}
