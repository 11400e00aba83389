package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	FileStateProcessing = "PROCESSING"
	FileStateActive     = "ACTIVE"
	FileStateFailed     = "FAILED"
)

// File is the remote file handle cached in the document store. The wire
// format reports sizeBytes as a decimal string.
type File struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName,omitempty"`
	MimeType       string `json:"mimeType,omitempty"`
	SizeBytes      string `json:"sizeBytes,omitempty"`
	CreateTime     string `json:"createTime,omitempty"`
	UpdateTime     string `json:"updateTime,omitempty"`
	ExpirationTime string `json:"expirationTime,omitempty"`
	SHA256Hash     string `json:"sha256Hash,omitempty"`
	URI            string `json:"uri,omitempty"`
	State          string `json:"state,omitempty"`
	Source         string `json:"source,omitempty"`
}

func (f *File) Size() int64 {
	if f == nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(f.SizeBytes), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type fileEnvelope struct {
	File File `json:"file"`
}

// UploadFile spools the payload to a temp file, uploads it, then polls until
// the remote store finishes processing. The temp file is released on every
// exit path. Payloads over the configured cap are rejected before any remote
// call.
func (c *client) UploadFile(ctx context.Context, data []byte, filename string, mimeType string) (*File, error) {
	if int64(len(data)) > c.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), c.maxUploadBytes)
	}

	suffix := filepath.Ext(filename)
	tmp, err := os.CreateTemp("", "resummate-upload-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create temp upload file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write temp upload file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp upload file: %w", err)
	}

	uploaded, err := c.uploadMultipart(ctx, tmpPath, filename, mimeType)
	if err != nil {
		c.log.Error("Gemini file upload failed", "filename", filename, "error", err)
		return nil, fmt.Errorf("upload file: %w", err)
	}

	return c.waitForProcessing(ctx, uploaded)
}

func (c *client) uploadMultipart(ctx context.Context, path string, filename string, mimeType string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"file": map[string]any{"display_name": filename}}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, err
	}

	mediaHeader := textproto.MIMEHeader{}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	mediaHeader.Set("Content-Type", mimeType)
	mediaPart, err := mw.CreatePart(mediaHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(mediaPart, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/upload/v1beta/files?uploadType=multipart", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("gemini decode error: %w; raw=%s", err, string(raw))
	}
	if strings.TrimSpace(env.File.Name) == "" {
		return nil, fmt.Errorf("gemini upload returned no file name; raw=%s", string(raw))
	}
	return &env.File, nil
}

// waitForProcessing polls the remote handle at the configured interval until
// it leaves PROCESSING, bounded by the processing timeout and ctx.
func (c *client) waitForProcessing(ctx context.Context, file *File) (*File, error) {
	deadline := time.Now().Add(c.processingTimeout)

	for file.State == FileStateProcessing {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s after %s", ErrProcessingTimeout, file.Name, c.processingTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		refreshed, err := c.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("poll file %s: %w", file.Name, err)
		}
		file = refreshed
	}

	if file.State == FileStateFailed {
		return nil, fmt.Errorf("remote processing failed for %s", file.Name)
	}
	return file, nil
}

func (c *client) GetFile(ctx context.Context, name string) (*File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing file name")
	}
	if !strings.HasPrefix(name, "files/") {
		name = "files/" + name
	}
	var out File
	if err := c.do(ctx, http.MethodGet, "/v1beta/"+name, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
