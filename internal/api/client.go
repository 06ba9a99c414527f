package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the Aspect-Ratio Automator service.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// ServerError is a failure the service reported in a JSON error body.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
	}
	return e.Message
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Upload sends an image file as a multipart form and returns the created
// session with its generated previews.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setRequestID(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	var out UploadResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	return &out, nil
}

// Adjust posts a crop-center adjustment for one ratio.
func (c *Client) Adjust(ctx context.Context, adj AdjustRequest) (*AdjustResponse, error) {
	resp, err := c.postJSON(ctx, "/adjust", adj)
	if err != nil {
		return nil, fmt.Errorf("adjust request failed: %w", err)
	}
	defer resp.Body.Close()

	var out AdjustResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	return &out, nil
}

// Download requests the packaged archive for a session and streams it to w.
// The returned filename comes from the Content-Disposition header, falling
// back to aspect_ratios_<sid>.zip. A JSON body on failure is surfaced as a
// ServerError.
func (c *Client) Download(ctx context.Context, sessionID string, adjustments map[string]Offsets, w io.Writer) (string, error) {
	if adjustments == nil {
		adjustments = map[string]Offsets{}
	}
	resp, err := c.postJSON(ctx, "/download", downloadRequest{
		SessionID:   sessionID,
		Adjustments: adjustments,
	})
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	filename := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = fmt.Sprintf("aspect_ratios_%s.zip", shortID(sessionID))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("failed to stream archive: %w", err)
	}
	return filename, nil
}

// Cleanup asks the service to remove a session's files. Best effort: the
// response body is ignored.
func (c *Client) Cleanup(ctx context.Context, sessionID string) error {
	resp, err := c.postJSON(ctx, "/cleanup", cleanupRequest{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("cleanup request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	slog.Debug("Cleanup request sent", "session_id", sessionID, "status", resp.StatusCode)
	return nil
}

// FetchPreview downloads a preview image. previewURL may be absolute or a
// path relative to the service base URL.
func (c *Client) FetchPreview(ctx context.Context, previewURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(previewURL), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	setRequestID(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("preview request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read preview data: %w", err)
	}
	return nil
}

// PreviewURL constructs the direct preview path for a session and ratio,
// used only when the server has not supplied a URL for the tile.
func (c *Client) PreviewURL(sessionID, ratio string) string {
	return fmt.Sprintf("/preview/%s_%s_preview.jpg", sessionID, ratio)
}

// CacheBust appends a timestamp query parameter so a refetch bypasses any
// intermediate caching of the previous preview.
func CacheBust(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// Fall back to naive appending rather than dropping the bust.
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		return raw + sep + "t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setRequestID(req)

	return c.httpClient.Do(req)
}

func (c *Client) resolveURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return c.BaseURL + raw
}

// decodeJSON decodes a 200 response into out, or turns an error body into a
// ServerError.
func decodeJSON(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &ServerError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &ServerError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("unexpected response (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func shortID(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}

func setRequestID(req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
}
