package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	types "github.com/lifeease/lifeease-client/internal/domain"
	"github.com/lifeease/lifeease-client/internal/pkg/ctxutil"
	"github.com/lifeease/lifeease-client/internal/pkg/httpx"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
)

// decodeBodyPreview caps how much raw body a decode failure carries for diagnostics.
const decodeBodyPreview = 300

// imageField is the fixed multipart field name the backend reads attachments from.
const imageField = "image"

// ChatRequest is one conversational turn sent to the /chat endpoint.
// Only the first attachment is forwarded; the backend accepts a single image
// per turn and this client preserves that contract rather than widening it.
type ChatRequest struct {
	Text         string
	SessionID    string
	SystemPrompt string
	Attachments  []types.Attachment
	// Timeout overrides the default budget (60s, 180s when an image is present).
	Timeout time.Duration
}

// Client talks to the LifeEase conversational-analysis backend. Every call is
// bounded by a timeout budget and failures are normalized into RequestError.
// The client performs no retries; a failed call is terminal for its turn.
type Client interface {
	Health(ctx context.Context) (*types.HealthStatus, error)

	// AnalyzeText sends a text-only analysis request as JSON.
	AnalyzeText(ctx context.Context, text string, timeout time.Duration) (*types.ChatResponse, error)

	// AnalyzeVision sends the first attachment plus optional text as multipart.
	AnalyzeVision(ctx context.Context, attachments []types.Attachment, text string, timeout time.Duration) (*types.ChatResponse, error)

	// Chat sends a session-correlated turn (multipart: text, session_id,
	// optional system_prompt, optional image).
	Chat(ctx context.Context, req ChatRequest) (*types.ChatResponse, error)

	History(ctx context.Context, sessionID string) (*types.ChatResponse, error)
	ResetHistory(ctx context.Context, sessionID string) (*types.ChatResponse, error)
}

// Config carries the base URL and the default per-endpoint timeout budgets.
type Config struct {
	BaseURL string

	HealthTimeout     time.Duration
	AnalyzeTimeout    time.Duration
	VisionTimeout     time.Duration
	ChatTimeout       time.Duration
	ChatVisionTimeout time.Duration
	HistoryTimeout    time.Duration
	ResetTimeout      time.Duration
}

// DefaultConfig returns the backend contract's default budgets: short for
// health checks, medium for text, long for payloads carrying binary data.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           strings.TrimRight(baseURL, "/"),
		HealthTimeout:     5 * time.Second,
		AnalyzeTimeout:    60 * time.Second,
		VisionTimeout:     180 * time.Second,
		ChatTimeout:       60 * time.Second,
		ChatVisionTimeout: 180 * time.Second,
		HistoryTimeout:    10 * time.Second,
		ResetTimeout:      10 * time.Second,
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("backend base url required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	def := DefaultConfig(cfg.BaseURL)
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = def.HealthTimeout
	}
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = def.AnalyzeTimeout
	}
	if cfg.VisionTimeout <= 0 {
		cfg.VisionTimeout = def.VisionTimeout
	}
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = def.ChatTimeout
	}
	if cfg.ChatVisionTimeout <= 0 {
		cfg.ChatVisionTimeout = def.ChatVisionTimeout
	}
	if cfg.HistoryTimeout <= 0 {
		cfg.HistoryTimeout = def.HistoryTimeout
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	return &client{
		log: log.With("service", "BackendClient"),
		cfg: cfg,
		// Per-call budgets come from the request context; the transport
		// itself carries no global timeout.
		httpClient: &http.Client{},
	}, nil
}

// execute issues one bounded request and normalizes the outcome. The deadline
// timer is always released via the deferred cancel, on every path.
func (c *client) execute(ctx context.Context, method, path string, body io.Reader, contentType string, budget time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), budget)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return &RequestError{Kind: FailureTransport, Path: path, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if httpx.IsTimeoutError(err) && !httpx.IsCancellation(ctx.Err()) {
			return &RequestError{Kind: FailureTimeout, Path: path, Budget: budget, Err: err}
		}
		return &RequestError{Kind: FailureTransport, Path: path, Err: err}
	}

	// Read best-effort: on a failure status the body is still wanted for
	// diagnostics, so a read error there does not mask the status.
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if !httpx.IsSuccessStatus(resp.StatusCode) {
		return &RequestError{Kind: FailureHTTPStatus, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}
	if readErr != nil {
		if httpx.IsTimeoutError(readErr) {
			return &RequestError{Kind: FailureTimeout, Path: path, Budget: budget, Err: readErr}
		}
		return &RequestError{Kind: FailureTransport, Path: path, Err: readErr}
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return &RequestError{Kind: FailureDecode, Path: path, Body: truncate(string(raw), decodeBodyPreview), Err: uErr}
	}
	return nil
}

func (c *client) executeJSON(ctx context.Context, method, path string, payload any, budget time.Duration, out any) error {
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return &RequestError{Kind: FailureTransport, Path: path, Err: err}
		}
	}
	return c.execute(ctx, method, path, &buf, "application/json", budget, out)
}

// multipartPayload encodes fields plus at most one attachment under the fixed
// image field name.
func multipartPayload(fields [][2]string, att *types.Attachment) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if att != nil {
		fw, err := w.CreateFormFile(imageField, att.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(att.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *client) executeMultipart(ctx context.Context, path string, fields [][2]string, att *types.Attachment, budget time.Duration, out any) error {
	buf, contentType, err := multipartPayload(fields, att)
	if err != nil {
		return &RequestError{Kind: FailureTransport, Path: path, Err: err}
	}
	return c.execute(ctx, http.MethodPost, path, buf, contentType, budget, out)
}

func (c *client) Health(ctx context.Context) (*types.HealthStatus, error) {
	var out types.HealthStatus
	if err := c.execute(ctx, http.MethodGet, "/health", nil, "", c.cfg.HealthTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) AnalyzeText(ctx context.Context, text string, timeout time.Duration) (*types.ChatResponse, error) {
	if timeout <= 0 {
		timeout = c.cfg.AnalyzeTimeout
	}
	payload := struct {
		Text string `json:"text"`
	}{Text: text}
	var out types.ChatResponse
	if err := c.executeJSON(ctx, http.MethodPost, "/analyze-text", payload, timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) AnalyzeVision(ctx context.Context, attachments []types.Attachment, text string, timeout time.Duration) (*types.ChatResponse, error) {
	if len(attachments) == 0 {
		return nil, fmt.Errorf("analyze vision requires at least one attachment")
	}
	if timeout <= 0 {
		timeout = c.cfg.VisionTimeout
	}
	var fields [][2]string
	if text != "" {
		fields = append(fields, [2]string{"text", text})
	}
	first := attachments[0]
	var out types.ChatResponse
	if err := c.executeMultipart(ctx, "/analyze", fields, &first, timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Chat(ctx context.Context, req ChatRequest) (*types.ChatResponse, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("chat requires a session id")
	}

	fields := [][2]string{
		{"text", req.Text},
		{"session_id", req.SessionID},
	}
	if req.SystemPrompt != "" {
		fields = append(fields, [2]string{"system_prompt", req.SystemPrompt})
	}

	var att *types.Attachment
	if len(req.Attachments) > 0 {
		att = &req.Attachments[0]
	}

	timeout := req.Timeout
	if timeout <= 0 {
		if att != nil {
			timeout = c.cfg.ChatVisionTimeout
		} else {
			timeout = c.cfg.ChatTimeout
		}
	}

	var out types.ChatResponse
	if err := c.executeMultipart(ctx, "/chat", fields, att, timeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) History(ctx context.Context, sessionID string) (*types.ChatResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("history requires a session id")
	}
	path := "/history?session_id=" + url.QueryEscape(sessionID)
	var out types.ChatResponse
	if err := c.execute(ctx, http.MethodGet, path, nil, "", c.cfg.HistoryTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) ResetHistory(ctx context.Context, sessionID string) (*types.ChatResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("reset history requires a session id")
	}
	fields := [][2]string{{"session_id", sessionID}}
	var out types.ChatResponse
	if err := c.executeMultipart(ctx, "/reset-history", fields, nil, c.cfg.ResetTimeout, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
