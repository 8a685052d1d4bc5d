// Package api is the typed client for the copilot backend HTTP contract:
// folder and conversation listings under /data, chat turns under /api/chat.
// The contract is consumed, not owned; response bodies that fail to parse
// fall back to a generic error carrying the transport status text.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sentinelops/copilot/internal/logging"
	"github.com/sentinelops/copilot/internal/types"
)

// Config defines backend connection settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the copilot backend. Every request carries the bearer
// credential when one is held.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	log     *logging.Logger
	mu      sync.RWMutex
}

// New creates a backend client.
func New(cfg Config, log *logging.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil
	// Retry transport-level failures only. A non-2xx response is part of
	// the contract and is never retried automatically.
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "copilot-client/0.1")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		log:     log,
	}
}

// SetToken attaches a bearer credential to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetAuthToken(token)
}

// ClearToken drops the held credential.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetAuthToken("")
	c.resty.Header.Del("Authorization")
}

// ConversationRecord is a conversation as the list endpoints describe it:
// metadata only, no transcript.
type ConversationRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updated_at,omitempty"`
	FolderID  string `json:"folder_id,omitempty"`
}

// TurnMessage is the outgoing message shape for a chat turn.
type TurnMessage struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
}

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Messages       []TurnMessage `json:"messages"`
	Mode           string        `json:"mode"`
	ConversationID string        `json:"conversation_id"`
}

// ChatResponse is the structured answer for one chat turn.
type ChatResponse struct {
	Final *types.FinalDecision `json:"final"`
	Steps []types.AgentStep    `json:"steps"`
}

// ListFolders fetches the authoritative folder list.
func (c *Client) ListFolders(ctx context.Context) ([]types.Folder, error) {
	var folders []types.Folder
	resp, err := c.get(ctx, "/data/folders", &folders)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return folders, nil
}

// CreateFolder creates a folder and returns the server-assigned record.
func (c *Client) CreateFolder(ctx context.Context, name string) (*types.Folder, error) {
	var folder types.Folder
	resp, err := c.post(ctx, "/data/folders", map[string]string{"name": name}, &folder)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListConversations fetches the authoritative conversation list.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationRecord, error) {
	var records []ConversationRecord
	resp, err := c.get(ctx, "/data/conversations", &records)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateConversation creates a conversation and returns the server-assigned
// record.
func (c *Client) CreateConversation(ctx context.Context, title string, folderID string) (*ConversationRecord, error) {
	body := map[string]interface{}{"title": title, "folder_id": nil}
	if folderID != "" {
		body["folder_id"] = folderID
	}

	var record ConversationRecord
	resp, err := c.post(ctx, "/data/conversations", body, &record)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return &record, nil
}

// Chat submits one turn and waits for the structured decision. Failures come
// back as *AuthError for rejected credentials and *ChatTurnError for
// everything else; a failed turn never yields a partial decision.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Mode == "" {
		req.Mode = "assist"
	}

	var out ChatResponse
	resp, err := c.post(ctx, "/api/chat", req, &out)
	if err != nil {
		return nil, &ChatTurnError{Err: err}
	}
	if err := c.checkStatus(resp); err != nil {
		if IsAuth(err) {
			return nil, err
		}
		return nil, &ChatTurnError{Err: err}
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) (*resty.Response, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	return req.SetResult(result).Get(path)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) (*resty.Response, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	return req.SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result).
		Post(path)
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resty.R().SetContext(ctx), nil
}

// checkStatus maps a non-2xx response to the error kinds of this package.
func (c *Client) checkStatus(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	status := resp.StatusCode()
	message := decodeErrorBody(resp.Body())
	if message == "" {
		message = resp.Status()
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.log.Warn("credential rejected by backend", zap.Int("status", status))
		return &AuthError{Status: status, Message: message}
	}
	return &BackendError{Status: status, Message: message}
}

// decodeErrorBody extracts the message from a structured error body. Both
// {"error": ...} and {"detail": ...} shapes are accepted.
func decodeErrorBody(body []byte) string {
	var parsed struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Detail
}
