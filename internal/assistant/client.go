package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Message is one turn of the drafting conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client issues streaming chat-completions requests against an
// OpenAI-compatible backend.
type Client struct {
	baseURL             string
	apiKey              string
	model               string
	chatCompletionsPath string
	streamTimeout       time.Duration
	httpClient          *http.Client
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string

	// ChatCompletionsPath defaults to /v1/chat/completions.
	ChatCompletionsPath string

	// StreamTimeout bounds a whole streaming exchange; zero means rely on
	// caller cancellation only.
	StreamTimeout time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("assistant: base_url required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("assistant: model required")
	}
	chatPath := strings.TrimSpace(cfg.ChatCompletionsPath)
	if chatPath == "" {
		chatPath = "/v1/chat/completions"
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL:             baseURL,
		apiKey:              strings.TrimSpace(cfg.APIKey),
		model:               model,
		chatCompletionsPath: chatPath,
		streamTimeout:       cfg.StreamTimeout,
		httpClient:          &http.Client{Transport: tr},
	}, nil
}

// NewClientWithHTTPClient is intended for tests; it avoids network access by
// using a custom RoundTripper.
func NewClientWithHTTPClient(cfg ClientConfig, httpClient *http.Client) (*Client, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// OpenStream sends the full turn history and returns the raw response body
// for decoding. The caller owns closing the body. Non-2xx responses are
// returned as *HTTPError with up to 1MB of body captured.
func (c *Client) OpenStream(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	msgs := make([]Message, 0, len(messages))
	for _, m := range messages {
		role := strings.TrimSpace(m.Role)
		content := strings.TrimSpace(m.Content)
		if role == "" || content == "" {
			continue
		}
		msgs = append(msgs, Message{Role: role, Content: content})
	}
	if len(msgs) == 0 {
		return nil, errors.New("assistant: no messages")
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(chatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   true,
	}); err != nil {
		return nil, err
	}

	ctx2 := ctx
	var cancel context.CancelFunc
	if c.streamTimeout > 0 {
		ctx2, cancel = context.WithTimeout(ctx, c.streamTimeout)
	}

	req, err := http.NewRequestWithContext(ctx2, "POST", c.baseURL+c.chatCompletionsPath, &buf)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if cancel != nil {
			cancel()
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if resp.Body == nil {
		if cancel != nil {
			cancel()
		}
		return nil, errors.New("assistant: response has no body")
	}

	body := resp.Body
	if cancel != nil {
		body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	}
	return body, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
