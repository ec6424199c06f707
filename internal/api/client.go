package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"geostaff-client/internal/model"
)

// TokenSource supplies the bearer credential for each request.
type TokenSource interface {
	Token() string
}

// SessionExpired is emitted when any request comes back 401.
type SessionExpired struct {
	Method string
	Path   string
}

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	debug      bool

	mu    sync.RWMutex
	hooks []func(SessionExpired)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithDebug logs every request and its status.
func WithDebug(on bool) Option {
	return func(c *Client) { c.debug = on }
}

func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionExpired subscribes fn to 401 responses from any endpoint.
func (c *Client) OnSessionExpired(fn func(SessionExpired)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// DoJSON sends body as JSON (when non-nil) and decodes the response into
// result (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, path, query, reqBody, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Download fetches a binary payload and the filename the server proposes.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (*model.Download, error) {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, "*/*")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	return &model.Download{
		Filename:    filenameFrom(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, accept string) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	if c.debug {
		log.Printf("DEBUG %s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}

	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		Detail:     parseDetail(respBody),
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.emitExpired(SessionExpired{Method: method, Path: path})
	case resp.StatusCode == http.StatusForbidden:
		log.Printf("ERROR forbidden %s %s: %s", method, path, apiErr.Detail)
	case resp.StatusCode >= 500:
		log.Printf("ERROR server %d on %s %s: %s", resp.StatusCode, method, path, string(respBody))
	}
	return nil, apiErr
}

func (c *Client) emitExpired(ev SessionExpired) {
	c.mu.RLock()
	hooks := append([]func(SessionExpired){}, c.hooks...)
	c.mu.RUnlock()

	for _, fn := range hooks {
		fn(ev)
	}
}

func filenameFrom(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
