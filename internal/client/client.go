package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"attendtrack/internal/config"
)

const maxErrorBody = 64 << 10

// Options configures a Client
type Options struct {
	Endpoints  *Endpoints
	Tokens     TokenStore
	HTTPClient *http.Client
	// Timeout bounds each attempt when HTTPClient is nil
	Timeout time.Duration
	// OnUnauthorized runs after a 401 response has cleared the token
	OnUnauthorized func()
}

// Client sends API requests to the current endpoint and fails over to the
// next candidate on transport errors
type Client struct {
	endpoints      *Endpoints
	tokens         TokenStore
	http           *http.Client
	onUnauthorized func()
}

// New creates a client
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		endpoints:      opts.Endpoints,
		tokens:         tokens,
		http:           httpClient,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// NewFromConfig builds a client from environment configuration. Dev mode pins
// the client to the local dev URL.
func NewFromConfig(cfg *config.ClientConfig) (*Client, error) {
	var endpoints *Endpoints
	if cfg.Dev {
		endpoints = NewDevEndpoints(cfg.DevURL)
	} else {
		var err error
		if endpoints, err = NewEndpoints(cfg.Endpoints); err != nil {
			return nil, err
		}
	}
	return New(Options{
		Endpoints: endpoints,
		Tokens:    NewFileTokenStore(cfg.TokenFile),
		Timeout:   cfg.Timeout,
	}), nil
}

// Endpoints returns the client's failover state
func (c *Client) Endpoints() *Endpoints {
	return c.endpoints
}

// Tokens returns the client's token store
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// Do sends a JSON request and decodes a 2xx response into out. The body is
// encoded once and replayed on every attempt.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	for {
		index, base := c.endpoints.Current()
		req, err := c.newRequest(ctx, method, base+path, payload)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !c.endpoints.Advance(index) {
				return &TransportError{Endpoint: base, Err: err}
			}
			log.Printf("API endpoint %s failed, trying next...", base)
			continue
		}
		return c.handle(resp, out)
	}
}

func (c *Client) newRequest(ctx context.Context, method, url string, payload []byte) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.Token()
	if err != nil {
		log.Printf("Failed to read session token: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) handle(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		if err := c.tokens.Clear(); err != nil {
			log.Printf("Failed to clear session token: %v", err)
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"error"} or {"message"} from a failed response
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return string(bytes.TrimSpace(data))
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
