// Package api is the HTTP client for the merchant backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/synvya/merchant-connect/internal/logging"
	"go.uber.org/zap"
)

// DefaultTimeout applies to every request unless Config.Timeout is set.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 1 << 20

// TokenSource yields the current bearer token, or "" when there is no session.
type TokenSource interface {
	AccessToken() string
}

// Config is fixed at construction time.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Prefix     string // path prefix for merchant endpoints, default "/square"
	HTTPClient *http.Client
}

// Client sends JSON requests to the backend.
type Client struct {
	baseURL string
	prefix  string
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// New returns a Client. tokens and log may be nil.
func New(cfg Config, tokens TokenSource, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "/square"
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		prefix:  "/" + strings.Trim(prefix, "/"),
		http:    hc,
		tokens:  tokens,
		log:     log.Named("api"),
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do sends a request and decodes a 2xx JSON body into out when out is
// non-nil. It returns the HTTP status, or 0 when no response arrived.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	return c.do(ctx, method, path, body, out, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, header http.Header) (int, error) {
	url := c.URL(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Bool("auth", req.Header.Get("Authorization") != ""),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("no response", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return 0, &Error{Kind: KindNoResponse, Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.log.Warn("reading response", zap.String("url", url), zap.Error(err))
		return resp.StatusCode, &Error{Kind: KindNoResponse, Method: method, URL: url, Status: resp.StatusCode, Err: err}
	}

	c.log.Debug("response",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("error response",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data),
		)
		return resp.StatusCode, &Error{Kind: KindStatus, Method: method, URL: url, Status: resp.StatusCode, Body: data}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &Error{Kind: KindDecode, Method: method, URL: url, Status: resp.StatusCode, Body: data, Err: err}
		}
	}
	return resp.StatusCode, nil
}
