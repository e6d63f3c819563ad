package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/finrag/internal/core"
)

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 10 * time.Second

const maxBodyBytes = 8 << 20

// Client is a small wrapper around http.Client with sane defaults.
// Each provider adapter owns one; Close releases its idle connections.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
}

// New creates a client whose requests are bounded by timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout, Transport: transport},
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	}
}

// WithCookies attaches an in-memory cookie jar so session cookies set by one
// response are replayed on later requests to the same host.
func (c *Client) WithCookies() *Client {
	jar, err := cookiejar.New(nil)
	if err == nil {
		c.HTTP.Jar = jar
	}
	return c
}

// Do sends req after applying the default headers.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req.WithContext(ctx))
}

// GetJSON issues a GET to rawURL with params and decodes the body into out.
// Failures come back as *core.Error: timeouts as ErrProviderTimeout, empty
// bodies as ErrNoData, everything else as ErrProviderFailed.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	body, err := c.get(ctx, rawURL, params, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// GetText issues a GET and returns the trimmed body as a string.
func (c *Client) GetText(ctx context.Context, rawURL string, params url.Values) (string, error) {
	body, err := c.get(ctx, rawURL, params, "text/plain")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values, accept string) ([]byte, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", accept)

	resp, err := c.Do(ctx, req)
	if err != nil {
		if isTimeout(err) {
			return nil, core.WrapError(core.ErrProviderTimeout, err)
		}
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, core.WrapError(core.ErrProviderTimeout, err)
		}
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("empty response body"))
	}
	return body, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.HTTP.CloseIdleConnections()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
