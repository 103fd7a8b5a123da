package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/fenshot/internal/render"
	"github.com/park285/fenshot/pkg/exportdto"
	"github.com/valyala/fasthttp"
)

// Client talks to a remote fenshot server.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the network dialer, e.g. with an in-memory listener in tests.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 2 * time.Minute, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 2 * time.Minute,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RenderResult is a board image downloaded from the server.
type RenderResult struct {
	Filename string
	MIME     string
	Data     []byte
	Quality  render.Quality
}

func (c *Client) Render(ctx context.Context, req exportdto.RenderRequest) (*RenderResult, error) {
	resp, err := c.do(ctx, fasthttp.MethodPost, "/v1/render", req, false)
	if err != nil {
		return nil, err
	}
	defer fasthttp.ReleaseResponse(resp)

	out := &RenderResult{
		MIME: string(resp.Header.ContentType()),
		Data: append([]byte(nil), resp.Body()...),
	}
	if _, params, err := mime.ParseMediaType(string(resp.Header.Peek("Content-Disposition"))); err == nil {
		out.Filename = params["filename"]
	}
	out.Quality.Requested, _ = strconv.Atoi(string(resp.Header.Peek("X-Quality-Requested")))
	out.Quality.Effective, _ = strconv.Atoi(string(resp.Header.Peek("X-Quality-Effective")))
	out.Quality.Reduced = out.Quality.Effective > 0 && out.Quality.Effective != out.Quality.Requested
	return out, nil
}

func (c *Client) Validate(ctx context.Context, fenStr string) (*exportdto.ValidateResponse, error) {
	var out exportdto.ValidateResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/validate", exportdto.ValidateRequest{FEN: fenStr}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Random(ctx context.Context) (string, error) {
	var out exportdto.RandomResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/random", nil, &out, true); err != nil {
		return "", err
	}
	return out.FEN, nil
}

func (c *Client) Batch(ctx context.Context, id string) (*exportdto.BatchStatus, error) {
	var out exportdto.BatchStatus
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/batches/"+url.PathEscape(id), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Batches(ctx context.Context) ([]string, error) {
	var out exportdto.BatchListResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/batches", nil, &out, true); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	resp, err := c.do(ctx, method, path, in, retry)
	if err != nil {
		return err
	}
	defer fasthttp.ReleaseResponse(resp)
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// do returns a 2xx response the caller must release. Non-2xx bodies are decoded
// into exportdto.DomainError.
func (c *Client) do(ctx context.Context, method, path string, in any, retry bool) (*fasthttp.Response, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp := fasthttp.AcquireResponse()
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err == nil {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return resp, nil
			}
			err = decodeError(status, resp.Body())
			if !shouldRetryStatus(status) {
				fasthttp.ReleaseResponse(resp)
				return nil, err
			}
		} else {
			err = fmt.Errorf("request failed: %w", err)
		}
		fasthttp.ReleaseResponse(resp)
		lastErr = err
		if attempt == attempts {
			break
		}
		if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return nil, lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func decodeError(status int, body []byte) error {
	var de exportdto.DomainError
	if err := json.Unmarshal(body, &de); err == nil && de.Code != "" {
		return de
	}
	return fmt.Errorf("fenshot api error: status=%d body=%s", status, truncate(string(body), 512))
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
