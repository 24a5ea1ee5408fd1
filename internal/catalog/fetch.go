package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stellarlinkco/toolvet/internal/tool"
)

const (
	defaultFetchTimeout  = 15 * time.Second
	defaultFetchMaxBytes = 2 << 20 // 2 MiB
	fetchUserAgent       = "toolvet-fetch/1.0"
)

var fetchSchema = &tool.Schema{
	Properties: map[string]*tool.Property{
		"url": {
			Type:        "string",
			Description: "Fully formed http(s) URL to fetch",
		},
	},
	Required: []string{"url"},
}

// FetchOptions configures FetchTool behaviour.
type FetchOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
}

// FetchTool performs a bounded HTTP GET and returns the body as text.
type FetchTool struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

func NewFetchTool(opts FetchOptions) *FetchTool {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultFetchMaxBytes
	}
	return &FetchTool{client: client, timeout: timeout, maxBytes: maxBytes}
}

func (f *FetchTool) Name() string         { return "fetch" }
func (f *FetchTool) Description() string  { return "Fetch the contents of an http(s) URL" }
func (f *FetchTool) Schema() *tool.Schema { return fetchSchema }

func (f *FetchTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	raw, _ := params["url"].(string)
	target, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", target.Scheme)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	truncated := int64(len(body)) > f.maxBytes
	if truncated {
		body = body[:f.maxBytes]
	}

	result := &tool.Result{
		Success: resp.StatusCode < 400,
		Output:  string(body),
		Data: map[string]any{
			"status":    resp.StatusCode,
			"url":       target.String(),
			"truncated": truncated,
		},
	}
	if resp.StatusCode >= 400 {
		return result, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}
	return result, nil
}
