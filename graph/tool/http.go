package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTool makes HTTP requests on behalf of the model. Supports GET and
// POST; the response body is returned as the tool result string.
//
// Input parameters:
//   - url: target URL (required)
//   - method: "GET" or "POST", default "GET"
//   - body: request body for POST
//   - headers: optional map of header name to value
type HTTPTool struct {
	client *http.Client

	// MaxBodyBytes caps how much of the response is returned to the
	// model. Default 64 KiB.
	MaxBodyBytes int64
}

// NewHTTPTool creates an HTTP tool using the given client; nil uses
// http.DefaultClient. Timeouts come from the invocation context.
func NewHTTPTool(client *http.Client) *HTTPTool {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTool{client: client, MaxBodyBytes: 64 << 10}
}

// Name implements Tool.
func (h *HTTPTool) Name() string { return "http_request" }

// Description implements Tool.
func (h *HTTPTool) Description() string {
	return "Make an HTTP GET or POST request and return the response body"
}

// Schema implements Tool.
func (h *HTTPTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":    map[string]any{"type": "string", "description": "Target URL"},
			"method": map[string]any{"type": "string", "description": "GET or POST, default GET"},
			"body":   map[string]any{"type": "string", "description": "Request body for POST"},
		},
		"required": []string{"url"},
	}
}

// Invoke implements Tool.
func (h *HTTPTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	urlStr, ok := args["url"].(string)
	if !ok || urlStr == "" {
		return "", fmt.Errorf("url parameter required")
	}

	method := "GET"
	if m, ok := args["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return "", fmt.Errorf("unsupported HTTP method %q", method)
	}

	var body io.Reader
	if bodyStr, ok := args["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if headers, ok := args["headers"].(map[string]any); ok {
		for key, value := range headers {
			if s, ok := value.(string); ok {
				req.Header.Set(key, s)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, h.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return fmt.Sprintf("HTTP %d\n%s", resp.StatusCode, respBody), nil
}
