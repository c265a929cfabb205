// Package executors implements the built-in executors the Executor
// Registry resolves by node.Type: plain net/http for the HTTP executor
// (grounded on the teacher's HTTPRequestExecutor, itself stdlib-based —
// no pack example reaches for a third-party HTTP client), go-openai for
// the LLM executor, and a pure expr-lang transform executor.
package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPExecutor performs an outbound HTTP call described by its config:
// {method, url, headers?, body?, timeoutSeconds?}.
type HTTPExecutor struct {
	client *http.Client
}

// NewHTTPExecutor constructs an HTTPExecutor with a sane default timeout.
func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{client: &http.Client{Timeout: 30 * time.Second}}
}

func (e *HTTPExecutor) Type() string                 { return "http_request" }
func (e *HTTPExecutor) ConfigSchema() map[string]any { return nil }

func (e *HTTPExecutor) Run(ctx context.Context, config map[string]any, input map[string]any) (any, error) {
	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	url, _ := config["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http_request requires 'url'")
	}

	var bodyReader io.Reader
	if body, ok := config["body"]; ok && body != nil {
		switch b := body.(type) {
		case string:
			bodyReader = strings.NewReader(b)
		default:
			encoded, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("encode request body: %w", err)
			}
			bodyReader = bytes.NewReader(encoded)
		}
	}

	client := e.client
	if secs, ok := config["timeoutSeconds"].(float64); ok && secs > 0 {
		client = &http.Client{Timeout: time.Duration(secs * float64(time.Second))}
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if headers, ok := config["headers"].(map[string]any); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}
	if _, set := req.Header["Content-Type"]; !set && bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsedBody any
	if len(raw) > 0 && json.Valid(raw) {
		_ = json.Unmarshal(raw, &parsedBody)
	} else {
		parsedBody = string(raw)
	}

	return map[string]any{
		"statusCode": resp.StatusCode,
		"headers":    flattenHeader(resp.Header),
		"body":       parsedBody,
	}, nil
}

func flattenHeader(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, v := range h {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}
