package invoke

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPInvoker invokes a function by POSTing its input to a per-function URL,
// for local or simulated functions fronted by a plain HTTP endpoint. The
// shape mirrors the teacher's HTTP executor: a shared *http.Client with a
// fixed timeout, request construction from context, and body/status
// handling.
type HTTPInvoker struct {
	client *http.Client

	// Endpoints maps function name to the URL it should be invoked at.
	Endpoints map[string]string
}

// NewHTTPInvoker builds an HTTPInvoker with a 30s request timeout, matching
// the teacher's HTTP executor default.
func NewHTTPInvoker(endpoints map[string]string) *HTTPInvoker {
	return &HTTPInvoker{
		client:    &http.Client{Timeout: 30 * time.Second},
		Endpoints: endpoints,
	}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, functionName string, input string) (string, error) {
	url, ok := h.Endpoints[functionName]
	if !ok {
		return "", fmt.Errorf("http invoker: no endpoint configured for function %s", functionName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(input)))
	if err != nil {
		return "", fmt.Errorf("http invoker: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http invoker: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("http invoker: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("http invoker: %s returned HTTP %d: %s", functionName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}
