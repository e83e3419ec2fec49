package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBody = 1 << 20

// HTTPConfig is the shape of providers.config for KindHTTP.
type HTTPConfig struct {
	BaseURL        string            `json:"base_url"`
	Path           string            `json:"path"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	AuthHeader     string            `json:"auth_header"`
	ReferenceField string            `json:"reference_field"`
}

// HTTPAdapter posts the request as JSON and treats a 2xx response carrying
// a reference as success.
type HTTPAdapter struct {
	client *http.Client
	keys   *KeyBox
}

func NewHTTPAdapter(timeout time.Duration, keys *KeyBox) *HTTPAdapter {
	return &HTTPAdapter{
		client: &http.Client{Timeout: timeout},
		keys:   keys,
	}
}

func (a *HTTPAdapter) Fulfill(ctx context.Context, p Provider, req Request) (*Result, error) {
	cfg, err := parseHTTPConfig(p)
	if err != nil {
		return nil, &CallError{Message: err.Error(), Err: err}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &CallError{Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, cfg.Method, strings.TrimRight(cfg.BaseURL, "/")+cfg.Path, bytes.NewReader(payload))
	if err != nil {
		return nil, &CallError{Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	if p.APIKeyEncrypted != "" && a.keys != nil {
		key, err := a.keys.Open(p.APIKeyEncrypted)
		if err != nil {
			return nil, &CallError{Message: "decrypt provider api key", Err: err}
		}
		httpReq.Header.Set(cfg.AuthHeader, key)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			timeout = true
		}
		msg := err.Error()
		if timeout {
			msg = "provider timed out"
		}
		return nil, &CallError{Message: msg, Timeout: timeout, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &CallError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	raw := asJSON(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CallError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Response:   raw,
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &CallError{StatusCode: resp.StatusCode, Message: "response is not a JSON object", Response: raw, Err: err}
	}
	ref, _ := decoded[cfg.ReferenceField].(string)
	if ref == "" {
		return nil, &CallError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response missing %q", cfg.ReferenceField),
			Response:   raw,
		}
	}

	return &Result{Reference: ref, StatusCode: resp.StatusCode, Response: raw}, nil
}

func parseHTTPConfig(p Provider) (HTTPConfig, error) {
	var cfg HTTPConfig
	if len(p.Config) > 0 {
		if err := p.Config.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("provider %s: invalid config: %w", p.Name, err)
		}
	}
	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("provider %s: base_url is required", p.Name)
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "Authorization"
	}
	if cfg.ReferenceField == "" {
		cfg.ReferenceField = "reference"
	}
	return cfg, nil
}

// asJSON keeps provider_logs.response valid JSONB even when the upstream
// answers with plain text.
func asJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
