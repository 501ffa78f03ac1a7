package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const requestTimeout = 10 * time.Second

// client calls the bridge's HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: requestTimeout},
	}
}

// APIError is a non-2xx answer from the bridge.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("bridge returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("bridge returned %d (%s): %s", e.Status, e.Type, e.Message)
}

func (c *client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apiError(resp.StatusCode, data)
	}
	return data, nil
}

func apiError(status int, body []byte) error {
	if !gjson.ValidBytes(body) {
		return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	parsed := gjson.ParseBytes(body)
	msg := parsed.Get("error").String()
	if msg == "" {
		msg = parsed.Get("message").String()
	}
	return &APIError{Status: status, Type: parsed.Get("type").String(), Message: msg}
}

func (c *client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// eventsURL is the websocket endpoint derived from the base URL. Named
// events are passed on so the bridge only sends those.
func (c *client) eventsURL(only []string) (string, error) {
	var target string
	switch {
	case strings.HasPrefix(c.base, "http://"):
		target = "ws://" + strings.TrimPrefix(c.base, "http://") + eventsPath
	case strings.HasPrefix(c.base, "https://"):
		target = "wss://" + strings.TrimPrefix(c.base, "https://") + eventsPath
	default:
		return "", errors.New("bridge URL must start with http:// or https://")
	}
	if len(only) > 0 {
		target += "?" + url.Values{"events": {strings.Join(only, ",")}}.Encode()
	}
	return target, nil
}

// printJSON writes data indented, or as-is when it is not JSON.
func printJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, werr := w.Write(data)
		return werr
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
