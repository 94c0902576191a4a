// Package drive talks to the remote spreadsheet-script backend that
// acts as a folder/file store. The wire protocol is a single POST
// endpoint taking {"action": ..., ...params} and answering
// {"status": "ok"|"error", ...}.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultBaseURL points at the deployed Apps Script web app.
const DefaultBaseURL = "https://script.google.com/macros/s/AKfycbyPNzgEED6YmbmLCDdHQqMUny-jE6ZXskF6NTIiOswbfmD5w6u5uTKULHceLRsFlmAfwg/exec"

const StatusOK = "ok"

// Result carries the backend's reply. Raw holds the body verbatim so
// success responses can be passed through unmodified.
type Result struct {
	Status  string
	Message string
	Raw     json.RawMessage
}

// StatusError is a non-"ok" backend reply or a name-resolution miss.
// Raw keeps the full envelope so it can be surfaced unchanged.
type StatusError struct {
	Status  string
	Message string
	Raw     json.RawMessage
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func newStatusError(res Result) *StatusError {
	return &StatusError{Status: res.Status, Message: res.Message, Raw: res.Raw}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a backend client. The HTTP client carries no
// timeout: the script backend is slow and calls are expected to block
// the handler for their full duration.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Call performs one backend action. params may be nil.
func (c *Client) Call(ctx context.Context, action string, params map[string]interface{}) (Result, error) {
	payload := map[string]interface{}{"action": action}
	for key, value := range params {
		payload[key] = value
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("drive: encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("drive: build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("drive: %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("drive: read %s response: %w", action, err)
	}

	var envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Result{}, fmt.Errorf("drive: %s returned HTTP %d with a non-JSON body", action, resp.StatusCode)
	}
	return Result{Status: envelope.Status, Message: envelope.Message, Raw: raw}, nil
}
