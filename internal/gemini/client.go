// Package gemini is a thin client for the hosted language-model API.
package gemini

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

	"sekretarz/internal/domain"
)

const (
	DefaultModel = "gemini-2.0-flash"

	defaultBaseURL = "https://generativelanguage.googleapis.com"
	requestTimeout = 30 * time.Second

	temperature     = 0.6
	maxOutputTokens = 1024

	noCandidatesText = "Model nie zwrócił żadnej odpowiedzi."
	emptyReplyText   = "Model zwrócił pustą odpowiedź."
)

// ErrMissingAPIKey means no credential is configured; Complete returns
// it without calling out.
var ErrMissingAPIKey = errors.New("gemini: missing GEMINI_API_KEY")

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithBaseURL(apiKey, model, defaultBaseURL)
}

func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Complete sends an optional system instruction plus the conversation
// turns and returns the first candidate's first text part. Missing
// candidates or parts degrade to fixed fallback strings, not errors.
func (c *Client) Complete(ctx context.Context, system string, turns []domain.Turn) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", ErrMissingAPIKey
	}

	req := generateRequest{
		Contents: make([]content, 0, len(turns)),
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}
	if strings.TrimSpace(system) != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	for _, turn := range turns {
		req.Contents = append(req.Contents, content{
			Role:  turn.Role,
			Parts: []part{{Text: turn.Text}},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		message := gjson.GetBytes(raw, "error.message").String()
		if message == "" {
			message = strings.TrimSpace(string(raw))
		}
		return "", fmt.Errorf("gemini: HTTP %d: %s", resp.StatusCode, message)
	}

	candidates := gjson.GetBytes(raw, "candidates")
	if !candidates.IsArray() || len(candidates.Array()) == 0 {
		return noCandidatesText, nil
	}
	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return emptyReplyText, nil
	}
	return text.String(), nil
}
