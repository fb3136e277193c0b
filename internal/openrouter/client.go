package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tobiaswld/chatdesk/internal/utils"
)

const (
	defaultTimeout = 30 * time.Second
	defaultModel   = "gpt-4o-mini"

	// systemInstruction is sent with every completion request. Conversation
	// history is not forwarded upstream.
	systemInstruction = "You are a helpful customer support assistant."
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ChatMessage mirrors OpenAI-compatible chat message payloads.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatAPIRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatAPIResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Error *apiError `json:"error,omitempty"`
}

// Client calls an OpenAI-compatible chat completion endpoint with a fixed
// model and bearer credential.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  httpDoer
	logger  *zap.SugaredLogger
}

func NewClient(cfg utils.OpenRouterConfig, logger *zap.SugaredLogger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Complete forwards the user text to the provider and returns the first
// completion choice. A well-formed HTTP success with an unexpected body shape
// degrades to the raw payload instead of failing.
func (c *Client) Complete(ctx context.Context, userText string) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", fmt.Errorf("openrouter: user message cannot be empty")
	}

	payload := chatAPIRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userText},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openrouter: marshal payload: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openrouter: create request: %w", err)
	}

	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("openrouter: call completion api: %w", err)
	}
	defer response.Body.Close()

	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("openrouter: read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", buildAPIError(response.StatusCode, respBody)
	}

	var apiResp chatAPIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		c.logger.Warnw("completion response not decodable, returning raw payload", "error", err)
		return string(respBody), nil
	}

	if apiResp.Error != nil && apiResp.Error.Message != "" {
		return "", fmt.Errorf("openrouter: completion error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		c.logger.Warnw("completion response missing choices, returning raw payload")
		return string(respBody), nil
	}

	return apiResp.Choices[0].Message.Content, nil
}

func buildAPIError(statusCode int, body []byte) error {
	if apiErr := decodeAPIError(body); apiErr != nil {
		if apiErr.Code != "" && apiErr.Message != "" {
			return fmt.Errorf("openrouter: api error (%d, %s): %s", statusCode, apiErr.Code, apiErr.Message)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("openrouter: api error (%d): %s", statusCode, apiErr.Message)
		}
		if apiErr.Code != "" {
			return fmt.Errorf("openrouter: api error (%d, %s)", statusCode, apiErr.Code)
		}
	}

	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		snippet = http.StatusText(statusCode)
	}
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}

	return fmt.Errorf("openrouter: api error (%d): %s", statusCode, snippet)
}

func decodeAPIError(body []byte) *apiError {
	if len(body) == 0 {
		return nil
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	if envelope.Error == nil {
		return nil
	}

	envelope.Error.Message = strings.TrimSpace(envelope.Error.Message)
	return envelope.Error
}
