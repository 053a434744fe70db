// Package vision calls the OpenAI-compatible chat-completions endpoint
// of the vision-language service that classifies cloud photos.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUpstream reports that the vision service answered with a non-200
// status. The wrapped message carries the upstream detail.
var ErrUpstream = errors.New("vision service unavailable")

// IsTimeout reports whether err came from the request deadline rather
// than the upstream service itself.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

const maxTokens = 4000

// Client is a thin HTTP client for one chat-completions endpoint.
type Client struct {
	apiURL string
	apiKey string
	model  string
	http   *http.Client
}

func NewClient(apiURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Describe sends one image with the instruction prompt and returns the
// raw completion text.
func (c *Client) Describe(ctx context.Context, imageBase64, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []message{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "image_url", ImageURL: &imageURL{URL: imageBase64}},
					{Type: "text", Text: prompt},
				},
			},
		},
		MaxTokens: maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading vision response: %w", err)
	}

	var parsed chatResponse
	if resp.StatusCode != http.StatusOK {
		detail := ""
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != nil {
			detail = parsed.Error.Message
		}
		if detail == "" {
			detail = resp.Status
		}
		return "", fmt.Errorf("%w: %s", ErrUpstream, detail)
	}

	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding vision response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}

	return parsed.Choices[0].Message.Content, nil
}
