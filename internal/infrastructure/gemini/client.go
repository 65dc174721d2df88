// Package gemini implements the vision inference client on the Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/shopsnap/backend/internal/domain"
)

// Ensure Client implements domain.VisionClient
var _ domain.VisionClient = (*Client)(nil)

// Client handles communication with the Gemini generateContent API.
// Each identification is exactly one round trip: there is no retry loop,
// so a failed call surfaces immediately and the engine downgrades it to
// a rejection.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Gemini API client. requestsPerMinute bounds
// outbound calls; values <= 0 fall back to 60.
func NewClient(apiKey, baseURL, model string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		rateLimiter: limiter,
	}
}

// SetDebug toggles verbose request logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	InlineData *inlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"response_mime_type"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateMatch submits one JPEG image and a text prompt, asking the
// model for a JSON reply, and returns the first candidate's text.
func (c *Client) GenerateMatch(ctx context.Context, imageJPEG []byte, prompt string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	reqBody := generateRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{InlineData: &inlineData{
					MIMEType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(imageJPEG),
				}},
				{Text: prompt},
			},
		}},
		GenerationConfig: generationConfig{ResponseMIMEType: "application/json"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	params := url.Values{}
	params.Add("key", c.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	if c.debug {
		slog.Debug("gemini request", "model", c.model, "image_bytes", len(imageJPEG), "prompt_len", len(prompt))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ShopSnap/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrVisionAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", domain.ErrVisionAPIFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn("gemini API error", "status", resp.StatusCode, "body", truncate(string(body), 200))
		return "", fmt.Errorf("%w: status %d", domain.ErrVisionAPIFailure, resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", domain.ErrVisionAPIFailure, err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", domain.ErrVisionAPIFailure)
	}

	text := genResp.Candidates[0].Content.Parts[0].Text
	if c.debug {
		slog.Debug("gemini reply", "text", truncate(text, 200))
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
