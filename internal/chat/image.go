package chat

// image.go provides a REST API client for Gemini image generation. It uses
// direct HTTP calls instead of the Go SDK because image output support in
// the SDK lags the REST surface. The generated image is returned as a data
// URI so screens stay self-contained without an asset server.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mockweave/mockweave/internal/imagesynth"
)

// geminiBaseURL is the Gemini REST API base URL.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ImageClient calls a Gemini image model via the REST API. It implements
// imagesynth.Generator.
type ImageClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewImageClient creates a client for Gemini image generation. An empty
// model selects the configured default.
func NewImageClient(apiKey, model string) *ImageClient {
	if model == "" {
		model = GetImageModelName()
	}
	return &ImageClient{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Image generation can take 10-30s
		},
	}
}

// --- REST API request/response types ---

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobData `json:"inlineData,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiBlobData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate produces one image for the request's prompt and returns it as a
// data URI. Implements imagesynth.Generator.
func (c *ImageClient) Generate(ctx context.Context, req imagesynth.GenerationRequest) (*imagesynth.GenerationResult, error) {
	model := req.PreferredModel
	if model == "" {
		model = c.model
	}

	start := time.Now()
	log.Debug().
		Str("model", model).
		Str("prompt", truncateString(req.Prompt, 100)).
		Msg("Sending prompt to Gemini for image generation")

	apiReq := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", geminiBaseURL, model, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Gemini image generation API returned error")
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateString(string(respBody), 200))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if geminiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s (code: %d)", geminiResp.Error.Message, geminiResp.Error.Code)
	}

	// Extract the first inline image; any text parts become the description.
	var src, description string
	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && src == "" {
				src = fmt.Sprintf("data:%s;base64,%s", part.InlineData.MIMEType, part.InlineData.Data)
			}
			if part.Text != "" {
				description += part.Text
			}
		}
	}

	if src == "" {
		return nil, fmt.Errorf("no image returned in response (text: %s)", truncateString(description, 200))
	}

	log.Debug().
		Str("model", model).
		Int("src_bytes", len(src)).
		Dur("duration", time.Since(start)).
		Msg("Image generated via Gemini")

	return &imagesynth.GenerationResult{
		Src:         src,
		ModelUsed:   model,
		Description: description,
	}, nil
}
