package chat

// planner.go implements the batch prompt planner: one text call that
// rewrites the locally built generation prompts so images across screens
// share a coherent look. The pipeline treats every failure here as
// non-fatal and keeps its local prompts.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/mockweave/mockweave/internal/imagesynth"
	"github.com/mockweave/mockweave/internal/jsonutil"
)

// plannerSystemPrompt instructs the model to act as an art director for
// the whole batch rather than per-image.
const plannerSystemPrompt = `You are an art director preparing image generation prompts for a set of app mockup screens.
You receive the app description, target platform, style preset, and a list of image intents with their alt text and aspect ratio.
Rewrite each intent into one vivid, concrete image generation prompt that fits the app's style and keeps a consistent visual language across all intents.
Prompts must describe photographic or illustrative content only: no text, no watermarks, no logos, no UI chrome.
Respond with a JSON array only: [{"id": "<intent id>", "prompt": "<rewritten prompt>"}]. Keep every id exactly as given.`

// PlannerClient rewrites generation prompts via the Gemini SDK. It
// implements imagesynth.Planner.
type PlannerClient struct {
	client *genai.Client
	model  string
}

// NewPlannerClient creates a planner using the given Gemini client. An
// empty model selects the configured default text model.
func NewPlannerClient(client *genai.Client, model string) *PlannerClient {
	if model == "" {
		model = GetModelName()
	}
	return &PlannerClient{client: client, model: model}
}

// PlanPrompts sends the whole intent batch in one call and returns the
// rewritten prompt per intent id. Implements imagesynth.Planner.
func (p *PlannerClient) PlanPrompts(ctx context.Context, req imagesynth.PlanRequest) (map[string]string, error) {
	intentsJSON, err := json.MarshalIndent(req.Intents, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode intents: %w", err)
	}

	prompt := fmt.Sprintf(
		"App: %s\nPlatform: %s\nStyle preset: %s\n\nImage intents:\n%s",
		req.AppPrompt, req.Platform, req.StylePreset, intentsJSON,
	)

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: plannerSystemPrompt}},
		},
		ResponseMIMEType: "application/json",
	}

	log.Debug().
		Str("model", p.model).
		Int("intents", len(req.Intents)).
		Msg("Starting Gemini API call for prompt planning")

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("received empty response from Gemini API")
	}

	planned, err := parsePlanResponse(resp.Text())
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("planned", len(planned)).
		Dur("duration", time.Since(start)).
		Msg("Prompt planning response received")

	return planned, nil
}

// plannedPrompt is one id/prompt pair in the planner's JSON response.
type plannedPrompt struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// parsePlanResponse decodes the planner's JSON array, tolerating markdown
// fences and surrounding prose. Pairs with empty ids or prompts are
// dropped rather than reported.
func parsePlanResponse(raw string) (map[string]string, error) {
	pairs, err := jsonutil.ParseJSON[[]plannedPrompt](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse planner response: %w", err)
	}

	planned := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		if pair.ID != "" && pair.Prompt != "" {
			planned[pair.ID] = pair.Prompt
		}
	}
	if len(planned) == 0 {
		return nil, fmt.Errorf("planner response contained no usable prompts")
	}
	return planned, nil
}
