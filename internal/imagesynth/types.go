// Package imagesynth resolves placeholder <img> tags in generated mockup
// screens to real image sources. It deduplicates visually-equivalent slots
// into intents, reuses previously generated images from a persistent cache,
// generates at most one image per new intent under a bounded worker pool,
// and rewrites each screen's HTML with the resolved sources.
package imagesynth

import "context"

// Aspect buckets assignable to a slot. Ratios are bucketed to the nearest
// of these so that near-identical placeholder dimensions dedupe together.
const (
	Aspect16x9 = "16:9"
	Aspect4x3  = "4:3"
	Aspect3x2  = "3:2"
	Aspect1x1  = "1:1"
	Aspect4x5  = "4:5"
	Aspect9x16 = "9:16"
)

// Limits for the generation scheduler. Out-of-range options are clamped,
// never rejected.
const (
	DefaultMaxImages   = 12
	MaxImagesCeiling   = 30
	DefaultConcurrency = 2
	ConcurrencyCeiling = 6
)

// Screen is one mockup screen as supplied by the upstream screen provider.
// The pipeline never creates or validates screens; HTML is treated as an
// opaque snapshot that must not change between extraction and rewrite.
type Screen struct {
	ID     string `json:"screenId,omitempty"`
	Name   string `json:"name"`
	HTML   string `json:"html"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Options configures one synthesis call.
type Options struct {
	// AppPrompt is the user's original app description; its leading words
	// scope intent keys so different apps never share cached images.
	AppPrompt   string
	StylePreset string
	Platform    string

	// PreferredModel is passed through to the image generator.
	PreferredModel string

	// MaxImages bounds how many unique intents are actively generated.
	// Zero means DefaultMaxImages; clamped to [1, MaxImagesCeiling].
	MaxImages int

	// Concurrency bounds in-flight generation calls. Zero means
	// DefaultConcurrency; clamped to [1, ConcurrencyCeiling].
	Concurrency int
}

// ImageSlot is one <img> occurrence in a screen. Slots live only for the
// duration of a single synthesis call and are never persisted.
type ImageSlot struct {
	SlotID      string // "{screenIndex}:{imgIndex}"
	ScreenIndex int
	ImgIndex    int
	ScreenName  string // diagnostic only
	Src         string
	Alt         string
	Aspect      string
	IntentKey   string
	Prompt      string
	Generate    bool
}

// Intent is the canonical record for all slots sharing an intent key,
// taken from the first-seen slot. First-appearance order is preserved.
type Intent struct {
	Key         string
	ScreenName  string
	Alt         string
	Aspect      string
	Prompt      string
	Generate    bool
	OriginalSrc string
}

// Stats accounts for what happened to every slot in one call. Each unique
// intent lands in exactly one of Generated, ReusedFromCache or Skipped;
// duplicate slots of an already-seen intent count only in ReusedWithinRun.
type Stats struct {
	TotalSlots      int `json:"totalSlots"`
	UniqueIntents   int `json:"uniqueIntents"`
	Generated       int `json:"generated"`
	ReusedFromCache int `json:"reusedFromCache"`
	ReusedWithinRun int `json:"reusedWithinRun"`
	Skipped         int `json:"skipped"`
}

// Result is the outcome of one synthesis call: the screens with rewritten
// HTML, in input order, plus the accounting stats.
type Result struct {
	Screens []Screen `json:"screens"`
	Stats   Stats    `json:"stats"`
}

// GenerationRequest asks the image generator for one image.
type GenerationRequest struct {
	Prompt         string
	PreferredModel string
}

// GenerationResult is a successfully generated image. Src is either a
// data URI or a remote URL, usable directly as an <img> src.
type GenerationResult struct {
	Src         string
	ModelUsed   string
	Description string
}

// Generator produces images. Errors are soft: the scheduler falls back to
// the slot's original source and moves on.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// PlanIntent describes one intent to the prompt planner.
type PlanIntent struct {
	ID         string `json:"id"`
	ScreenName string `json:"screenName"`
	Alt        string `json:"alt"`
	Aspect     string `json:"aspect"`
	SrcHint    string `json:"srcHint"`
}

// PlanRequest is the batch input to the prompt planner.
type PlanRequest struct {
	AppPrompt      string
	Platform       string
	StylePreset    string
	PreferredModel string
	Intents        []PlanIntent
}

// Planner rewrites generation prompts for nicer cross-screen consistency.
// The call is best-effort: any error leaves the locally built prompts in
// place and never fails the pipeline.
type Planner interface {
	PlanPrompts(ctx context.Context, req PlanRequest) (map[string]string, error)
}
