package imagesynth

// synth.go is the public entry point of the pipeline. One call covers the
// whole flow: extract slots, dedupe into intents, offer prompts to the
// planner, resolve intents under the scheduler, rewrite the screens and
// tally stats. Nothing in here is fatal except unusable input; generation
// and planner failures degrade to placeholders.

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mockweave/mockweave/internal/store"
)

// Synthesizer runs image synthesis calls against a fixed set of
// collaborators. planner and st may be nil: a nil planner skips prompt
// planning, a nil store disables cross-run reuse.
type Synthesizer struct {
	gen     Generator
	planner Planner
	store   store.Store
}

// New creates a Synthesizer. gen must be non-nil.
func New(gen Generator, planner Planner, st store.Store) *Synthesizer {
	return &Synthesizer{gen: gen, planner: planner, store: st}
}

// SynthesizeScreens resolves every placeholder image across the given
// screens and returns the rewritten screens plus accounting stats. The
// screens themselves are never mutated.
func (s *Synthesizer) SynthesizeScreens(ctx context.Context, screens []Screen, opts Options) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	log.Info().
		Str("run_id", runID).
		Int("screens", len(screens)).
		Str("style", opts.StylePreset).
		Str("platform", opts.Platform).
		Msg("Starting image synthesis")

	if s.store != nil {
		if err := s.store.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("Image cache load failed, continuing without prior state")
		}
	}

	slots := ExtractSlots(screens, opts)
	intents := dedupeIntents(slots)

	s.planPrompts(ctx, intents, opts)

	res := s.resolveIntents(ctx, intents, opts)

	stats := Stats{
		TotalSlots:      len(slots),
		UniqueIntents:   len(intents),
		ReusedWithinRun: len(slots) - len(intents),
	}
	for _, in := range intents {
		switch res.outcomes[in.Key] {
		case outcomeGenerated:
			stats.Generated++
		case outcomeReusedFromCache:
			stats.ReusedFromCache++
		default:
			// outcomeSkipped, or never resolved at all: either way the
			// slot keeps its placeholder and tallies as skipped.
			stats.Skipped++
		}
	}

	rewritten := rewriteScreens(screens, slots, res)

	// Flushed unconditionally: successful generations from a partially
	// failed batch are still worth persisting.
	if s.store != nil {
		if err := s.store.Flush(ctx); err != nil {
			log.Warn().Err(err).Msg("Image cache flush failed, generations not persisted")
		}
	}

	log.Info().
		Str("run_id", runID).
		Int("total_slots", stats.TotalSlots).
		Int("unique_intents", stats.UniqueIntents).
		Int("generated", stats.Generated).
		Int("reused_from_cache", stats.ReusedFromCache).
		Int("reused_within_run", stats.ReusedWithinRun).
		Int("skipped", stats.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Image synthesis complete")

	return &Result{Screens: rewritten, Stats: stats}, nil
}

// planPrompts offers the eligible intents to the prompt planner and
// overwrites their prompts with any returned rewrites. Best-effort only.
func (s *Synthesizer) planPrompts(ctx context.Context, intents []*Intent, opts Options) {
	if s.planner == nil || len(intents) == 0 {
		return
	}

	eligible := intents
	if limit := clampMaxImages(opts.MaxImages); len(eligible) > limit {
		eligible = eligible[:limit]
	}

	req := PlanRequest{
		AppPrompt:      opts.AppPrompt,
		Platform:       opts.Platform,
		StylePreset:    opts.StylePreset,
		PreferredModel: opts.PreferredModel,
		Intents:        make([]PlanIntent, 0, len(eligible)),
	}
	for _, in := range eligible {
		req.Intents = append(req.Intents, PlanIntent{
			ID:         in.Key,
			ScreenName: in.ScreenName,
			Alt:        in.Alt,
			Aspect:     in.Aspect,
			SrcHint:    truncate(in.OriginalSrc, 120),
		})
	}

	planned, err := s.planner.PlanPrompts(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("Prompt planning failed, using locally built prompts")
		return
	}
	updated := 0
	for _, in := range eligible {
		if p, ok := planned[in.Key]; ok && p != "" {
			in.Prompt = p
			updated++
		}
	}
	log.Debug().Int("planned", updated).Int("offered", len(eligible)).Msg("Prompt planning applied")
}

// truncate shortens s for hints and log fields.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
