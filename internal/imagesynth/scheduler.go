package imagesynth

// scheduler.go resolves each unique intent to a final image source. The
// first maxImages intents are eligible for active generation and are
// worked by a fixed pool of goroutines sharing one cursor; the remainder
// are resolved passively from cache or original sources. Generation
// failures degrade to the slot's original source and never abort a batch.

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mockweave/mockweave/internal/store"
)

// outcome is what happened to one intent, for the final stats tally.
type outcome int

const (
	outcomeNone outcome = iota
	outcomeGenerated
	outcomeReusedFromCache
	outcomeSkipped
)

// resolution collects per-intent results across workers. A mutex guards the
// maps: workers own disjoint intents, but they all write here.
type resolution struct {
	mu       sync.Mutex
	srcs     map[string]string
	outcomes map[string]outcome
}

func (r *resolution) record(key, src string, o outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if src != "" {
		r.srcs[key] = src
	}
	r.outcomes[key] = o
}

// clampMaxImages bounds how many intents are actively generated.
func clampMaxImages(n int) int {
	if n == 0 {
		n = DefaultMaxImages
	}
	if n < 1 {
		return 1
	}
	if n > MaxImagesCeiling {
		return MaxImagesCeiling
	}
	return n
}

// clampConcurrency bounds in-flight generation calls.
func clampConcurrency(n int) int {
	if n == 0 {
		n = DefaultConcurrency
	}
	if n < 1 {
		return 1
	}
	if n > ConcurrencyCeiling {
		return ConcurrencyCeiling
	}
	return n
}

// resolveIntents runs the scheduler over all intents and returns the
// intent→src map plus the per-intent outcomes. st may be nil, which
// disables caching entirely.
func (s *Synthesizer) resolveIntents(ctx context.Context, intents []*Intent, opts Options) *resolution {
	maxImages := clampMaxImages(opts.MaxImages)
	concurrency := clampConcurrency(opts.Concurrency)

	eligible := intents
	if len(eligible) > maxImages {
		eligible = eligible[:maxImages]
	}

	res := &resolution{
		srcs:     make(map[string]string, len(intents)),
		outcomes: make(map[string]outcome, len(intents)),
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(eligible) {
					return
				}
				s.resolveOne(ctx, eligible[i], opts, res)
			}
		}()
	}
	wg.Wait()

	// Intents beyond the cap never reach the generator; they still reuse
	// cached results or fall back to whatever source they came with.
	for _, in := range intents[len(eligible):] {
		s.resolvePassive(in, res)
	}

	return res
}

// resolveOne handles a single eligible intent: already-embedded content is
// passed through, then the cache is consulted, then the generator.
func (s *Synthesizer) resolveOne(ctx context.Context, in *Intent, opts Options, res *resolution) {
	if !in.Generate {
		if in.OriginalSrc != "" {
			res.record(in.Key, in.OriginalSrc, outcomeSkipped)
		}
		return
	}

	if s.store != nil {
		if entry, ok := s.store.Get(in.Key); ok {
			uses := s.store.Touch(in.Key)
			log.Debug().Str("intent", in.Key).Int("uses", uses).Msg("Image cache hit")
			res.record(in.Key, entry.Src, outcomeReusedFromCache)
			return
		}
	}

	start := time.Now()
	result, err := s.gen.Generate(ctx, GenerationRequest{
		Prompt:         in.Prompt,
		PreferredModel: opts.PreferredModel,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("intent", in.Key).
			Str("screen", in.ScreenName).
			Dur("duration", time.Since(start)).
			Msg("Image generation failed, falling back to original source")
		res.record(in.Key, in.OriginalSrc, outcomeSkipped)
		return
	}

	log.Debug().
		Str("intent", in.Key).
		Str("model", result.ModelUsed).
		Dur("duration", time.Since(start)).
		Msg("Image generated")

	if s.store != nil {
		s.store.Put(in.Key, store.Entry{
			Src:       result.Src,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			Uses:      1,
			Prompt:    in.Prompt,
		})
	}
	res.record(in.Key, result.Src, outcomeGenerated)
}

// resolvePassive handles an intent past the maxImages cap.
func (s *Synthesizer) resolvePassive(in *Intent, res *resolution) {
	if in.Generate && s.store != nil {
		if entry, ok := s.store.Get(in.Key); ok {
			s.store.Touch(in.Key)
			res.record(in.Key, entry.Src, outcomeReusedFromCache)
			return
		}
	}
	if in.OriginalSrc != "" {
		res.record(in.Key, in.OriginalSrc, outcomeSkipped)
	}
}
