package imagesynth

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mockweave/mockweave/internal/store"
)

// fakePlanner returns a fixed prompt map, or an error.
type fakePlanner struct {
	prompts map[string]string
	err     error
	lastReq PlanRequest
}

func (p *fakePlanner) PlanPrompts(ctx context.Context, req PlanRequest) (map[string]string, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]string)
	for _, in := range req.Intents {
		if prompt, ok := p.prompts[in.Alt]; ok {
			out[in.ID] = prompt
		}
	}
	return out, nil
}

func testScreens() []Screen {
	return []Screen{
		{
			Name: "Home",
			HTML: `<div><img src="https://placehold.net/600x400.png" alt="mountain lake at dawn"><img src="https://placehold.net/601x401.png" alt="mountain lake at dawn"></div>`,
		},
		{
			Name: "Detail",
			HTML: `<section><img src="https://placehold.net/602x402.png" alt="mountain lake at dawn"></section>`,
		},
	}
}

func testOptions() Options {
	return Options{
		AppPrompt:   "A hiking trip planner for weekend trips in the alps",
		StylePreset: "photorealistic",
		Platform:    "mobile",
		MaxImages:   5,
	}
}

func TestSynthesizeScreensDedupesAcrossScreens(t *testing.T) {
	gen := &countingGenerator{src: "data:image/png;base64,GENERATED"}
	s := New(gen, nil, nil)

	result, err := s.SynthesizeScreens(context.Background(), testScreens(), testOptions())
	if err != nil {
		t.Fatalf("SynthesizeScreens: %v", err)
	}

	want := Stats{
		TotalSlots:      3,
		UniqueIntents:   1,
		Generated:       1,
		ReusedWithinRun: 2,
	}
	if result.Stats != want {
		t.Errorf("stats = %+v, want %+v", result.Stats, want)
	}
	if gen.callCount() != 1 {
		t.Errorf("expected exactly 1 generation call, got %d", gen.callCount())
	}
	for _, sc := range result.Screens {
		if !strings.Contains(sc.HTML, `src="data:image/png;base64,GENERATED"`) {
			t.Errorf("screen %q not rewritten: %s", sc.Name, sc.HTML)
		}
		if strings.Contains(sc.HTML, "placehold.net") {
			t.Errorf("screen %q still holds a placeholder: %s", sc.Name, sc.HTML)
		}
	}
}

func TestSynthesizeScreensReusesCacheAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "image-cache.json")

	gen := &countingGenerator{src: "data:image/png;base64,FIRST"}
	first := New(gen, nil, store.NewFileStore(path))
	if _, err := first.SynthesizeScreens(ctx, testScreens(), testOptions()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if gen.callCount() != 1 {
		t.Fatalf("first run generation calls = %d, want 1", gen.callCount())
	}

	gen2 := &countingGenerator{src: "data:image/png;base64,SECOND"}
	second := New(gen2, nil, store.NewFileStore(path))
	result, err := second.SynthesizeScreens(ctx, testScreens(), testOptions())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if gen2.callCount() != 0 {
		t.Errorf("second run should not generate, got %d calls", gen2.callCount())
	}
	if result.Stats.Generated != 0 || result.Stats.ReusedFromCache != 1 {
		t.Errorf("second run stats = %+v", result.Stats)
	}
	for _, sc := range result.Screens {
		if !strings.Contains(sc.HTML, "FIRST") {
			t.Errorf("cached src not reused in screen %q: %s", sc.Name, sc.HTML)
		}
	}

	// cache hits bump the usage counter durably
	reload := store.NewFileStore(path)
	if err := reload.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	slots := ExtractSlots(testScreens(), testOptions())
	entry, ok := reload.Get(slots[0].IntentKey)
	if !ok {
		t.Fatal("cache entry missing after second run")
	}
	if entry.Uses < 2 {
		t.Errorf("uses = %d, want at least 2", entry.Uses)
	}
}

func TestSynthesizeScreensFailureKeepsPlaceholder(t *testing.T) {
	gen := &countingGenerator{err: fmt.Errorf("quota exhausted")}
	s := New(gen, nil, nil)

	screens := []Screen{{
		Name: "Home",
		HTML: `<img src="https://placehold.net/600x400.png" alt="city skyline">`,
	}}
	result, err := s.SynthesizeScreens(context.Background(), screens, testOptions())
	if err != nil {
		t.Fatalf("SynthesizeScreens: %v", err)
	}

	if result.Stats.Generated != 0 || result.Stats.Skipped != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if !strings.Contains(result.Screens[0].HTML, `src="https://placehold.net/600x400.png"`) {
		t.Errorf("placeholder not preserved: %s", result.Screens[0].HTML)
	}
}

func TestSynthesizeScreensEmbeddedContentUntouched(t *testing.T) {
	gen := &countingGenerator{}
	s := New(gen, nil, nil)

	screens := []Screen{{
		Name: "Home",
		HTML: `<img src="data:image/svg+xml;base64,PHN2Zz4=" alt="logo">`,
	}}
	result, err := s.SynthesizeScreens(context.Background(), screens, testOptions())
	if err != nil {
		t.Fatalf("SynthesizeScreens: %v", err)
	}

	if gen.callCount() != 0 {
		t.Errorf("embedded image should not be generated, got %d calls", gen.callCount())
	}
	if result.Screens[0].HTML != screens[0].HTML {
		t.Errorf("embedded image rewritten: %s", result.Screens[0].HTML)
	}
	if result.Stats.Skipped != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
}

func TestSynthesizeScreensAppliesPlannedPrompts(t *testing.T) {
	gen := &countingGenerator{src: "data:image/png;base64,X"}
	planner := &fakePlanner{prompts: map[string]string{
		"mountain lake at dawn": "misty alpine lake, dawn light, wide shot",
	}}
	s := New(gen, planner, nil)

	if _, err := s.SynthesizeScreens(context.Background(), testScreens(), testOptions()); err != nil {
		t.Fatalf("SynthesizeScreens: %v", err)
	}

	if len(planner.lastReq.Intents) != 1 {
		t.Fatalf("planner offered %d intents, want 1", len(planner.lastReq.Intents))
	}
	if gen.callCount() != 1 {
		t.Fatalf("generation calls = %d, want 1", gen.callCount())
	}
	if got := gen.prompts[0]; got != "misty alpine lake, dawn light, wide shot" {
		t.Errorf("planned prompt not used, generator saw %q", got)
	}
}

func TestSynthesizeScreensPlannerFailureFallsBack(t *testing.T) {
	gen := &countingGenerator{src: "data:image/png;base64,X"}
	planner := &fakePlanner{err: fmt.Errorf("model unavailable")}
	s := New(gen, planner, nil)

	result, err := s.SynthesizeScreens(context.Background(), testScreens(), testOptions())
	if err != nil {
		t.Fatalf("SynthesizeScreens: %v", err)
	}

	if result.Stats.Generated != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if got := gen.prompts[0]; !strings.Contains(got, "mountain lake at dawn") {
		t.Errorf("local prompt not used after planner failure: %q", got)
	}
}

func TestSynthesizeScreensNoImages(t *testing.T) {
	gen := &countingGenerator{}
	s := New(gen, nil, nil)

	screens := []Screen{{Name: "Empty", HTML: "<div><p>no images here</p></div>"}}
	result, err := s.SynthesizeScreens(context.Background(), screens, testOptions())
	if err != nil {
		t.Fatalf("SynthesizeScreens: %v", err)
	}
	if result.Stats != (Stats{}) {
		t.Errorf("stats = %+v, want zero", result.Stats)
	}
	if result.Screens[0].HTML != screens[0].HTML {
		t.Error("screen without images should be unchanged")
	}
}
