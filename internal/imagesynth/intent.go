package imagesynth

// intent.go reduces slots to deduplicated intents. The key is a coarse,
// text-based signature: equivalent alt text and aspect in the same app
// context count as the same visual need even if final pixels could differ.
// The hash function is kept separate so a stronger matcher (embeddings,
// perceptual similarity) can replace it without touching scheduling.

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// intentKey hashes the semantic signals of a slot into its dedup key.
func intentKey(appSignature, stylePreset, platform, basis, aspect string) string {
	sum := sha1.Sum([]byte(strings.Join([]string{appSignature, stylePreset, platform, basis, aspect}, "|")))
	return hex.EncodeToString(sum[:])
}

// dedupeIntents walks slots in extraction order and keeps the first slot of
// each intent key as the canonical record. First-appearance order is
// preserved so the maxImages cap always favors earlier screens.
func dedupeIntents(slots []ImageSlot) []*Intent {
	seen := make(map[string]*Intent, len(slots))
	var intents []*Intent
	for i := range slots {
		s := &slots[i]
		if _, ok := seen[s.IntentKey]; ok {
			continue
		}
		in := &Intent{
			Key:         s.IntentKey,
			ScreenName:  s.ScreenName,
			Alt:         s.Alt,
			Aspect:      s.Aspect,
			Prompt:      s.Prompt,
			Generate:    s.Generate,
			OriginalSrc: s.Src,
		}
		seen[s.IntentKey] = in
		intents = append(intents, in)
	}
	return intents
}
