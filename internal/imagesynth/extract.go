package imagesynth

// extract.go walks each screen's HTML and emits one ImageSlot per <img>
// tag in document order. The same raw-byte scan is reused by rewrite.go,
// which is what keeps extraction and rewrite positionally aligned: both
// passes must see the identical HTML snapshot.

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// imgTag is one raw <img ...> occurrence: its byte span within the screen
// HTML and its parsed attributes (names lower-cased by the tokenizer).
type imgTag struct {
	start, end int
	attrs      []html.Attribute
}

// scanImgTags tokenizes doc and calls visit for every <img> start or
// self-closing tag in document order, with its raw byte span. Bytes outside
// img tags are never inspected, so malformed surrounding markup is fine.
func scanImgTags(doc string, visit func(index int, tag imgTag)) {
	tz := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	index := 0
	for {
		tt := tz.Next()
		raw := tz.Raw()
		if tt == html.ErrorToken {
			// io.EOF or unrecoverable markup; either way the walk is done.
			return
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok := tz.Token()
			if tok.DataAtom == atom.Img {
				visit(index, imgTag{start: offset, end: offset + len(raw), attrs: tok.Attr})
				index++
			}
		}
		offset += len(raw)
	}
}

// attrMap flattens tag attributes into a lookup map. Duplicate attribute
// names keep the first occurrence, matching browser behavior.
func attrMap(attrs []html.Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if _, ok := m[a.Key]; !ok {
			m[a.Key] = a.Val
		}
	}
	return m
}

// slotID identifies a slot by position within one run. Never persisted.
func slotID(screenIndex, imgIndex int) string {
	return fmt.Sprintf("%d:%d", screenIndex, imgIndex)
}

// ExtractSlots scans every screen and returns all image slots in document
// order, with aspect, intent key, default prompt and generate flag derived.
func ExtractSlots(screens []Screen, opts Options) []ImageSlot {
	appSig := appSignature(opts.AppPrompt)
	var slots []ImageSlot
	for si, screen := range screens {
		scanImgTags(screen.HTML, func(ii int, tag imgTag) {
			attrs := attrMap(tag.attrs)
			src := attrs["src"]
			alt := attrs["alt"]
			aspect := deriveAspect(attrs)
			slots = append(slots, ImageSlot{
				SlotID:      slotID(si, ii),
				ScreenIndex: si,
				ImgIndex:    ii,
				ScreenName:  screen.Name,
				Src:         src,
				Alt:         alt,
				Aspect:      aspect,
				IntentKey:   intentKey(appSig, opts.StylePreset, opts.Platform, basis(alt, src), aspect),
				Prompt:      buildPrompt(alt, opts.StylePreset),
				Generate:    needsGeneration(src),
			})
		})
	}
	return slots
}

// needsGeneration reports whether the slot still holds placeholder content.
// Embedded data URIs and blob URLs are real content and are left intact.
func needsGeneration(src string) bool {
	return !strings.HasPrefix(src, "data:image/") && !strings.HasPrefix(src, "blob:")
}

// --- Aspect derivation ---

var aspectClassRe = regexp.MustCompile(`aspect-\[([0-9.]+)/([0-9.]+)\]`)

// deriveAspect buckets the slot's ratio with the precedence: numeric
// width/height attributes, then w/h query parameters on the src URL, then
// a Tailwind-style aspect-[W/H] class, then square.
func deriveAspect(attrs map[string]string) string {
	if r, ok := ratioOf(attrs["width"], attrs["height"]); ok {
		return bucketAspect(r)
	}
	if src := attrs["src"]; src != "" {
		if u, err := url.Parse(src); err == nil {
			q := u.Query()
			if r, ok := ratioOf(q.Get("w"), q.Get("h")); ok {
				return bucketAspect(r)
			}
		}
	}
	if m := aspectClassRe.FindStringSubmatch(attrs["class"]); m != nil {
		if r, ok := ratioOf(m[1], m[2]); ok {
			return bucketAspect(r)
		}
	}
	return Aspect1x1
}

// ratioOf parses width and height strings and returns width/height.
func ratioOf(w, h string) (float64, bool) {
	fw, errW := strconv.ParseFloat(strings.TrimSpace(w), 64)
	fh, errH := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if errW != nil || errH != nil || fw <= 0 || fh <= 0 {
		return 0, false
	}
	return fw / fh, true
}

// bucketAspect maps a ratio to the nearest supported aspect bucket.
func bucketAspect(r float64) string {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return Aspect1x1
	}
	switch {
	case r >= 1.7:
		return Aspect16x9
	case r >= 1.3:
		return Aspect4x3
	case r >= 1.1:
		return Aspect3x2
	case r >= 0.9:
		return Aspect1x1
	case r >= 0.72:
		return Aspect4x5
	default:
		return Aspect9x16
	}
}

// --- Text normalization ---

var (
	protocolRe = regexp.MustCompile(`https?://`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// normalizeText lower-cases s, strips protocol prefixes, and collapses
// every run of non-alphanumeric characters to a single space.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = protocolRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// appSignature reduces the app prompt to its first ten normalized words,
// scoping intent keys to the app without keying on the full prompt text.
func appSignature(appPrompt string) string {
	words := strings.Fields(normalizeText(appPrompt))
	if len(words) > 10 {
		words = words[:10]
	}
	return strings.Join(words, " ")
}

// basis is the semantic core of an intent key: normalized alt text when
// present, else the normalized src capped at 80 characters, else a
// catch-all for fully anonymous placeholders.
func basis(alt, src string) string {
	if b := normalizeText(alt); b != "" {
		return b
	}
	if b := normalizeText(src); b != "" {
		if len(b) > 80 {
			b = strings.TrimSpace(b[:80])
		}
		return b
	}
	return "generic image"
}
