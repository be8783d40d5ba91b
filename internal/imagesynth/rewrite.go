package imagesynth

// rewrite.go replaces each slot's src in the original screen HTML with its
// resolved source. The screens are re-walked with the same scan used at
// extraction and matched by position, so the HTML must be the identical
// snapshot both times; within one synthesis call that always holds. Only
// bytes inside a rewritten <img> tag change, and within the tag only the
// src and srcset attributes.

import "strings"

// rewriteScreens returns copies of the screens with resolved sources
// spliced in. Slots without a resolved source are left untouched.
func rewriteScreens(screens []Screen, slots []ImageSlot, res *resolution) []Screen {
	// slot position -> intent key, for the positional re-walk
	keyBySlot := make(map[string]string, len(slots))
	for _, s := range slots {
		keyBySlot[s.SlotID] = s.IntentKey
	}

	out := make([]Screen, len(screens))
	for si, screen := range screens {
		type edit struct {
			tag imgTag
			src string
		}
		var edits []edit
		scanImgTags(screen.HTML, func(ii int, tag imgTag) {
			key, ok := keyBySlot[slotID(si, ii)]
			if !ok {
				return
			}
			if src, ok := res.srcs[key]; ok {
				edits = append(edits, edit{tag: tag, src: src})
			}
		})

		rewritten := screen
		if len(edits) > 0 {
			var b strings.Builder
			b.Grow(len(screen.HTML))
			last := 0
			for _, e := range edits {
				b.WriteString(screen.HTML[last:e.tag.start])
				b.WriteString(spliceImgSrc(screen.HTML[e.tag.start:e.tag.end], e.src))
				last = e.tag.end
			}
			b.WriteString(screen.HTML[last:])
			rewritten.HTML = b.String()
		}
		out[si] = rewritten
	}
	return out
}

// attrSpan is the byte range of one attribute (name through value) inside
// a raw tag string.
type attrSpan struct {
	name       string
	start, end int
}

// scanTagAttrs walks the raw bytes of a single tag and reports each
// attribute's span. It tolerates unquoted and valueless attributes.
func scanTagAttrs(tag string) []attrSpan {
	var spans []attrSpan
	i := 1 // skip '<'
	for i < len(tag) && isNameByte(tag[i]) {
		i++ // tag name
	}
	for i < len(tag) {
		for i < len(tag) && (isSpaceByte(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}
		start := i
		for i < len(tag) && !isSpaceByte(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		name := strings.ToLower(tag[start:i])
		for i < len(tag) && isSpaceByte(tag[i]) {
			i++
		}
		if i < len(tag) && tag[i] == '=' {
			i++
			for i < len(tag) && isSpaceByte(tag[i]) {
				i++
			}
			if i < len(tag) && (tag[i] == '"' || tag[i] == '\'') {
				quote := tag[i]
				i++
				for i < len(tag) && tag[i] != quote {
					i++
				}
				if i < len(tag) {
					i++ // closing quote
				}
			} else {
				for i < len(tag) && !isSpaceByte(tag[i]) && tag[i] != '>' {
					i++
				}
			}
		}
		spans = append(spans, attrSpan{name: name, start: start, end: i})
	}
	return spans
}

// spliceImgSrc rewrites src inside a raw <img ...> tag, creating the
// attribute if absent, and drops any srcset: a single-resolution generated
// source cannot honor a multi-resolution set. All other bytes survive.
func spliceImgSrc(tag, newSrc string) string {
	escaped := strings.ReplaceAll(newSrc, "&", "&amp;")
	escaped = strings.ReplaceAll(escaped, `"`, "&quot;")
	replacement := `src="` + escaped + `"`

	var srcSpan, srcsetSpan *attrSpan
	for _, sp := range scanTagAttrs(tag) {
		sp := sp
		switch sp.name {
		case "src":
			if srcSpan == nil {
				srcSpan = &sp
			}
		case "srcset":
			if srcsetSpan == nil {
				srcsetSpan = &sp
			}
		}
	}

	type edit struct {
		start, end int
		text       string
	}
	var edits []edit
	if srcSpan != nil {
		edits = append(edits, edit{srcSpan.start, srcSpan.end, replacement})
	}
	if srcsetSpan != nil {
		// take one leading space along with the attribute
		start := srcsetSpan.start
		if start > 0 && isSpaceByte(tag[start-1]) {
			start--
		}
		edits = append(edits, edit{start, srcsetSpan.end, ""})
	}
	if srcSpan == nil {
		insert := 1
		for insert < len(tag) && isNameByte(tag[insert]) {
			insert++
		}
		edits = append(edits, edit{insert, insert, " " + replacement})
	}

	// apply in ascending order
	for i := 0; i < len(edits); i++ {
		for j := i + 1; j < len(edits); j++ {
			if edits[j].start < edits[i].start {
				edits[i], edits[j] = edits[j], edits[i]
			}
		}
	}
	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(tag[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(tag[last:])
	return b.String()
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
