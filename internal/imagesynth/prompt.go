package imagesynth

import "fmt"

// buildPrompt produces the default human-readable generation prompt for a
// slot. The planner may later overwrite it; this local fallback must always
// be usable on its own.
func buildPrompt(alt, stylePreset string) string {
	subject := alt
	if subject == "" {
		subject = "portrait scene"
	}
	style := stylePreset
	if style == "" {
		style = "modern"
	}
	return fmt.Sprintf(
		"%s, %s visual style, soft natural lighting, clean composition, high detail, high-resolution, no text, no watermark, no logos.",
		subject, style,
	)
}
