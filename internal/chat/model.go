package chat

import "os"

// Gemini Model IDs
//
// | Model Name               | API Model ID               | Use Case                      |
// |--------------------------|----------------------------|-------------------------------|
// | Gemini 3 Flash (Preview) | gemini-3-flash-preview     | Prompt planning (default)     |
// | Gemini 2.5 Flash         | gemini-2.5-flash           | Stable, balanced performance  |
// | Gemini 2.5 Flash Image   | gemini-2.5-flash-image     | Image generation (default)    |
// | Gemini 3 Pro Image       | gemini-3-pro-image-preview | Advanced image generation     |
const (
	// ModelGemini3FlashPreview is best for speed + intelligence.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"

	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashImage is the fast image generation model.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
)

// DefaultModelName is the default text model, used for prompt planning and
// API key validation. Can be overridden via MOCKWEAVE_MODEL.
const DefaultModelName = ModelGemini3FlashPreview

// DefaultImageModelName is the default image generation model.
// Can be overridden via MOCKWEAVE_IMAGE_MODEL.
const DefaultImageModelName = ModelGemini25FlashImage

// GetModelName returns the text model to use, resolved from the
// MOCKWEAVE_MODEL environment variable, defaulting to DefaultModelName.
func GetModelName() string {
	if env := os.Getenv("MOCKWEAVE_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}

// GetImageModelName returns the image model to use, resolved from the
// MOCKWEAVE_IMAGE_MODEL environment variable, defaulting to
// DefaultImageModelName.
func GetImageModelName() string {
	if env := os.Getenv("MOCKWEAVE_IMAGE_MODEL"); env != "" {
		return env
	}
	return DefaultImageModelName
}
