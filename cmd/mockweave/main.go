// mockweave resolves placeholder images in generated mockup screens.
//
// It reads a screens JSON file produced by the mockup generator, runs one
// image synthesis pass (dedup, cache reuse, bounded generation, HTML
// rewrite), and writes the rewritten screens plus stats.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mockweave/mockweave/internal/auth"
	"github.com/mockweave/mockweave/internal/chat"
	"github.com/mockweave/mockweave/internal/imagesynth"
	"github.com/mockweave/mockweave/internal/logging"
	"github.com/mockweave/mockweave/internal/store"
)

// CLI flags
var (
	inputFlag       string
	outputFlag      string
	appPromptFlag   string
	styleFlag       string
	platformFlag    string
	modelFlag       string
	maxImagesFlag   int
	concurrencyFlag int
	cacheFlag       string
	noPlannerFlag   bool
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "mockweave",
	Short: "AI image synthesis for generated UI mockups",
	Long: `mockweave scans mockup screens for placeholder <img> tags, deduplicates
them into visual intents, generates at most one image per new intent via
Gemini, reuses previously generated images from a persistent cache, and
rewrites the screens' HTML with the resolved sources.

Generation failures never fail the run: affected slots keep their
placeholder sources.

Examples:
  mockweave --input screens.json --app-prompt "meditation app for commuters"
  mockweave -i screens.json -o out.json -a "recipe sharing app" --style minimal --platform mobile
  mockweave -i screens.json -a "travel planner" --max-images 5 --concurrency 4
  mockweave -i screens.json -a "fitness tracker" --cache ./cache/images.db`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&inputFlag, "input", "i", "", "Screens JSON file ([{\"name\", \"html\"}, ...])")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path for rewritten screens + stats (default: stdout)")
	rootCmd.Flags().StringVarP(&appPromptFlag, "app-prompt", "a", "", "App description the screens were generated from")
	rootCmd.Flags().StringVar(&styleFlag, "style", "", "Style preset (e.g. minimal, playful, corporate)")
	rootCmd.Flags().StringVar(&platformFlag, "platform", "mobile", "Target platform (mobile, web)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Image model to use (default: "+chat.DefaultImageModelName+")")
	rootCmd.Flags().IntVar(&maxImagesFlag, "max-images", 0, "Max images to generate per run (clamped to [1,30], default 12)")
	rootCmd.Flags().IntVar(&concurrencyFlag, "concurrency", 0, "Concurrent generation calls (clamped to [1,6], default 2)")
	rootCmd.Flags().StringVar(&cacheFlag, "cache", "", "Cache path; .db/.sqlite selects the SQLite backend (default: ~/.mockweave/image-cache.json)")
	rootCmd.Flags().BoolVar(&noPlannerFlag, "no-planner", false, "Skip the prompt planning call")

	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("app-prompt")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// screensOutput is the document written on success.
type screensOutput struct {
	Screens []imagesynth.Screen `json:"screens"`
	Stats   imagesynth.Stats    `json:"stats"`
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	screens := loadScreens(inputFlag)
	if len(screens) == 0 {
		log.Fatal().Str("path", inputFlag).Msg("No screens found in input file")
	}

	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to retrieve API key")
	}

	ctx := context.Background()
	client, err := chat.NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	if err := auth.ValidateAPIKey(ctx, client, chat.GetModelName()); err != nil {
		log.Fatal().Err(err).Msg("API key validation failed")
	}

	var planner imagesynth.Planner
	if !noPlannerFlag {
		planner = chat.NewPlannerClient(client, chat.GetModelName())
	}

	st := openStore(cacheFlag)
	synth := imagesynth.New(chat.NewImageClient(apiKey, modelFlag), planner, st)

	result, err := synth.SynthesizeScreens(ctx, screens, imagesynth.Options{
		AppPrompt:      appPromptFlag,
		StylePreset:    styleFlag,
		Platform:       platformFlag,
		PreferredModel: modelFlag,
		MaxImages:      maxImagesFlag,
		Concurrency:    concurrencyFlag,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("image synthesis failed")
	}

	writeResult(outputFlag, screensOutput{Screens: result.Screens, Stats: result.Stats})
}

// loadScreens reads and decodes the screens file, backfilling missing
// screen ids. The upstream provider may omit them.
func loadScreens(path string) []imagesynth.Screen {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read screens file")
	}

	var screens []imagesynth.Screen
	if err := json.Unmarshal(data, &screens); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Screens file is not a JSON array of screens")
	}

	for i := range screens {
		if screens[i].ID == "" {
			screens[i].ID = uuid.NewString()
		}
	}
	return screens
}

// openStore selects the cache backend from the path's extension.
func openStore(path string) store.Store {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Warn().Err(err).Msg("No home directory, image cache disabled")
			return nil
		}
		path = filepath.Join(home, ".mockweave", "image-cache.json")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".db" || ext == ".sqlite" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot create cache directory, image cache disabled")
			return nil
		}
		st, err := store.NewSQLiteStore(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot open SQLite cache, image cache disabled")
			return nil
		}
		return st
	}
	return store.NewFileStore(path)
}

// writeResult encodes the output document to the output path or stdout.
func writeResult(path string, out screensOutput) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}

	if path == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write output file")
	}
	log.Info().Str("path", path).Msg("Rewritten screens written")
}
