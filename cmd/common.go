package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/daikw/tapread/internal/batch"
	"github.com/daikw/tapread/internal/config"
	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/sentence"
	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/tokenizer"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// loadConfig reads --config or the default locations and applies global
// flag overrides.
func loadConfig(c *cli.Command) (*config.Config, error) {
	loader := config.NewLoader()

	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := loader.LoadFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		workDir, _ := os.Getwd()
		loaded, err := loader.Load(workDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if dir := c.String("stories"); dir != "" {
		cfg.StoriesDir = dir
	}
	for _, problem := range cfg.Validate() {
		log.Warn().Str("problem", problem).Msg("Configuration issue")
	}
	return cfg, nil
}

func newTokenizer(cfg *config.Config) *tokenizer.Tokenizer {
	var opts []tokenizer.Option
	for _, code := range lang.Supported() {
		if !cfg.BackendEnabled(code) {
			log.Debug().Str("lang", code).Msg("Segmenter backend disabled by config")
			opts = append(opts, tokenizer.WithoutBackend(code))
		}
	}
	return tokenizer.New(opts...)
}

func newRunner(c *cli.Command, cfg *config.Config) *batch.Runner {
	threshold := cfg.FuzzyThreshold
	if c.IsSet("threshold") {
		threshold = c.Float("threshold")
	}
	return batch.NewRunner(
		batch.WithWorkers(cfg.Workers),
		batch.WithTokenizer(newTokenizer(cfg)),
		batch.WithThreshold(threshold),
		batch.WithSentenceOptions(sentenceOptions(c, cfg)),
	)
}

func sentenceOptions(c *cli.Command, cfg *config.Config) sentence.Options {
	window := cfg.ExhaustiveWindow
	if c.IsSet("window") {
		window = int(c.Int("window"))
	}
	return sentence.Options{
		Exhaustive: c.Bool("exhaustive"),
		Window:     window,
	}
}

// language returns --lang or the configured default.
func language(c *cli.Command, cfg *config.Config) string {
	if code := c.String("lang"); code != "" {
		return code
	}
	return cfg.DefaultLanguage
}

// sourceLanguage returns --source, then the structure file's language, then
// the configured default.
func sourceLanguage(c *cli.Command, cfg *config.Config, structure *story.Document) string {
	if code := c.String("source"); code != "" {
		return code
	}
	return structure.SourceLanguage(cfg.DefaultLanguage)
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(c *cli.Command) (string, error) {
	path := c.Args().First()
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}

func storyArg(c *cli.Command) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("story id is required")
	}
	return c.Args().First(), nil
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
