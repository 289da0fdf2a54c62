package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var (
	version  = "dev"
	revision = "none"
)

func langFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "lang",
		Aliases: []string{"l"},
		Usage:   "Language code of the text (default: defaultLanguage from config)",
	}
}

func sentenceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "exhaustive",
			Aliases: []string{"x"},
			Usage:   "Enumerate every contiguous token run instead of sentence boundaries only",
		},
		&cli.IntFlag{
			Name:  "window",
			Usage: "Maximum tokens per exhaustive candidate, 0 for no limit (default: exhaustiveWindow from config)",
		},
	}
}

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:  "tapread",
		Usage: "Tokenize stories and keep translation keys aligned with their token streams",
		Description: `tapread prepares serialized fiction for a word-tap reading app.
It splits chapter text into |-delimited token streams, rebuilds the sentences
a reader can tap through, and repairs translation map keys that drifted from
those sentences.`,
		Version: fmt.Sprintf("%s (rev: %s)", version, revision),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to tapread.json (default: .tapread/tapread.json, then ~/.config/tapread/tapread.json)",
			},
			&cli.StringFlag{
				Name:  "stories",
				Usage: "Stories directory (overrides storiesDir from config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "tokenize",
				Aliases:   []string{"t"},
				Usage:     "Tokenize text and print the |-delimited stream",
				ArgsUsage: "[file|-]",
				Action:    handleTokenize,
				Flags: []cli.Flag{
					langFlag(),
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Tokenization mode: preserve, lookup",
						Value:   "preserve",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print tokens with kinds and offsets as JSON",
					},
				},
			},
			{
				Name:      "sentences",
				Usage:     "List the candidate sentences of a serialized token stream",
				ArgsUsage: "[file|-]",
				Action:    handleSentences,
				Flags:     append([]cli.Flag{langFlag()}, sentenceFlags()...),
			},
			{
				Name:      "split",
				Usage:     "Split prose into sentences and print them as an empty translation map",
				ArgsUsage: "[file|-]",
				Action:    handleSplit,
				Flags:     []cli.Flag{langFlag()},
			},
			{
				Name:      "retokenize",
				Usage:     "Rebuild chapter content from the raw episode files",
				ArgsUsage: "<story>",
				Action:    handleRetokenize,
				Flags: []cli.Flag{
					langFlag(),
					&cli.StringFlag{
						Name:  "episodes",
						Usage: "Directory holding episode_N.txt (default: <story>/episodes)",
					},
					&cli.BoolFlag{
						Name:    "write",
						Aliases: []string{"w"},
						Usage:   "Write the new content to structure.json",
					},
				},
			},
			{
				Name:      "reconcile",
				Aliases:   []string{"r"},
				Usage:     "Align translation keys with the sentences of each chapter",
				ArgsUsage: "<story>",
				Action:    handleReconcile,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "lang",
						Aliases:  []string{"l"},
						Usage:    "Translation file to reconcile (lang/<code>.json)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Language of the chapter content (default: the structure file's language, then defaultLanguage)",
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "Fuzzy similarity a candidate must exceed (default: fuzzyThreshold from config)",
					},
					&cli.BoolFlag{
						Name:    "write",
						Aliases: []string{"w"},
						Usage:   "Write repaired keys back to the translation file",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the outcome as JSON",
					},
				}, sentenceFlags()...),
			},
			{
				Name:      "check",
				Usage:     "Walk every translation file the way the reading UI does and report missing sentences",
				ArgsUsage: "[story...]",
				Action:    handleCheck,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Content language for stories whose structure file names none",
					},
				},
			},
			{
				Name:      "missing",
				Usage:     "List the words of a story that are missing from a dictionary",
				ArgsUsage: "<story>",
				Action:    handleMissing,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Language of the chapter content",
					},
					&cli.StringFlag{
						Name:    "dict",
						Aliases: []string{"d"},
						Usage:   "Dictionary JSON file (default: dictionaries entry from config)",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write missing words to this file, one per line",
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Show which chapters of a translation are stale",
				ArgsUsage: "<story>",
				Action:    handleStatus,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Reference translation file (lang/<code>.json)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target",
						Usage:    "Translation file to check (lang/<code>.json)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the status as JSON",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the MCP server on stdio",
				Action: handleServe,
			},
			{
				Name:  "config",
				Usage: "Manage tapread configuration",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show the effective configuration",
						Action: handleConfigShow,
					},
					{
						Name:   "validate",
						Usage:  "Validate the configuration file",
						Action: handleConfigValidate,
					},
					{
						Name:   "init",
						Usage:  "Create an example configuration file",
						Action: handleConfigInit,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:    "global",
								Aliases: []string{"g"},
								Usage:   "Create ~/.config/tapread/tapread.json instead of the project file",
							},
						},
					},
				},
			},
		},
		Before: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}
