package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/daikw/tapread/internal/report"
	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/token"
	"github.com/daikw/tapread/internal/tokenizer"
	"github.com/daikw/tapread/internal/vocab"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func handleRetokenize(ctx context.Context, c *cli.Command) error {
	id, err := storyArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store := story.NewStore(cfg.StoriesDir)
	structure, err := store.LoadStructure(id)
	if err != nil {
		return err
	}

	source := c.String("lang")
	if source == "" {
		source = structure.SourceLanguage(cfg.DefaultLanguage)
	}
	episodes := c.String("episodes")
	read := func(n int) (string, error) {
		return store.ReadEpisode(id, episodes, n)
	}

	out, err := newRunner(c, cfg).Retokenize(ctx, structure, source, read)
	if err != nil {
		return err
	}
	report.NewPrinter(os.Stdout, cfg.ReportLimit).Retokenize(id, out)

	if c.Bool("write") && out.Changed() {
		updated, err := out.Apply(structure)
		if err != nil {
			return err
		}
		if err := store.SaveStructure(id, updated); err != nil {
			return fmt.Errorf("failed to save structure: %w", err)
		}
		fmt.Printf("💾 Saved %s/structure.json\n", id)
	}

	if failed := out.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d chapters could not be retokenized", len(failed))
	}
	return nil
}

func handleReconcile(ctx context.Context, c *cli.Command) error {
	id, err := storyArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store := story.NewStore(cfg.StoriesDir)
	structure, err := store.LoadStructure(id)
	if err != nil {
		return err
	}
	code := c.String("lang")
	target, err := store.LoadLanguage(id, code)
	if err != nil {
		return err
	}

	out, err := newRunner(c, cfg).Reconcile(ctx, structure, target, sourceLanguage(c, cfg, structure))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		report.NewPrinter(os.Stdout, cfg.ReportLimit).Reconcile(id, code, out)
	}

	if c.Bool("write") && out.Changed() {
		updated, err := out.Apply(target)
		if err != nil {
			return err
		}
		if err := store.SaveLanguage(id, code, updated); err != nil {
			return fmt.Errorf("failed to save translations: %w", err)
		}
		log.Info().Str("story", id).Str("lang", code).Msg("Saved repaired translation keys")
	}

	if out.HasIssues() {
		_, _, unresolved := out.Counts()
		return fmt.Errorf("%d unresolved keys, %d failed chapters", unresolved, len(out.Failed()))
	}
	return nil
}

func handleCheck(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store := story.NewStore(cfg.StoriesDir)

	ids := c.Args().Slice()
	if len(ids) == 0 {
		ids, err = store.ListStories()
		if err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		fmt.Printf("No stories found in %s\n", store.Root())
		return nil
	}

	fallback := c.String("source")
	if fallback == "" {
		fallback = cfg.DefaultLanguage
	}
	results, err := newRunner(c, cfg).Check(ctx, store, ids, fallback)
	if err != nil {
		return err
	}
	report.NewPrinter(os.Stdout, cfg.ReportLimit).Coverage(results)

	for _, sc := range results {
		if !sc.Complete() {
			return fmt.Errorf("some stories have sentences the reader cannot find")
		}
	}
	return nil
}

func handleMissing(ctx context.Context, c *cli.Command) error {
	id, err := storyArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store := story.NewStore(cfg.StoriesDir)
	structure, err := store.LoadStructure(id)
	if err != nil {
		return err
	}
	source := sourceLanguage(c, cfg, structure)

	dictPath := c.String("dict")
	if dictPath == "" {
		path, ok := cfg.Dictionary(source)
		if !ok {
			return fmt.Errorf("no dictionary for %s: pass --dict or set dictionaries.%s in config", source, source)
		}
		dictPath = path
	}
	dict, err := vocab.LoadDictionary(dictPath)
	if err != nil {
		return err
	}

	var streams []token.Stream
	for i, u := range structure.Units {
		stream, err := token.Parse(u.Content, source)
		if err != nil {
			log.Warn().Int("chapter", i+1).Err(err).Msg("Skipping chapter with corrupt content")
			continue
		}
		streams = append(streams, tokenizer.ToLookup(stream))
	}
	r, err := vocab.Check(streams, dict)
	if err != nil {
		return err
	}
	report.NewPrinter(os.Stdout, cfg.ReportLimit).Missing(id, source, r)

	if out := c.String("out"); out != "" {
		var buf bytes.Buffer
		if err := r.WriteMissing(&buf); err != nil {
			return err
		}
		if err := story.WriteFileAtomic(out, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write missing words: %w", err)
		}
		fmt.Printf("\n💾 Missing words saved to: %s\n", out)
	}
	return nil
}

func handleStatus(ctx context.Context, c *cli.Command) error {
	id, err := storyArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store := story.NewStore(cfg.StoriesDir)
	source, err := store.LoadLanguage(id, c.String("source"))
	if err != nil {
		return err
	}
	target, err := store.LoadLanguage(id, c.String("target"))
	if err != nil {
		return err
	}

	units := story.CompareTranslations(source, target)
	if c.Bool("json") {
		return printJSON(units)
	}
	report.NewPrinter(os.Stdout, cfg.ReportLimit).Status(id, c.String("source"), c.String("target"), units)
	return nil
}
