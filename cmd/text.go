package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/daikw/tapread/internal/sentence"
	"github.com/daikw/tapread/internal/token"
	"github.com/daikw/tapread/internal/tokenizer"
	"github.com/urfave/cli/v3"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func handleTokenize(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mode, err := tokenizer.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	text, err := readInput(c)
	if err != nil {
		return err
	}

	stream := newTokenizer(cfg).Tokenize(text, language(c, cfg), mode)
	if c.Bool("json") {
		return printJSON(stream)
	}
	if mode == tokenizer.ModeLookup {
		fmt.Println(strings.Join(stream.Texts(), "\n"))
		return nil
	}

	content, err := stream.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize stream: %w", err)
	}
	fmt.Println(content)
	return nil
}

func handleSentences(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	content, err := readInput(c)
	if err != nil {
		return err
	}

	stream, err := token.Parse(content, language(c, cfg))
	if err != nil {
		return fmt.Errorf("failed to parse token stream: %w", err)
	}
	for _, cand := range sentence.Reconstruct(stream, sentenceOptions(c, cfg)) {
		fmt.Printf("%d-%d\t%s\n", cand.Start, cand.End, cand.Text)
	}
	return nil
}

func handleSplit(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	text, err := readInput(c)
	if err != nil {
		return err
	}

	splitter := sentence.NewSplitter(newTokenizer(cfg))
	seed := orderedmap.New[string, string]()
	for _, cand := range splitter.Split(text, language(c, cfg)) {
		seed.Set(cand.Text, "")
	}
	return printJSON(seed)
}
