package main

import (
	"context"

	"github.com/daikw/tapread/internal/mcpserver"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func handleServe(ctx context.Context, c *cli.Command) error {
	// stdout carries the protocol; keep logs quiet on stderr
	if !c.Bool("verbose") {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s := mcpserver.New(version,
		mcpserver.WithTokenizer(newTokenizer(cfg)),
		mcpserver.WithThreshold(cfg.FuzzyThreshold),
		mcpserver.WithWindow(cfg.ExhaustiveWindow),
	)
	return s.ServeStdio()
}
