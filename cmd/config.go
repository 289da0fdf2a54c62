package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daikw/tapread/internal/config"
	"github.com/urfave/cli/v3"
)

func handleConfigShow(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if cfg.Path() == "" {
		fmt.Println("No configuration file found, showing defaults.")
		fmt.Println("\nSearched locations:")
		fmt.Println("  - .tapread/tapread.json (project)")
		fmt.Println("  - ~/.config/tapread/tapread.json (global)")
		fmt.Println("\nRun 'tapread config init' to create one.")
		fmt.Println("")
	} else {
		fmt.Printf("Configuration from %s:\n", cfg.Path())
	}
	return printJSON(cfg)
}

func handleConfigValidate(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if cfg.Path() == "" {
		fmt.Println("No configuration file found.")
		return nil
	}

	errors := cfg.Validate()
	if len(errors) == 0 {
		fmt.Println("✅ Configuration is valid.")
		return nil
	}

	fmt.Println("❌ Configuration has errors:")
	for _, err := range errors {
		fmt.Printf("  - %s\n", err)
	}
	return fmt.Errorf("configuration validation failed")
}

func handleConfigInit(ctx context.Context, c *cli.Command) error {
	loader := config.NewLoader()
	configPath := loader.ProjectPath(".")
	if c.Bool("global") {
		configPath = loader.GlobalPath()
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(config.GenerateExampleConfig()+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("✅ Created configuration: %s\n", configPath)
	fmt.Println("\nEdit the file to point storiesDir and dictionaries at your content.")
	fmt.Println("Use ${ENV_VAR} syntax to pull values from the environment.")
	return nil
}
