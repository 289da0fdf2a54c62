// Package config loads tapread.json, the per-project or per-user settings
// file for the tapread command.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/reconcile"
	"github.com/daikw/tapread/internal/sentence"
	"github.com/rs/zerolog/log"
)

const FileName = "tapread.json"

// Defaults applied for fields left out of the file.
const (
	DefaultStoriesDir  = "stories"
	DefaultWindow      = sentence.DefaultWindow
	DefaultReportLimit = 20
	DefaultWorkers     = 4
)

// Config represents the configuration file structure
type Config struct {
	StoriesDir       string  `json:"storiesDir,omitempty"`
	DefaultLanguage  string  `json:"defaultLanguage,omitempty"`
	FuzzyThreshold   float64 `json:"fuzzyThreshold,omitempty"`
	ExhaustiveWindow int     `json:"exhaustiveWindow,omitempty"`
	ReportLimit      int     `json:"reportLimit,omitempty"`
	Workers          int     `json:"workers,omitempty"`

	// Dictionaries maps a language code to its dictionary JSON file.
	Dictionaries map[string]string `json:"dictionaries,omitempty"`
	// Backends turns the segmenter backend of a language on or off.
	Backends map[string]bool `json:"backends,omitempty"`

	path string
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		StoriesDir:       DefaultStoriesDir,
		DefaultLanguage:  lang.Default,
		FuzzyThreshold:   reconcile.DefaultThreshold,
		ExhaustiveWindow: DefaultWindow,
		ReportLimit:      DefaultReportLimit,
		Workers:          DefaultWorkers,
	}
}

// Path returns the file the configuration was read from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// Loader handles loading configuration from files
type Loader struct {
	projectPath string
	globalPath  string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		projectPath: filepath.Join(".tapread", FileName),
		globalPath:  filepath.Join(homeDir, ".config", "tapread", FileName),
	}
}

// ProjectPath returns the project-local config path under workDir.
func (l *Loader) ProjectPath(workDir string) string {
	return filepath.Join(workDir, l.projectPath)
}

// GlobalPath returns the per-user config path.
func (l *Loader) GlobalPath() string {
	return l.globalPath
}

// Load loads configuration with priority:
// 1. Project-local config (.tapread/tapread.json)
// 2. Global config (~/.config/tapread/tapread.json)
// 3. Defaults
// A file that exists but cannot be parsed is an error.
func (l *Loader) Load(workDir string) (*Config, error) {
	for _, path := range []string{l.ProjectPath(workDir), l.globalPath} {
		cfg, err := l.LoadFromPath(path)
		if err == nil {
			log.Debug().Str("path", path).Msg("Loaded config")
			return cfg, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	log.Debug().Msg("No config file found, using defaults")
	return Default(), nil
}

// LoadFromPath loads configuration from a specific path. Missing fields
// take their default values.
func (l *Loader) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.path = path

	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0022 != 0 {
		log.Warn().
			Str("path", path).
			Str("permissions", fmt.Sprintf("%04o", info.Mode().Perm())).
			Msg("Config file is writable by others")
	}
	return cfg, nil
}

var envVar = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values
func expandEnvVars(input string) string {
	return envVar.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		log.Debug().Str("var", name).Msg("Referenced environment variable not set in config")
		return ""
	})
}

// BackendEnabled reports whether the segmenter backend for code should be
// used. Backends are on unless the file turns them off.
func (c *Config) BackendEnabled(code string) bool {
	if enabled, ok := c.Backends[code]; ok {
		return enabled
	}
	return true
}

// Dictionary returns the dictionary file configured for code.
func (c *Config) Dictionary(code string) (string, bool) {
	path, ok := c.Dictionaries[code]
	return path, ok && path != ""
}

// Validate validates the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c == nil {
		return errors
	}

	if strings.TrimSpace(c.StoriesDir) == "" {
		errors = append(errors, "storiesDir must not be empty")
	}
	if _, ok := lang.Resolve(c.DefaultLanguage); !ok {
		errors = append(errors, fmt.Sprintf("defaultLanguage: unsupported language %q", c.DefaultLanguage))
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		errors = append(errors, "fuzzyThreshold must be greater than 0.0 and at most 1.0")
	}
	if c.ExhaustiveWindow < 0 {
		errors = append(errors, "exhaustiveWindow must not be negative")
	}
	if c.ReportLimit < 0 {
		errors = append(errors, "reportLimit must not be negative")
	}
	if c.Workers < 1 || c.Workers > 64 {
		errors = append(errors, "workers must be between 1 and 64")
	}

	for _, code := range sortedKeys(c.Dictionaries) {
		if _, ok := lang.Resolve(code); !ok {
			errors = append(errors, fmt.Sprintf("dictionaries: unsupported language %q", code))
		}
		if _, err := os.Stat(c.Dictionaries[code]); err != nil {
			errors = append(errors, fmt.Sprintf("dictionaries.%s: %s not readable", code, c.Dictionaries[code]))
		}
	}
	for _, code := range sortedKeys(c.Backends) {
		l, ok := lang.Resolve(code)
		if !ok {
			errors = append(errors, fmt.Sprintf("backends: unsupported language %q", code))
			continue
		}
		if l.Segmenter == "" {
			errors = append(errors, fmt.Sprintf("backends.%s: language has no segmenter backend", code))
		}
	}

	return errors
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GenerateExampleConfig generates an example configuration
func GenerateExampleConfig() string {
	example := Default()
	example.StoriesDir = "${TAPREAD_STORIES}"
	example.Dictionaries = map[string]string{
		"en": "dictionaries/en.json",
		"ja": "dictionaries/ja.json",
	}
	example.Backends = map[string]bool{
		"ja": true,
		"zh": true,
	}

	data, _ := json.MarshalIndent(example, "", "  ")
	return string(data)
}
