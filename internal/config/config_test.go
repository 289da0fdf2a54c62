package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TAPREAD_TEST_DIR", "/srv/stories")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand ${VAR} pattern",
			input:    `{"storiesDir": "${TAPREAD_TEST_DIR}"}`,
			expected: `{"storiesDir": "/srv/stories"}`,
		},
		{
			name:     "missing env var returns empty",
			input:    `{"storiesDir": "${TAPREAD_NONEXISTENT}"}`,
			expected: `{"storiesDir": ""}`,
		},
		{
			name:     "no variables to expand",
			input:    `{"storiesDir": "stories"}`,
			expected: `{"storiesDir": "stories"}`,
		},
		{
			name:     "embedded in a longer value",
			input:    `{"en": "${TAPREAD_TEST_DIR}/dict/en.json"}`,
			expected: `{"en": "/srv/stories/dict/en.json"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func testLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	home := t.TempDir()
	return &Loader{
		projectPath: filepath.Join(".tapread", FileName),
		globalPath:  filepath.Join(home, ".config", "tapread", FileName),
	}, home
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoader_Load(t *testing.T) {
	t.Run("defaults when no file exists", func(t *testing.T) {
		loader, _ := testLoader(t)
		cfg, err := loader.Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Empty(t, cfg.Path())
	})

	t.Run("project config wins over global", func(t *testing.T) {
		loader, _ := testLoader(t)
		work := t.TempDir()
		writeConfig(t, loader.ProjectPath(work), `{"defaultLanguage": "ja", "workers": 2}`)
		writeConfig(t, loader.GlobalPath(), `{"defaultLanguage": "es"}`)

		cfg, err := loader.Load(work)
		require.NoError(t, err)
		assert.Equal(t, "ja", cfg.DefaultLanguage)
		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, DefaultReportLimit, cfg.ReportLimit, "unset fields keep defaults")
		assert.Equal(t, loader.ProjectPath(work), cfg.Path())
	})

	t.Run("global config as fallback", func(t *testing.T) {
		loader, _ := testLoader(t)
		writeConfig(t, loader.GlobalPath(), `{"defaultLanguage": "es", "fuzzyThreshold": 0.9}`)

		cfg, err := loader.Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "es", cfg.DefaultLanguage)
		assert.Equal(t, 0.9, cfg.FuzzyThreshold)
	})

	t.Run("exhaustive window is bounded unless set to zero", func(t *testing.T) {
		loader, _ := testLoader(t)
		work := t.TempDir()
		cfg, err := loader.Load(work)
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.ExhaustiveWindow)

		writeConfig(t, loader.ProjectPath(work), `{"exhaustiveWindow": 0}`)
		cfg, err = loader.Load(work)
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.ExhaustiveWindow)
	})

	t.Run("invalid json is an error", func(t *testing.T) {
		loader, _ := testLoader(t)
		work := t.TempDir()
		writeConfig(t, loader.ProjectPath(work), `{"defaultLanguage": `)

		_, err := loader.Load(work)
		assert.Error(t, err)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TAPREAD_TEST_STORIES", "/data/stories")
		loader, _ := testLoader(t)
		work := t.TempDir()
		writeConfig(t, loader.ProjectPath(work), `{"storiesDir": "${TAPREAD_TEST_STORIES}"}`)

		cfg, err := loader.Load(work)
		require.NoError(t, err)
		assert.Equal(t, "/data/stories", cfg.StoriesDir)
	})
}

func TestConfig_Validate(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "en.json")
	require.NoError(t, os.WriteFile(dict, []byte(`{}`), 0644))

	tests := []struct {
		name   string
		modify func(*Config)
		errs   []string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name: "regional default language",
			modify: func(c *Config) {
				c.DefaultLanguage = "pt-BR"
			},
		},
		{
			name: "unsupported default language",
			modify: func(c *Config) {
				c.DefaultLanguage = "xx"
			},
			errs: []string{`defaultLanguage: unsupported language "xx"`},
		},
		{
			name: "threshold out of range",
			modify: func(c *Config) {
				c.FuzzyThreshold = 1.5
			},
			errs: []string{"fuzzyThreshold must be greater than 0.0 and at most 1.0"},
		},
		{
			name: "bad numbers",
			modify: func(c *Config) {
				c.ExhaustiveWindow = -1
				c.ReportLimit = -1
				c.Workers = 0
			},
			errs: []string{
				"exhaustiveWindow must not be negative",
				"reportLimit must not be negative",
				"workers must be between 1 and 64",
			},
		},
		{
			name: "dictionaries",
			modify: func(c *Config) {
				c.Dictionaries = map[string]string{"en": dict, "ja": "/no/such/file.json"}
			},
			errs: []string{"dictionaries.ja: /no/such/file.json not readable"},
		},
		{
			name: "backend for a language without one",
			modify: func(c *Config) {
				c.Backends = map[string]bool{"en": true, "ja": false}
			},
			errs: []string{"backends.en: language has no segmenter backend"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Equal(t, tt.errs, cfg.Validate())
		})
	}

	var nilConfig *Config
	assert.Empty(t, nilConfig.Validate())
}

func TestConfig_Accessors(t *testing.T) {
	cfg := Default()
	cfg.Backends = map[string]bool{"ja": false}
	cfg.Dictionaries = map[string]string{"en": "en.json", "es": ""}

	assert.False(t, cfg.BackendEnabled("ja"))
	assert.True(t, cfg.BackendEnabled("zh"))

	path, ok := cfg.Dictionary("en")
	assert.True(t, ok)
	assert.Equal(t, "en.json", path)
	_, ok = cfg.Dictionary("es")
	assert.False(t, ok)
	_, ok = cfg.Dictionary("fr")
	assert.False(t, ok)
}

func TestGenerateExampleConfig(t *testing.T) {
	out := GenerateExampleConfig()

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "${TAPREAD_STORIES}", cfg.StoriesDir)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Contains(t, cfg.Dictionaries, "ja")
	assert.True(t, cfg.Backends["zh"])
}
