package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{EnvFile: "-"})
	require.NoError(t, err)

	assert.Equal(t, "https://platform.openjournals.nl", cfg.BaseURL)
	assert.Equal(t, "nl", cfg.VernacularLocale)
	assert.Equal(t, "en", cfg.EnglishLocale)
	assert.Equal(t, 3, cfg.Search.Status)
	assert.Equal(t, 100, cfg.Search.Count)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, 64, cfg.Cache.Size)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.False(t, cfg.StripHTML)

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "api_key is required")
	assert.Contains(t, err.Error(), "journal_abbreviation is required")
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, ".env", "api_key=abc123\njournal_title=tvg\njournal_abbreviation=Tijdschr Geneeskd\n")

	cfg, err := Load(LoadOptions{EnvFile: path})
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.APIKey)
	assert.Equal(t, "tvg", cfg.JournalPath)
	assert.Equal(t, "Tijdschr Geneeskd", cfg.JournalAbbreviation)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_JournalPathDefaultsToAbbreviation(t *testing.T) {
	path := writeFile(t, ".env", "api_key=abc\njournal_abbreviation=tvg\n")

	cfg, err := Load(LoadOptions{EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, "tvg", cfg.JournalPath)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, ".env", "api_key=from-file\njournal_abbreviation=tvg\n")
	t.Setenv("OJS_PUBMED_API_KEY", "from-env")
	t.Setenv("OJS_PUBMED_HTTP_TIMEOUT", "5s")
	t.Setenv("OJS_PUBMED_STRIP_HTML", "true")

	cfg, err := Load(LoadOptions{EnvFile: path})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.StripHTML)
}

func TestLoad_YAMLConfigFile(t *testing.T) {
	path := writeFile(t, "ojs-pubmed.yaml", `
api_key: yaml-key
journal_path: tvg
journal_abbreviation: TvG
http:
  max_retries: 5
  retry_delay: 250ms
cache:
  size: 0
log:
  level: debug
  format: json
`)

	cfg, err := Load(LoadOptions{EnvFile: "-", ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "yaml-key", cfg.APIKey)
	assert.Equal(t, 5, cfg.HTTP.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.HTTP.RetryDelay)
	assert.Equal(t, 0, cfg.Cache.Size)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{EnvFile: "-", ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_ProfileAndFlags(t *testing.T) {
	path := writeFile(t, ".env", "api_key=abc\njournal_path=env-path\njournal_abbreviation=Env\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("journal-abbreviation", "", "")
	flags.String("base-url", "", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--journal-abbreviation=From Flag"}))

	cfg, err := Load(LoadOptions{
		EnvFile: path,
		Flags:   flags,
		Profile: map[string]any{
			"journal_path":         "profile-path",
			"journal_abbreviation": "From Profile",
			"base_url":             "https://ojs.example.org",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "profile-path", cfg.JournalPath, "profile overrides the env file")
	assert.Equal(t, "From Flag", cfg.JournalAbbreviation, "changed flags override the profile")
	assert.Equal(t, "https://ojs.example.org", cfg.BaseURL, "unchanged flags do not override the profile")
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate_Bounds(t *testing.T) {
	cfg, err := Load(LoadOptions{EnvFile: "-"})
	require.NoError(t, err)
	cfg.APIKey = "k"
	cfg.JournalPath = "tvg"
	cfg.JournalAbbreviation = "TvG"
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"count too large", func(c *Config) { c.Search.Count = 500 }, "search.count"},
		{"bad url", func(c *Config) { c.BaseURL = "platform" }, "base_url"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"path with slash", func(c *Config) { c.JournalPath = "a/b" }, "journal_path"},
		{"retry delay cap", func(c *Config) { c.HTTP.MaxRetryDelay = time.Millisecond }, "http.max_retry_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *cfg
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_OJS(t *testing.T) {
	cfg, err := Load(LoadOptions{EnvFile: "-"})
	require.NoError(t, err)
	cfg.APIKey = "k"
	cfg.JournalPath = "tvg"

	oc := cfg.OJS()
	assert.Equal(t, "k", oc.APIKey)
	assert.Equal(t, "tvg", oc.JournalPath)
	assert.Equal(t, 3, oc.MaxRetries)
	assert.Equal(t, 64, oc.PageCacheSize)

	cfg.HTTP.MaxRetries = 0
	cfg.Cache.Size = 0
	oc = cfg.OJS()
	assert.Equal(t, -1, oc.MaxRetries, "zero retries must not fall back to the default")
	assert.Equal(t, -1, oc.PageCacheSize, "zero cache size disables the cache")

	cfg.JournalAbbreviation = "TvG"
	cfg.StripHTML = true
	po := cfg.PipelineOptions()
	assert.Equal(t, "TvG", po.JournalAbbreviation)
	assert.True(t, po.StripHTML)
}
