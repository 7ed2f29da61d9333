// Package config loads ojs-pubmed settings from defaults, a .env or YAML file,
// OJS_PUBMED_* environment variables, a journal profile and command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openjournals/ojs-pubmed/ojs"
	"github.com/openjournals/ojs-pubmed/pipeline"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "OJS_PUBMED"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all ojs-pubmed settings.
type Config struct {
	// APIKey is the OJS API token.
	APIKey string `mapstructure:"api_key" validate:"required"`
	// JournalPath is the journal's URL path on the OJS site.
	JournalPath string `mapstructure:"journal_path" validate:"required,excludesall=/?#"`
	// JournalAbbreviation is written to JournalTitle.
	JournalAbbreviation string `mapstructure:"journal_abbreviation" validate:"required"`
	BaseURL             string `mapstructure:"base_url" validate:"required,url"`
	VernacularLocale    string `mapstructure:"vernacular_locale" validate:"required"`
	EnglishLocale       string `mapstructure:"english_locale" validate:"required"`
	// StripHTML converts markup in scraped abstracts to plain text.
	StripHTML bool `mapstructure:"strip_html"`

	Search SearchConfig `mapstructure:"search"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
}

// SearchConfig holds submissions search parameters.
type SearchConfig struct {
	Status int `mapstructure:"status" validate:"gte=1"`
	Count  int `mapstructure:"count" validate:"gte=1,lte=100"`
}

// HTTPConfig holds transport settings for OJS calls.
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" validate:"gt=0"`
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay" validate:"gtefield=RetryDelay"`
	RateLimit     float64       `mapstructure:"rate_limit" validate:"gt=0"`
	Burst         int           `mapstructure:"burst" validate:"gte=1"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// CacheConfig holds the article page cache settings. Size 0 disables it.
type CacheConfig struct {
	Size int           `mapstructure:"size" validate:"gte=0"`
	TTL  time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// ServerConfig holds settings of the serve command.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// LoadOptions selects the sources merged by Load.
type LoadOptions struct {
	// ConfigFile is an explicit YAML or .env file. It must exist.
	ConfigFile string

	// EnvFile is read when present. Defaults to DefaultEnvFile; "-" disables it.
	EnvFile string

	// Profile holds journal profile settings. They override files and the
	// environment but not flags set on the command line.
	Profile map[string]any

	// Flags are bound by name through FlagKeys.
	Flags *pflag.FlagSet
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"api-key":              "api_key",
	"journal-path":         "journal_path",
	"journal-abbreviation": "journal_abbreviation",
	"base-url":             "base_url",
	"strip-html":           "strip_html",
	"timeout":              "http.timeout",
	"retries":              "http.max_retries",
	"rate-limit":           "http.rate_limit",
	"log-level":            "log.level",
	"log-format":           "log.format",
	"addr":                 "server.addr",
}

// Load merges every source into a Config. It does not validate: commands that
// talk to OJS call Validate.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if envFile != "-" {
		if _, err := os.Stat(envFile); err == nil {
			if err := mergeFile(v, envFile); err != nil {
				return nil, err
			}
		}
	}

	if opts.ConfigFile != "" {
		if err := mergeFile(v, opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	for key, value := range opts.Profile {
		if flagChanged(opts.Flags, key) {
			continue
		}
		v.Set(key, value)
	}

	// Legacy .env files name the OJS path journal_title.
	if v.GetString("journal_path") == "" {
		if title := v.GetString("journal_title"); title != "" {
			v.Set("journal_path", title)
		} else {
			v.Set("journal_path", v.GetString("journal_abbreviation"))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".env" || filepath.Base(path) == ".env":
		v.SetConfigType("env")
	case ext == ".yml" || ext == ".yaml":
		v.SetConfigType("yaml")
	case ext != "":
		v.SetConfigType(strings.TrimPrefix(ext, "."))
	default:
		v.SetConfigType("env")
	}
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

func flagChanged(flags *pflag.FlagSet, key string) bool {
	if flags == nil {
		return false
	}
	for name, k := range FlagKeys {
		if k != key {
			continue
		}
		if f := flags.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("journal_path", "")
	v.SetDefault("journal_title", "")
	v.SetDefault("journal_abbreviation", "")
	v.SetDefault("base_url", ojs.DefaultBaseURL)
	v.SetDefault("vernacular_locale", ojs.DefaultVernacularLocale)
	v.SetDefault("english_locale", ojs.DefaultEnglishLocale)
	v.SetDefault("strip_html", false)

	v.SetDefault("search.status", ojs.DefaultStatus)
	v.SetDefault("search.count", ojs.DefaultCount)

	v.SetDefault("http.timeout", ojs.DefaultTimeout)
	v.SetDefault("http.max_retries", ojs.DefaultMaxRetries)
	v.SetDefault("http.retry_delay", ojs.DefaultRetryDelay)
	v.SetDefault("http.max_retry_delay", ojs.DefaultMaxRetryDelay)
	v.SetDefault("http.rate_limit", ojs.DefaultRateLimit)
	v.SetDefault("http.burst", ojs.DefaultBurstSize)
	v.SetDefault("http.user_agent", ojs.DefaultUserAgent)

	v.SetDefault("cache.size", ojs.DefaultPageCacheSize)
	v.SetDefault("cache.ttl", ojs.DefaultPageCacheTTL)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every setting needed to reach OJS.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, key+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s: %v fails %q", key, fe.Value(), fe.Tag()+paramSuffix(fe.Param())))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// OJS returns the resolver configuration.
func (c *Config) OJS() ojs.Config {
	retries := c.HTTP.MaxRetries
	if retries == 0 {
		retries = -1
	}
	cacheSize := c.Cache.Size
	if cacheSize == 0 {
		cacheSize = -1
	}
	return ojs.Config{
		BaseURL:          c.BaseURL,
		JournalPath:      c.JournalPath,
		APIKey:           c.APIKey,
		VernacularLocale: c.VernacularLocale,
		EnglishLocale:    c.EnglishLocale,
		Status:           c.Search.Status,
		Count:            c.Search.Count,
		Timeout:          c.HTTP.Timeout,
		MaxRetries:       retries,
		RetryDelay:       c.HTTP.RetryDelay,
		MaxRetryDelay:    c.HTTP.MaxRetryDelay,
		RateLimit:        c.HTTP.RateLimit,
		BurstSize:        c.HTTP.Burst,
		UserAgent:        c.HTTP.UserAgent,
		PageCacheSize:    cacheSize,
		PageCacheTTL:     c.Cache.TTL,
	}
}

// PipelineOptions returns the per-journal transform settings.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		JournalAbbreviation: c.JournalAbbreviation,
		StripHTML:           c.StripHTML,
	}
}
