// Package ojs resolves article metadata from an Open Journal Systems
// installation: the REST submissions search and the public article page.
package ojs

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	// DefaultBaseURL is the OJS platform hosting the journals.
	DefaultBaseURL = "https://platform.openjournals.nl"

	// DefaultVernacularLocale is the locale key of the native-language title.
	DefaultVernacularLocale = "nl"

	// DefaultEnglishLocale is the locale key of the English title and abstract.
	DefaultEnglishLocale = "en"

	// DefaultStatus restricts the search to accepted submissions.
	DefaultStatus = 3

	// DefaultCount is the number of submissions requested per search.
	DefaultCount = 100

	// MaxCount is the largest page size the submissions endpoint accepts.
	MaxCount = 100

	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = 30 * time.Second
	DefaultRateLimit     = 5.0
	DefaultBurstSize     = 5
	DefaultUserAgent     = "ojs-pubmed/1.0"
	DefaultPageCacheSize = 64
	DefaultPageCacheTTL  = 10 * time.Minute
)

// Config holds the configuration for the OJS client.
type Config struct {
	// BaseURL is the OJS site root, without the journal path.
	BaseURL string

	// JournalPath is the journal's URL path segment on the OJS site.
	JournalPath string

	// APIKey is the OJS API token.
	APIKey string

	VernacularLocale string
	EnglishLocale    string

	// Status is the submission status filter. 3 means accepted.
	Status int

	// Count is the page size of the search. Capped at MaxCount.
	Count int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Zero uses DefaultMaxRetries; a negative value disables retries.
	MaxRetries int

	// RetryDelay is the base backoff delay. It doubles on each retry.
	RetryDelay time.Duration

	// MaxRetryDelay caps backoff and Retry-After waits.
	MaxRetryDelay time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64
	BurstSize int

	UserAgent string

	// PageCacheSize is the number of parsed article pages kept in memory.
	// A negative size disables the cache.
	PageCacheSize int
	PageCacheTTL  time.Duration
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.JournalPath = strings.Trim(c.JournalPath, "/")
	if c.VernacularLocale == "" {
		c.VernacularLocale = DefaultVernacularLocale
	}
	if c.EnglishLocale == "" {
		c.EnglishLocale = DefaultEnglishLocale
	}
	if c.Status == 0 {
		c.Status = DefaultStatus
	}
	if c.Count <= 0 {
		c.Count = DefaultCount
	}
	if c.Count > MaxCount {
		c.Count = MaxCount
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if c.MaxRetryDelay < c.RetryDelay {
		c.MaxRetryDelay = c.RetryDelay
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.PageCacheSize == 0 {
		c.PageCacheSize = DefaultPageCacheSize
	}
	if c.PageCacheTTL == 0 {
		c.PageCacheTTL = DefaultPageCacheTTL
	}
}

// Client talks to one journal on an OJS installation. It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *HTTPClient
	pages      *expirable.LRU[string, *html.Node]
	logger     zerolog.Logger
}

// New creates a client with its own rate-limited transport.
func New(cfg Config, logger zerolog.Logger) *Client {
	return NewWithHTTPClient(cfg, NewHTTPClient(cfg, logger), logger)
}

// NewWithHTTPClient creates a client sharing an existing transport.
func NewWithHTTPClient(cfg Config, httpClient *HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	c := &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "ojs").Str("journal", cfg.JournalPath).Logger(),
	}
	if cfg.PageCacheSize > 0 {
		c.pages = expirable.NewLRU[string, *html.Node](cfg.PageCacheSize, nil, cfg.PageCacheTTL)
	}
	return c
}

// Config returns the effective configuration with defaults applied.
func (c *Client) Config() Config {
	return c.config
}
