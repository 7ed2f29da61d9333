// Package cmd provides CLI commands for ojs-pubmed.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openjournals/ojs-pubmed/config"
	"github.com/openjournals/ojs-pubmed/journal"
	"github.com/openjournals/ojs-pubmed/ojs"
	"github.com/openjournals/ojs-pubmed/pipeline"
)

var (
	configFile  string
	envFile     string
	journalName string
)

// setupLogger builds the stderr logger. LOG_LEVEL overrides the configured
// level unless --log-level was given.
func setupLogger(cmd *cobra.Command, cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level := cfg.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" && !cmd.Flags().Changed("log-level") {
		level = env
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if strings.EqualFold(level, "warning") {
		lvl = zerolog.WarnLevel
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// loadConfig merges the config file, .env, environment, journal profile and
// flags of cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := config.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	}

	if journalName != "" {
		j, err := journal.Load(journalName)
		if err != nil {
			return nil, fmt.Errorf("loading journal profile: %w", err)
		}
		opts.Profile = j.Settings()
	}

	return config.Load(opts)
}

// setup loads and validates the configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := setupLogger(cmd, cfg.Log, cmd.ErrOrStderr())
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// newPipeline wires the OJS client into a pipeline.
func newPipeline(cfg *config.Config, logger zerolog.Logger, options ...pipeline.Option) *pipeline.Pipeline {
	client := ojs.New(cfg.OJS(), logger)
	options = append([]pipeline.Option{pipeline.WithLogger(logger)}, options...)
	return pipeline.New(client, cfg.PipelineOptions(), options...)
}

var rootCmd = &cobra.Command{
	Use:   "ojs-pubmed",
	Short: "Enrich OJS PubMed exports with English metadata",
	Long: `ojs-pubmed turns the PubMed XML exported by Open Journal Systems for a
Dutch-language journal into a PubMed-ready ArticleSet.

For every article it looks up the English title, abstract and keywords on the
OJS site, rewrites the export accordingly and merges all articles into one
document.

Settings are read from a .env file in the working directory, a --config file,
OJS_PUBMED_* environment variables, a --journal profile and flags, in
increasing order of precedence.

Examples:
  ojs-pubmed convert exports/ -o articleset.xml
  ojs-pubmed convert a.xml b.xml --journal tvg --report report.yaml
  ojs-pubmed check exports/
  ojs-pubmed lookup "Hartfalen in de huisartsenpraktijk"
  ojs-pubmed serve --addr :8080`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (YAML or .env)")
	pf.StringVar(&envFile, "env-file", config.DefaultEnvFile, `Credentials file read when present ("-" to skip)`)
	pf.StringVarP(&journalName, "journal", "j", "", "Journal profile name")

	pf.String("api-key", "", "OJS API token")
	pf.String("journal-path", "", "Journal URL path on the OJS site")
	pf.String("journal-abbreviation", "", "NLM journal title abbreviation")
	pf.String("base-url", "", "OJS site root (default "+ojs.DefaultBaseURL+")")
	pf.Bool("strip-html", false, "Convert markup in scraped abstracts to plain text")
	pf.Duration("timeout", ojs.DefaultTimeout, "Timeout of each OJS request")
	pf.Int("retries", ojs.DefaultMaxRetries, "Retries of failed OJS requests (0 disables)")
	pf.Float64("rate-limit", ojs.DefaultRateLimit, "Maximum OJS requests per second")
	pf.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(journalsCmd)
}
