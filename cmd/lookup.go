package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <vernacular title>",
	Short: "Show the OJS metadata found for a title",
	Long: `Look up a publication by its vernacular title and print the English title,
abstract and keywords that convert would use, as YAML.

Examples:
  ojs-pubmed lookup "Hartfalen in de huisartsenpraktijk"
  ojs-pubmed lookup --journal tvg "Hartfalen in de huisartsenpraktijk"`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	md, err := newPipeline(cfg, logger).Resolve(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
