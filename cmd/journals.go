package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openjournals/ojs-pubmed/journal"
)

var journalsCmd = &cobra.Command{
	Use:   "journals",
	Short: "Manage journal profiles",
	Long: `Manage journal profiles.

A profile stores the OJS path and NLM abbreviation of one journal, plus
optional overrides. Profiles live in ~/.ojs-pubmed/journals/ and are selected
with --journal.

Examples:
  ojs-pubmed journals add tvg --path tvg --abbreviation "Tijdschr Geneeskd"
  ojs-pubmed journals list
  ojs-pubmed journals show tvg
  ojs-pubmed journals delete tvg`,
}

var journalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal profiles",
	Args:  cobra.NoArgs,
	RunE:  runJournalsList,
}

var journalsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a journal profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalsShow,
}

var journalsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create or replace a journal profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalsAdd,
}

var journalsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a journal profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalsDelete,
}

var (
	addPath             string
	addAbbreviation     string
	addDescription      string
	addBaseURL          string
	addVernacularLocale string
	addStripHTML        bool
	addForce            bool
)

func init() {
	journalsCmd.AddCommand(journalsListCmd)
	journalsCmd.AddCommand(journalsShowCmd)
	journalsCmd.AddCommand(journalsAddCmd)
	journalsCmd.AddCommand(journalsDeleteCmd)

	f := journalsAddCmd.Flags()
	f.StringVar(&addPath, "path", "", "Journal URL path on the OJS site")
	f.StringVar(&addAbbreviation, "abbreviation", "", "NLM journal title abbreviation")
	f.StringVar(&addDescription, "description", "", "Free-form description")
	f.StringVar(&addBaseURL, "url", "", "OJS site root, if not the default")
	f.StringVar(&addVernacularLocale, "vernacular-locale", "", "Locale of the native-language title, if not nl")
	f.BoolVar(&addStripHTML, "strip", false, "Convert markup in scraped abstracts to plain text")
	f.BoolVar(&addForce, "force", false, "Replace an existing profile")
}

func runJournalsList(cmd *cobra.Command, _ []string) error {
	names, err := journal.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No journal profiles found.")
		fmt.Fprintln(out, "\nCreate one with:")
		fmt.Fprintln(out, "  ojs-pubmed journals add <name> --path <path> --abbreviation <abbreviation>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH\tABBREVIATION\tDESCRIPTION")
	fmt.Fprintln(w, "----\t----\t------------\t-----------")
	for _, name := range names {
		j, err := journal.Load(name)
		if err != nil {
			fmt.Fprintf(w, "%s\t?\t?\terror loading\n", name)
			continue
		}
		desc := j.Description
		if len(desc) > 50 {
			desc = desc[:47] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, j.Path, j.Abbreviation, desc)
	}
	return w.Flush()
}

func runJournalsShow(cmd *cobra.Command, args []string) error {
	j, err := journal.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:         %s\n", j.Name)
	if j.Description != "" {
		fmt.Fprintf(out, "Description:  %s\n", j.Description)
	}
	fmt.Fprintf(out, "Path:         %s\n", j.Path)
	fmt.Fprintf(out, "Abbreviation: %s\n", j.Abbreviation)
	if j.BaseURL != "" {
		fmt.Fprintf(out, "Base URL:     %s\n", j.BaseURL)
	}
	if j.VernacularLocale != "" {
		fmt.Fprintf(out, "Locale:       %s\n", j.VernacularLocale)
	}
	if j.StripHTML != nil {
		fmt.Fprintf(out, "Strip HTML:   %v\n", *j.StripHTML)
	}
	return nil
}

func runJournalsAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	if journal.Exists(name) && !addForce {
		return fmt.Errorf("journal profile %q already exists; use --force to replace it", name)
	}

	j := &journal.Journal{
		Name:             name,
		Description:      addDescription,
		Path:             addPath,
		Abbreviation:     addAbbreviation,
		BaseURL:          addBaseURL,
		VernacularLocale: addVernacularLocale,
	}
	if cmd.Flags().Changed("strip") {
		strip := addStripHTML
		j.StripHTML = &strip
	}

	if err := j.Save(); err != nil {
		return err
	}
	path, _ := journal.Path(name)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved journal profile %s to %s\n", name, path)
	return nil
}

func runJournalsDelete(cmd *cobra.Command, args []string) error {
	if err := journal.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted journal profile: %s\n", args[0])
	return nil
}
