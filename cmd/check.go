package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openjournals/ojs-pubmed/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check <file|dir>...",
	Short: "Check exports for the anchors conversion needs",
	Long: `Check article exports without contacting OJS.

For each file the command reports the vernacular title, whether an Abstract,
DOI and AuthorList are present, and which enrichment steps will be skipped.
Files that convert would reject are marked FAIL and make the command exit
non-zero.

Examples:
  ojs-pubmed check exports/
  ojs-pubmed check a.xml b.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	items, err := readItems(args)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATUS\tABSTRACT\tDOI\tAUTHORS\tTITLE")
	fmt.Fprintln(w, "----\t------\t--------\t---\t-------\t-----")

	var failed int
	var notes []string
	for _, item := range items {
		pf := pipeline.Check(item.Name, item.Data)

		status := "ok"
		if pf.Err != nil {
			status = "FAIL"
			failed++
			notes = append(notes, pf.Err.Error())
		}
		for _, warning := range pf.Warnings() {
			notes = append(notes, fmt.Sprintf("%s: %s", item.Name, warning))
		}

		title := pf.VernacularTitle
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.Name, status, yesNo(pf.HasAbstract), orDash(pf.DOI), yesNo(pf.HasAuthorList), title)
	}
	w.Flush()

	if len(notes) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		for _, n := range notes {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
	}

	if failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d files would fail\n", failed, len(items))
		return fmt.Errorf("check failed for %d files", failed)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
