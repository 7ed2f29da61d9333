package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openjournals/ojs-pubmed/pipeline"
)

var (
	outputFile string
	reportFile string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file|dir>...",
	Short: "Enrich exports and merge them into one ArticleSet",
	Long: `Convert OJS PubMed exports into a single enriched ArticleSet.

Each argument is an article XML file or a directory whose *.xml files are
converted. Files are processed in name order. A file that fails is reported
and left out; the command only fails when no file could be converted.

The summary is printed to stderr. Output defaults to stdout.

Examples:
  ojs-pubmed convert exports/ -o articleset.xml
  ojs-pubmed convert a.xml b.xml --journal tvg
  ojs-pubmed convert exports/ -o articleset.xml --report report.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	convertCmd.Flags().StringVar(&reportFile, "report", "", "Write the batch report as YAML to this file")
}

func runConvert(cmd *cobra.Command, args []string) (err error) {
	items, err := readItems(args)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := pipeline.NewBatch(newPipeline(cfg, logger))
	coll, report, runErr := batch.Run(ctx, items)

	report.Summary(cmd.ErrOrStderr())

	if reportFile != "" {
		if err := writeFile(reportFile, report.WriteYAML); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("conversion interrupted: %w", runErr)
	}
	if len(report.Succeeded) == 0 {
		return errors.New("no article could be converted")
	}

	write := func(w io.Writer) error {
		_, err := coll.WriteTo(w)
		return err
	}
	if outputFile == "" {
		return write(cmd.OutOrStdout())
	}
	if err := writeFile(outputFile, write); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d articles to %s\n", coll.Len(), outputFile)
	return nil
}

// writeFile creates path and hands it to write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// inputFiles expands directories to their *.xml files. Explicit files are kept
// whatever their extension.
func inputFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading input directory: %w", err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("no XML files found")
	}
	return files, nil
}

func readItems(args []string) ([]pipeline.Item, error) {
	files, err := inputFiles(args)
	if err != nil {
		return nil, err
	}
	items := make([]pipeline.Item, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		items = append(items, pipeline.Item{Name: path, Data: data})
	}
	return items, nil
}

// commandContext returns cmd's context, or Background before Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
