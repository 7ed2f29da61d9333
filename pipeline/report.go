package pipeline

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarizes a batch run.
type Report struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Total     int           `json:"total" yaml:"total"`
	// Articles counts Article elements in the collection.
	Articles  int                 `json:"articles" yaml:"articles"`
	Succeeded []string            `json:"succeeded" yaml:"succeeded"`
	Failed    []Failure           `json:"failed" yaml:"failed"`
	Dropped   map[string][]string `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Cancelled bool                `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// Failure is one file excluded from the collection.
type Failure struct {
	File   string `json:"file" yaml:"file"`
	Reason Reason `json:"reason" yaml:"reason"`
	Error  string `json:"error" yaml:"error"`
}

func (r *Report) addFailure(name string, err error) {
	r.Failed = append(r.Failed, Failure{File: name, Reason: ReasonOf(err), Error: err.Error()})
}

// FailureCounts returns the number of failures per reason.
func (r *Report) FailureCounts() map[Reason]int {
	counts := make(map[Reason]int)
	for _, f := range r.Failed {
		counts[f.Reason]++
	}
	return counts
}

// WriteYAML writes the report as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// Summary prints a human-readable outcome, one line per failure.
func (r *Report) Summary(w io.Writer) {
	fmt.Fprintf(w, "Processed %d files in %s: %d succeeded, %d failed (%d articles)\n",
		r.Total, r.Duration.Round(time.Millisecond), len(r.Succeeded), len(r.Failed), r.Articles)

	for _, f := range r.Failed {
		fmt.Fprintf(w, "  FAILED %s [%s]: %s\n", f.File, f.Reason, f.Error)
	}

	files := make([]string, 0, len(r.Dropped))
	for file := range r.Dropped {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		fmt.Fprintf(w, "  DROPPED %s: %v\n", file, r.Dropped[file])
	}

	if r.Cancelled {
		fmt.Fprintf(w, "  run cancelled after %d of %d files\n", len(r.Succeeded)+len(r.Failed), r.Total)
	}
}
