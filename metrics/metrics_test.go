package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjournals/ojs-pubmed/ojs"
	"github.com/openjournals/ojs-pubmed/pipeline"
	"github.com/openjournals/ojs-pubmed/pubmed"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector(reg), reg
}

func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		return 0, err
	}
	return m.GetHistogram().GetSampleCount(), nil
}

func TestNewCollector_Registers(t *testing.T) {
	c, reg := newTestCollector(t)
	c.ArticlesTotal.WithLabelValues(ResultSucceeded).Inc()
	c.BatchDuration.Observe(1)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "ojs_pubmed_articles_total")
	assert.Contains(t, names, "ojs_pubmed_batch_duration_seconds")
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestStepCompleted(t *testing.T) {
	c, _ := newTestCollector(t)

	c.StepCompleted(pubmed.Result{Op: pubmed.OpReplaceLanguageTag, Status: pubmed.Applied, Count: 1})
	c.StepCompleted(pubmed.Result{Op: pubmed.OpReplaceLanguageTag, Status: pubmed.Skipped})
	c.StepCompleted(pubmed.Result{Op: pubmed.OpReorderElements, Status: pubmed.Applied, Dropped: []string{"Foo", "Foo", "Bar"}})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StepsTotal.WithLabelValues(pubmed.OpReplaceLanguageTag, "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StepsTotal.WithLabelValues(pubmed.OpReplaceLanguageTag, "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StepsTotal.WithLabelValues(pubmed.OpReorderElements, "applied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.DroppedElementsTotal.WithLabelValues("Foo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DroppedElementsTotal.WithLabelValues("Bar")))
}

func TestArticleCompleted(t *testing.T) {
	c, _ := newTestCollector(t)

	c.ArticleCompleted("a.xml", nil)
	c.ArticleCompleted("b.xml", nil)
	c.ArticleCompleted("c.xml", &ojs.NotFoundError{Title: "x", Reason: "no exact match"})
	c.ArticleCompleted("d.xml", errors.Join(pipeline.ErrMalformedInput, errors.New("EOF")))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ArticlesTotal.WithLabelValues(ResultSucceeded)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ArticlesTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FailuresTotal.WithLabelValues(string(pipeline.ReasonNotFound))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FailuresTotal.WithLabelValues(string(pipeline.ReasonMalformedInput))))
}

func TestBatchCompleted(t *testing.T) {
	c, _ := newTestCollector(t)

	c.BatchCompleted(&pipeline.Report{Duration: 1500 * time.Millisecond, Articles: 3})

	count, err := getHistogramSampleCount(c.BatchDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	count, err = getHistogramSampleCount(c.BatchArticles)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestCollector_Exposition(t *testing.T) {
	c, reg := newTestCollector(t)
	c.ArticleCompleted("a.xml", nil)

	expected := `
# HELP ojs_pubmed_articles_total Total number of article files processed by result
# TYPE ojs_pubmed_articles_total counter
ojs_pubmed_articles_total{result="succeeded"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "ojs_pubmed_articles_total")
	assert.NoError(t, err)
}
