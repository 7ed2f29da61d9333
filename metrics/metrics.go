// Package metrics records pipeline outcomes as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openjournals/ojs-pubmed/pipeline"
	"github.com/openjournals/ojs-pubmed/pubmed"
)

// Namespace prefixes every metric name.
const Namespace = "ojs_pubmed"

// Result label values of ArticlesTotal.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
)

// Collector observes a Pipeline. It is safe for concurrent use.
type Collector struct {
	// ArticlesTotal counts transformed article files by result.
	ArticlesTotal *prometheus.CounterVec

	// FailuresTotal counts failed article files by failure reason.
	FailuresTotal *prometheus.CounterVec

	// StepsTotal counts editor steps by operation and status.
	StepsTotal *prometheus.CounterVec

	// DroppedElementsTotal counts children removed by the reorder step.
	DroppedElementsTotal *prometheus.CounterVec

	// BatchDuration observes batch run time in seconds.
	BatchDuration prometheus.Histogram

	// BatchArticles observes the number of articles in each output collection.
	BatchArticles prometheus.Histogram
}

var _ pipeline.Observer = (*Collector)(nil)

// NewCollector creates a Collector and registers it with reg. A nil reg
// registers with the default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		ArticlesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "articles_total",
			Help:      "Total number of article files processed by result",
		}, []string{"result"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "article_failures_total",
			Help:      "Total number of failed article files by reason",
		}, []string{"reason"}),
		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "steps_total",
			Help:      "Total number of editor steps by operation and status",
		}, []string{"op", "status"}),
		DroppedElementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dropped_elements_total",
			Help:      "Total number of Article children dropped by reordering, by element name",
		}, []string{"element"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		BatchArticles: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_articles",
			Help:      "Number of articles in each output collection",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// StepCompleted implements pipeline.Observer.
func (c *Collector) StepCompleted(res pubmed.Result) {
	c.StepsTotal.WithLabelValues(res.Op, res.Status.String()).Inc()
	for _, tag := range res.Dropped {
		c.DroppedElementsTotal.WithLabelValues(tag).Inc()
	}
}

// ArticleCompleted implements pipeline.Observer.
func (c *Collector) ArticleCompleted(_ string, err error) {
	if err != nil {
		c.ArticlesTotal.WithLabelValues(ResultFailed).Inc()
		c.FailuresTotal.WithLabelValues(string(pipeline.ReasonOf(err))).Inc()
		return
	}
	c.ArticlesTotal.WithLabelValues(ResultSucceeded).Inc()
}

// BatchCompleted implements pipeline.Observer.
func (c *Collector) BatchCompleted(report *pipeline.Report) {
	c.BatchDuration.Observe(report.Duration.Seconds())
	c.BatchArticles.Observe(float64(report.Articles))
}
