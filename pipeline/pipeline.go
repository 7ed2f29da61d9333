// Package pipeline enriches OJS PubMed exports one article at a time and
// aggregates the results into a single ArticleSet.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openjournals/ojs-pubmed/helpers"
	"github.com/openjournals/ojs-pubmed/ojs"
	"github.com/openjournals/ojs-pubmed/pubmed"
	"github.com/openjournals/ojs-pubmed/xmltree"
)

// Resolver supplies the remote metadata of an article. *ojs.Client implements it.
type Resolver interface {
	LookupBySearchPhrase(ctx context.Context, title string) (*ojs.Publication, error)
	FetchAbstract(ctx context.Context, pageURL string) (string, error)
	FetchSubjectKeywords(ctx context.Context, pageURL string) ([]string, error)
}

var _ Resolver = (*ojs.Client)(nil)

// Observer is notified of pipeline outcomes. Implementations must be safe for
// concurrent use when one Pipeline serves several batches at once.
type Observer interface {
	StepCompleted(res pubmed.Result)
	ArticleCompleted(name string, err error)
	BatchCompleted(report *Report)
}

// Options carries the per-journal settings of the transform.
type Options struct {
	// JournalAbbreviation replaces the exported JournalTitle.
	JournalAbbreviation string

	// StripHTML converts markup in the scraped abstract to plain text.
	StripHTML bool
}

// Metadata is everything resolved for one article.
type Metadata struct {
	ojs.Publication `yaml:",inline"`
	EnglishAbstract string   `json:"english_abstract" yaml:"english_abstract"`
	Keywords        []string `json:"keywords" yaml:"keywords"`
}

// ArticleResult is a successfully enriched article.
type ArticleResult struct {
	Name     string
	XML      []byte
	Metadata Metadata
	Steps    []pubmed.Result
	// Dropped lists elements removed by reordering.
	Dropped []string
}

// Pipeline runs the fixed enrichment sequence. It holds no per-article state
// and is safe for concurrent use if its Resolver is.
type Pipeline struct {
	resolver Resolver
	opts     Options
	logger   zerolog.Logger
	observer Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithObserver registers an observer for step, article and batch outcomes.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// New creates a pipeline around resolver.
func New(resolver Resolver, opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		opts:     opts,
		logger:   zerolog.Nop(),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

type step struct {
	op    string
	apply func(*xmltree.Document) pubmed.Result
}

// steps returns the editor sequence. The array type pins the step count;
// refurbish must precede reorder so OtherAbstract is placed.
func (p *Pipeline) steps(md *Metadata) [9]step {
	return [...]step{
		{pubmed.OpInsertArticleTitle, func(d *xmltree.Document) pubmed.Result {
			return pubmed.InsertArticleTitle(d, md.EnglishTitle)
		}},
		{pubmed.OpReplaceVernacularTitle, func(d *xmltree.Document) pubmed.Result {
			return pubmed.ReplaceVernacularTitle(d, md.VernacularTitle)
		}},
		{pubmed.OpReplaceJournalTitle, func(d *xmltree.Document) pubmed.Result {
			return pubmed.ReplaceJournalTitle(d, p.opts.JournalAbbreviation)
		}},
		{pubmed.OpReplaceLanguageTag, pubmed.ReplaceLanguageTag},
		{pubmed.OpInsertArticleIDList, pubmed.InsertArticleIDList},
		{pubmed.OpInsertPublicationType, pubmed.InsertPublicationType},
		{pubmed.OpInsertKeywords, func(d *xmltree.Document) pubmed.Result {
			return pubmed.InsertKeywordsAfterAbstract(d, md.Keywords)
		}},
		{pubmed.OpRefurbishAbstracts, func(d *xmltree.Document) pubmed.Result {
			return pubmed.RefurbishAbstracts(d, md.EnglishAbstract)
		}},
		{pubmed.OpReorderElements, pubmed.ReorderArticleElements},
	}
}

// Transform enriches one article file. Every failure is an *ArticleError.
func (p *Pipeline) Transform(ctx context.Context, name string, data []byte) (*ArticleResult, error) {
	return p.transform(ctx, p.logger, name, data)
}

func (p *Pipeline) transform(ctx context.Context, logger zerolog.Logger, name string, data []byte) (*ArticleResult, error) {
	log := logger.With().Str("file", name).Logger()

	res, err := p.run(ctx, log, name, data)
	if err != nil {
		ae := articleError(name, err)
		log.Error().Err(ae.Err).Str("reason", string(ae.Reason)).Msg("article failed")
		if p.observer != nil {
			p.observer.ArticleCompleted(name, ae)
		}
		return nil, ae
	}

	log.Info().
		Int64("submission_id", res.Metadata.SubmissionID).
		Int("keywords", len(res.Metadata.Keywords)).
		Bool("abstract", res.Metadata.EnglishAbstract != "").
		Msg("article enriched")
	if p.observer != nil {
		p.observer.ArticleCompleted(name, nil)
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, log zerolog.Logger, name string, data []byte) (*ArticleResult, error) {
	doc, err := xmltree.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	title, ok := pubmed.VernacularTitle(doc)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: %s", pubmed.ErrMissingAnchor, pubmed.ElemVernacularTitle)
	}
	// Checked before any network call; the keyword and refurbish steps would fail anyway.
	if doc.Find(pubmed.ElemAbstract) == nil {
		return nil, fmt.Errorf("%w: %s", pubmed.ErrMissingAnchor, pubmed.ElemAbstract)
	}

	md, err := p.resolve(ctx, log, title)
	if err != nil {
		return nil, err
	}

	result := &ArticleResult{Name: name, Metadata: *md}
	for _, s := range p.steps(md) {
		res := s.apply(doc)
		result.Steps = append(result.Steps, res)
		if p.observer != nil {
			p.observer.StepCompleted(res)
		}

		ev := log.Debug()
		if res.Status == pubmed.Fatal {
			ev = log.Warn()
		}
		ev.Str("op", res.Op).Str("status", res.Status.String()).Str("reason", res.Reason).Int("count", res.Count).Msg("editor step")

		if res.Status == pubmed.Fatal {
			return nil, res.Err
		}
		for _, tag := range res.Dropped {
			log.Warn().Str("element", tag).Msg("schema dropped element not allowed in Article")
		}
		result.Dropped = append(result.Dropped, res.Dropped...)
	}

	result.XML = doc.Bytes()
	return result, nil
}

// Resolve fetches the metadata for a vernacular title without touching any
// document. Failures carry the same sentinels as Transform's.
func (p *Pipeline) Resolve(ctx context.Context, title string) (*Metadata, error) {
	return p.resolve(ctx, p.logger, title)
}

// resolve runs the three resolver calls. Missing abstract or keywords are
// accepted; a failed call is not.
func (p *Pipeline) resolve(ctx context.Context, log zerolog.Logger, title string) (*Metadata, error) {
	pub, err := p.resolver.LookupBySearchPhrase(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", title, err)
	}
	log.Debug().Int64("submission_id", pub.SubmissionID).Str("url", pub.PublishedURL).Msg("publication matched")

	abstract, err := p.resolver.FetchAbstract(ctx, pub.PublishedURL)
	if err != nil {
		return nil, fmt.Errorf("fetching abstract: %w", err)
	}
	if p.opts.StripHTML && helpers.IsHTML(abstract) {
		abstract = helpers.StripHTML(abstract)
	}
	if abstract == "" {
		log.Warn().Str("url", pub.PublishedURL).Msg("no English abstract on article page")
	}

	raw, err := p.resolver.FetchSubjectKeywords(ctx, pub.PublishedURL)
	if err != nil {
		return nil, fmt.Errorf("fetching keywords: %w", err)
	}
	keywords := make([]string, 0, len(raw))
	for _, kw := range raw {
		if kw = helpers.NormalizeWhitespace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return &Metadata{
		Publication:     *pub,
		EnglishAbstract: abstract,
		Keywords:        keywords,
	}, nil
}
