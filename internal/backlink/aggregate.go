package backlink

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/ansuz/internal/models"
)

// Documents resolves and reads vault notes. storage.Provider satisfies it.
type Documents interface {
	// Resolve returns the identity of the note at path, or an error when the
	// path no longer names a note.
	Resolve(path string) (models.DocumentRef, error)
	// Read returns the raw bytes of the note at path.
	Read(path string) ([]byte, error)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used for read failures and resolution misses.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLocale sets the collation locale used to order entries.
func WithLocale(tag language.Tag) Option {
	return func(a *Aggregator) {
		a.locale = tag
	}
}

// WithConcurrency bounds the number of candidate notes read at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// Aggregator composes FindLinkingSources and FindMatchingLines into a sorted
// BacklinkResult. It keeps no state between calls.
type Aggregator struct {
	docs        Documents
	logger      *slog.Logger
	locale      language.Tag
	concurrency int
}

// NewAggregator creates an Aggregator reading notes through docs.
func NewAggregator(docs Documents, opts ...Option) *Aggregator {
	a := &Aggregator{
		docs:        docs,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		locale:      language.Und,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns every note in graph that links to target, with the lines
// that carry the link, ordered by basename. Unresolvable or unreadable
// candidates are skipped; the only error returned is ctx's.
func (a *Aggregator) Aggregate(ctx context.Context, target models.DocumentRef, graph models.LinkGraph) (models.BacklinkResult, error) {
	start := time.Now()
	defer func() {
		aggregationsTotal.Inc()
		aggregationDuration.Observe(time.Since(start).Seconds())
	}()

	candidates := FindLinkingSources(target, graph)
	entries := make([]*models.BacklinkEntry, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, source := range candidates {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			entries[i] = a.collect(source, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(models.BacklinkResult, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, *e)
		}
	}

	col := collate.New(a.locale, collate.IgnoreCase)
	slices.SortStableFunc(out, func(x, y models.BacklinkEntry) int {
		if c := col.CompareString(x.SourceBasename, y.SourceBasename); c != 0 {
			return c
		}
		return strings.Compare(x.SourcePath, y.SourcePath)
	})
	return out, nil
}

// collect builds the entry for one candidate, or nil when it contributes nothing.
func (a *Aggregator) collect(source string, target models.DocumentRef) *models.BacklinkEntry {
	ref, err := a.docs.Resolve(source)
	if err != nil {
		candidatesTotal.WithLabelValues(outcomeResolutionMiss).Inc()
		a.logger.Debug("backlinks: candidate no longer resolves",
			slog.String("source", source),
			slog.String("target", target.Path))
		return nil
	}

	data, err := a.docs.Read(ref.Path)
	if err != nil {
		candidatesTotal.WithLabelValues(outcomeReadFailure).Inc()
		a.logger.Warn("backlinks: read failed",
			slog.String("source", ref.Path),
			slog.String("error", err.Error()))
		return nil
	}

	lines := FindMatchingLines(string(data), target)
	if len(lines) == 0 {
		candidatesTotal.WithLabelValues(outcomeExcluded).Inc()
		return nil
	}
	candidatesTotal.WithLabelValues(outcomeMatched).Inc()
	return &models.BacklinkEntry{
		SourcePath:     ref.Path,
		SourceBasename: ref.Basename,
		MatchingLines:  lines,
	}
}
