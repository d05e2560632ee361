// Package compare extracts an ordered list of files and diffs each adjacent pair.
package compare

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/doccompare/internal/diff"
	"github.com/hyperjump/doccompare/internal/extract"
	"github.com/hyperjump/doccompare/internal/fileid"
	"github.com/hyperjump/doccompare/internal/models"
	"github.com/hyperjump/doccompare/internal/storage"
	"github.com/hyperjump/doccompare/pkg/utils"
)

// TextExtractor turns a validated file into text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (*extract.Document, error)
}

// Fingerprinter is implemented by extractors whose output depends on
// settings (OCR on or off, languages). The fingerprint is part of the cache key.
type Fingerprinter interface {
	Fingerprint() string
}

// Input is one file to compare. Name labels the file in the report and
// defaults to Path.
type Input struct {
	Path string
	Name string
}

func (in Input) label() string {
	if in.Name != "" {
		return in.Name
	}
	return in.Path
}

// Comparer runs the comparison pipeline.
type Comparer struct {
	extractor    TextExtractor
	cache        storage.Cache
	fingerprint  string
	logger       *zap.Logger
	concurrency  int
	contextLines int
	now          func() time.Time
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Comparer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCache enables the extraction cache.
func WithCache(cache storage.Cache) Option {
	return func(c *Comparer) { c.cache = cache }
}

// WithFingerprint overrides the extraction fingerprint used in cache keys.
func WithFingerprint(fp string) Option {
	return func(c *Comparer) { c.fingerprint = fp }
}

// WithConcurrency sets how many files are extracted at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(c *Comparer) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithContextLines sets the number of unchanged lines shown around each hunk.
func WithContextLines(n int) Option {
	return func(c *Comparer) {
		if n >= 0 {
			c.contextLines = n
		}
	}
}

// NewComparer returns a Comparer using extractor.
func NewComparer(extractor TextExtractor, opts ...Option) *Comparer {
	c := &Comparer{
		extractor:    extractor,
		logger:       zap.NewNop(),
		concurrency:  1,
		contextLines: diff.DefaultContext,
		now:          time.Now,
	}
	if fp, ok := extractor.(Fingerprinter); ok {
		c.fingerprint = fp.Fingerprint()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare compares the files at paths in order.
func (c *Comparer) Compare(ctx context.Context, paths []string) (*models.ComparisonReport, error) {
	inputs := make([]Input, len(paths))
	for i, p := range paths {
		inputs[i] = Input{Path: p}
	}
	return c.CompareInputs(ctx, inputs)
}

// CompareInputs validates and extracts every input, then diffs each
// adjacent pair. Any failure aborts the whole comparison.
func (c *Comparer) CompareInputs(ctx context.Context, inputs []Input) (*models.ComparisonReport, error) {
	if len(inputs) < 2 {
		return nil, ErrInsufficientInput
	}
	for _, in := range inputs {
		if err := ValidatePath(in.Path); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	docs, err := c.extractAll(ctx, inputs)
	if err != nil {
		return nil, err
	}

	report := &models.ComparisonReport{
		ID:        uuid.New().String(),
		Files:     make([]string, len(inputs)),
		Pairs:     make([]models.PairResult, 0, len(inputs)-1),
		CreatedAt: c.now(),
	}
	for i, in := range inputs {
		report.Files[i] = in.label()
		report.Warnings = append(report.Warnings, docs[i].Warnings...)
	}
	for i := 0; i < len(inputs)-1; i++ {
		a, b := report.Files[i], report.Files[i+1]
		report.Pairs = append(report.Pairs, models.PairResult{
			FileA: a,
			FileB: b,
			Diff: diff.Compute(docs[i].Text, docs[i+1].Text, diff.Options{
				FromFile: a,
				ToFile:   b,
				Context:  c.contextLines,
			}),
		})
	}
	c.logger.Info("comparison complete",
		zap.String("id", report.ID),
		zap.Int("files", len(inputs)),
		zap.Bool("differences", report.HasDifferences()),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// extractAll extracts inputs with at most c.concurrency in flight. Results
// keep the input order.
func (c *Comparer) extractAll(ctx context.Context, inputs []Input) ([]*extract.Document, error) {
	docs := make([]*extract.Document, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := c.extractOne(gctx, in)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Comparer) extractOne(ctx context.Context, in Input) (*extract.Document, error) {
	var key string
	if c.cache != nil {
		id, err := fileid.FileContentID(in.Path)
		if err != nil {
			c.logger.Warn("cannot hash file for cache", zap.String("path", in.Path), zap.Error(err))
		} else {
			key = c.cacheKey(id)
			if doc := c.lookup(ctx, in, key); doc != nil {
				return doc, nil
			}
		}
	}

	doc, err := c.extractor.Extract(ctx, in.Path)
	if err != nil {
		return nil, relabel(err, in)
	}
	for i := range doc.Warnings {
		doc.Warnings[i].Path = in.label()
	}
	c.logger.Debug("extracted",
		zap.String("file", in.label()),
		zap.Stringer("format", doc.Format),
		zap.String("preview", utils.Preview(doc.Text, 80)))

	if key != "" {
		entry := &models.CachedText{
			ContentID: key,
			Format:    doc.Format.String(),
			Text:      doc.Text,
			Warnings:  doc.Warnings,
		}
		if err := c.cache.Put(ctx, entry); err != nil {
			c.logger.Warn("cache store failed", zap.String("path", in.Path), zap.Error(err))
		}
	}
	return doc, nil
}

// cacheKey combines the content hash with the extraction fingerprint.
// Entries from different extraction settings never share a key.
func (c *Comparer) cacheKey(contentID string) string {
	if c.fingerprint == "" {
		return contentID
	}
	return contentID + "|" + c.fingerprint
}

// relabel replaces the on-disk path in extraction errors with the input's
// display name.
func relabel(err error, in Input) error {
	if in.Name == "" || in.Name == in.Path {
		return err
	}
	var ee *extract.ExtractionError
	if errors.As(err, &ee) && ee.Path == in.Path {
		ee.Path = in.Name
	}
	var ue *extract.UnsupportedFormatError
	if errors.As(err, &ue) && ue.Path == in.Path {
		ue.Path = in.Name
	}
	return err
}

func (c *Comparer) lookup(ctx context.Context, in Input, key string) *extract.Document {
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("cache lookup failed", zap.String("path", in.Path), zap.Error(err))
		}
		return nil
	}
	c.logger.Debug("cache hit", zap.String("file", in.label()), zap.String("key", key))
	warnings := make([]models.Warning, len(entry.Warnings))
	for i, w := range entry.Warnings {
		w.Path = in.label()
		warnings[i] = w
	}
	return &extract.Document{
		Path:     in.Path,
		Format:   parseFormat(entry.Format),
		Text:     entry.Text,
		Warnings: warnings,
	}
}

func parseFormat(s string) extract.Format {
	for _, f := range []extract.Format{extract.FormatPDF, extract.FormatDOCX, extract.FormatImage} {
		if f.String() == s {
			return f
		}
	}
	return extract.FormatUnsupported
}
