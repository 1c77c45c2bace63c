// Package pipeline wires decoding, matching, annotation and persistence into
// the two end-to-end runs the CLI and the server expose: shared text and
// shared images.
package pipeline

import (
	"context"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benedoc-inc/overlap/cache"
	"github.com/benedoc-inc/overlap/core/annotate"
	"github.com/benedoc-inc/overlap/core/compare"
	"github.com/benedoc-inc/overlap/formats"
	"github.com/benedoc-inc/overlap/internal/config"
	"github.com/benedoc-inc/overlap/internal/logging"
	"github.com/benedoc-inc/overlap/storage"
	"github.com/benedoc-inc/overlap/types"
)

// Output file names
const (
	CommonParagraphsFile = "CommonParagraphs.json"
	PDFReportDir         = "JsonFromPdf"
	TextReportFile       = "report.html"
	ImageReportFile      = "result.html"
	comparedSuffix       = "_compared"
)

// Input is one named document
type Input struct {
	Name string
	Data []byte
}

// Pipeline runs comparisons and persists their outputs to a store
type Pipeline struct {
	cfg    config.Config
	store  storage.Store
	cache  cache.Cache
	logger *zap.Logger
}

// New creates a pipeline. A nil cache disables caching; a nil logger is silent.
func New(cfg config.Config, store storage.Store, c cache.Cache, logger *zap.Logger) *Pipeline {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, store: store, cache: c, logger: logger}
}

// TextOutcome is the result of a text comparison run
type TextOutcome struct {
	Result      *compare.ComparisonResult `json:"result"`
	Cached      bool                      `json:"cached"`
	Outputs     []string                  `json:"outputs"`
	Annotations []*annotate.Result        `json:"annotations,omitempty"`
}

// ComparedName returns the annotated copy name for a document
func ComparedName(name string, format types.DocumentFormat) string {
	return stem(name) + comparedSuffix + formats.Extension(format)
}

// ComparedNames returns the annotated copy names of a source and a target
// document. When both share a base name the target gets a _2 suffix, so the
// two copies never land on the same output path.
func ComparedNames(source, target string, format types.DocumentFormat) (string, string) {
	a, b := stem(source), stem(target)
	if strings.EqualFold(a, b) {
		b += "_2"
	}
	ext := formats.Extension(format)
	return a + comparedSuffix + ext, b + comparedSuffix + ext
}

func stem(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// CompareText compares two documents of the same format, writes an annotated
// copy of each (when the format supports it) and the reports below dir.
//
// Persistence failures do not stop the other outputs; they are returned joined,
// together with the outcome.
func (p *Pipeline) CompareText(ctx context.Context, a, b Input, dir string) (*TextOutcome, error) {
	fa, err := formats.Detect(a.Name)
	if err != nil {
		return nil, err
	}
	fb, err := formats.Detect(b.Name)
	if err != nil {
		return nil, err
	}
	if fa != fb {
		return nil, types.NewErrorf(types.ErrCodeInvalidConfiguration,
			"both documents must have the same format, got %s and %s", fa, fb).
			WithContext("source", a.Name).
			WithContext("target", b.Name)
	}

	loadOpts := formats.LoadOptions{MinLineRunes: p.cfg.MinLength}
	la, err := formats.Load(a.Data, a.Name, loadOpts)
	if err != nil {
		return nil, err
	}
	lb, err := formats.Load(b.Data, b.Name, loadOpts)
	if err != nil {
		return nil, err
	}

	opts := p.compareOptions(fa)
	out := &TextOutcome{}
	out.Result, out.Cached, err = p.compare(ctx, la.Doc, lb.Doc, opts)
	if err != nil {
		return nil, err
	}

	store := storage.Sub(p.store, dir)
	var errs []error
	if formats.Annotatable(fa) {
		results, written, aerr := p.annotateBoth(ctx, store, out.Result, [2]*formats.Loaded{la, lb}, opts)
		out.Annotations = results
		out.Outputs = append(out.Outputs, written...)
		if aerr != nil {
			errs = append(errs, aerr)
		}
	}

	written, rerr := p.writeTextReports(ctx, store, out.Result, fa)
	out.Outputs = append(out.Outputs, written...)
	if rerr != nil {
		errs = append(errs, rerr)
	}
	return out, errors.Join(errs...)
}

func (p *Pipeline) compareOptions(f types.DocumentFormat) compare.CompareOptions {
	opts := compare.DefaultCompareOptions()
	opts.MinLength = p.cfg.MinLength
	opts.Extract = p.cfg.ExtractOptions(f)
	opts.Workers = p.cfg.Workers
	opts.Exhaustive = p.cfg.Exhaustive
	opts.Logger = p.logger
	return opts
}

func (p *Pipeline) compare(ctx context.Context, a, b *types.Document, opts compare.CompareOptions) (*compare.ComparisonResult, bool, error) {
	id := compare.ComparisonID(a, b, opts)
	cached, ok, err := p.cache.Get(ctx, id)
	if err != nil {
		p.logger.Warn("cache lookup failed", zap.String("id", id), zap.Error(err))
	} else if ok {
		p.logger.Debug("comparison served from cache", zap.String("id", id))
		// Names are not part of the id
		r := *cached
		r.SourceName, r.TargetName = a.Name, b.Name
		return &r, true, nil
	}

	result, err := compare.CompareDocumentsWithOptions(ctx, a, b, opts)
	if err != nil {
		return nil, false, err
	}
	if err := p.cache.Put(ctx, result); err != nil {
		p.logger.Warn("cache store failed", zap.String("id", id), zap.Error(err))
	}
	return result, false, nil
}

// annotateBoth runs the two annotation passes concurrently. Each pass owns its
// document; a failure in one never cancels the other.
func (p *Pipeline) annotateBoth(ctx context.Context, store storage.Store, result *compare.ComparisonResult,
	docs [2]*formats.Loaded, opts compare.CompareOptions) ([]*annotate.Result, []string, error) {

	roles := [2]annotate.Role{annotate.RoleSource, annotate.RoleTarget}
	results := make([]*annotate.Result, 2)
	written := make([]string, 2)
	errs := make([]error, 2)

	annOpts := annotate.DefaultOptions()
	annOpts.Extract = opts.Extract
	annOpts.LabelFormat = p.cfg.LabelFormat
	annOpts.Logger = p.logger

	var names [2]string
	names[0], names[1] = ComparedNames(docs[0].Doc.Name, docs[1].Doc.Name, docs[0].Doc.Format)

	var g errgroup.Group
	for i := range docs {
		i := i
		g.Go(func() error {
			loaded := docs[i]
			name := loaded.Doc.Name
			annotated, res, err := annotate.Annotate(loaded.Doc, roles[i], result.Matches, annOpts)
			if err != nil {
				errs[i] = withDocument(err, name)
				return nil
			}
			results[i] = res
			logging.Warnings(p.logger, res.Warnings)

			data, err := loaded.Encode(annotated)
			if err != nil {
				errs[i] = withDocument(err, name)
				return nil
			}
			out := names[i]
			if err := store.WriteFile(ctx, out, data); err != nil {
				errs[i] = withDocument(err, name)
				return nil
			}
			written[i] = store.Location(out)
			p.logger.Info("annotated copy written",
				zap.String("document", name),
				zap.String("role", string(roles[i])),
				zap.String("location", written[i]))
			return nil
		})
	}
	_ = g.Wait()

	var kept []*annotate.Result
	for _, r := range results {
		if r != nil {
			kept = append(kept, r)
		}
	}
	var locations []string
	for _, w := range written {
		if w != "" {
			locations = append(locations, w)
		}
	}
	return kept, locations, errors.Join(errs...)
}

func (p *Pipeline) writeTextReports(ctx context.Context, store storage.Store, result *compare.ComparisonResult, f types.DocumentFormat) ([]string, error) {
	jsonPath := CommonParagraphsFile
	if f == types.FormatPDF {
		jsonPath = path.Join(PDFReportDir, CommonParagraphsFile)
	}

	var written []string
	var errs []error
	write := func(name string, render func(*compare.ComparisonResult) ([]byte, error)) {
		data, err := render(result)
		if err == nil {
			err = store.WriteFile(ctx, name, data)
		}
		if err != nil {
			errs = append(errs, err)
			return
		}
		written = append(written, store.Location(name))
	}
	write(jsonPath, compare.GenerateCommonParagraphsJSON)
	write(TextReportFile, compare.GenerateHTMLReport)
	return written, errors.Join(errs...)
}

func withDocument(err error, doc string) error {
	if e, ok := types.AsError(err); ok {
		return e.WithContext("document", doc)
	}
	return types.WrapError(types.ErrCodeWriteError, "failed to persist document", err).WithContext("document", doc)
}
