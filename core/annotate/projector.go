// Package annotate projects match records back onto a structured document.
//
// Fully duplicated paragraphs are highlighted in turquoise, shared fragments in
// yellow. Every annotation gets a bookmark and a blue cross-reference label
// naming the page and line of the counterpart in the other document. The input
// document is never modified; Annotate works on a deep copy.
package annotate

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/benedoc-inc/overlap/core/extract"
	"github.com/benedoc-inc/overlap/types"
)

// Role tells the projector which side of each record belongs to the document
type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

const (
	// DefaultLabelFormat receives the counterpart page and line
	DefaultLabelFormat = "    page %d, line %d"
	// DefaultLabelColor is the RRGGBB color of label runs
	DefaultLabelColor = "0000FF"
	// DefaultBookmarkPrefix starts every generated bookmark name
	DefaultBookmarkPrefix = "Bk"
)

// Options configures an annotation pass
type Options struct {
	// Extract must be the extraction options the records were produced with,
	// otherwise span offsets will not line up.
	Extract extract.Options

	LabelFormat      string
	LabelColor       string
	FullHighlight    types.HighlightColor
	PartialHighlight types.HighlightColor
	BookmarkPrefix   string
	Logger           *zap.Logger
}

// DefaultOptions returns the standard highlight colors and label template
func DefaultOptions() Options {
	return Options{
		Extract:          extract.DefaultOptions(),
		LabelFormat:      DefaultLabelFormat,
		LabelColor:       DefaultLabelColor,
		FullHighlight:    types.HighlightTurquoise,
		PartialHighlight: types.HighlightYellow,
		BookmarkPrefix:   DefaultBookmarkPrefix,
		Logger:           zap.NewNop(),
	}
}

// Result summarizes one annotation pass
type Result struct {
	Role         Role             `json:"role"`
	FullUnits    int              `json:"full_units"`
	PartialUnits int              `json:"partial_units"`
	Bookmarks    int              `json:"bookmarks"`
	Labels       int              `json:"labels"`
	Skipped      int              `json:"skipped"`
	Warnings     []*types.Warning `json:"warnings,omitempty"`
}

// Annotate returns an annotated copy of doc. Records are read from the side
// selected by role; the other side supplies the label page and line.
func Annotate(doc *types.Document, role Role, matches []types.MatchRecord, opts Options) (*types.Document, *Result, error) {
	if doc == nil {
		return nil, nil, types.NewError(types.ErrCodeUnreadableDocument, "no document to annotate")
	}
	if role != RoleSource && role != RoleTarget {
		return nil, nil, types.NewErrorf(types.ErrCodeInvalidConfiguration, "unknown annotation role %q", role).
			WithContext("role", string(role))
	}
	opts = withDefaults(opts)

	p := &pass{
		doc:     doc.Clone(),
		role:    role,
		opts:    opts,
		state:   NewProcessingState(),
		nextID:  doc.MaxBookmarkID + 1,
		result:  &Result{Role: role},
		warning: types.NewWarningCollector(true),
	}

	extractOpts := opts.Extract
	extractOpts.MinRunes = 0
	p.units = extract.ByIndex(extract.ExtractUnitsWithOptions(p.doc, extractOpts))

	byUnit := make(map[int][]types.MatchRecord)
	for _, rec := range matches {
		idx := rec.SourceUnit
		if role == RoleTarget {
			idx = rec.TargetUnit
		}
		byUnit[idx] = append(byUnit[idx], rec)
	}
	order := make([]int, 0, len(byUnit))
	for idx := range byUnit {
		order = append(order, idx)
	}
	sort.Ints(order)

	for _, idx := range order {
		p.annotateUnit(idx, byUnit[idx])
	}

	if p.nextID-1 > p.doc.MaxBookmarkID {
		p.doc.MaxBookmarkID = p.nextID - 1
	}
	p.result.FullUnits = p.state.Count(StateFull)
	p.result.PartialUnits = p.state.Count(StatePartial)
	p.result.Warnings = p.warning.Warnings()

	opts.Logger.Debug("annotation pass finished",
		zap.String("document", doc.Name),
		zap.String("role", string(role)),
		zap.Int("records", len(matches)),
		zap.Int("full_units", p.result.FullUnits),
		zap.Int("partial_units", p.result.PartialUnits),
		zap.Int("skipped", p.result.Skipped))

	return p.doc, p.result, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Extract.Normalizer == "" {
		opts.Extract.Normalizer = def.Extract.Normalizer
	}
	if opts.LabelFormat == "" {
		opts.LabelFormat = def.LabelFormat
	}
	if opts.LabelColor == "" {
		opts.LabelColor = def.LabelColor
	}
	if opts.FullHighlight == types.HighlightNone {
		opts.FullHighlight = def.FullHighlight
	}
	if opts.PartialHighlight == types.HighlightNone {
		opts.PartialHighlight = def.PartialHighlight
	}
	if opts.BookmarkPrefix == "" {
		opts.BookmarkPrefix = def.BookmarkPrefix
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	return opts
}

type pass struct {
	doc     *types.Document
	role    Role
	opts    Options
	units   map[int]types.ComparableUnit
	state   *ProcessingState
	nextID  int
	seq     int
	result  *Result
	warning *types.WarningCollector
}

func (p *pass) annotateUnit(idx int, records []types.MatchRecord) {
	if idx < 0 || idx >= len(p.doc.Paragraphs) {
		p.skip(idx, len(records), "unit index outside the document")
		return
	}
	unit := p.units[idx]
	para := &p.doc.Paragraphs[idx]

	for _, rec := range records {
		if p.state.Get(idx) == StateFull {
			return
		}
		page, line := p.counterpart(rec)

		if rec.Kind == types.FullUnitMatch {
			end := para.RuneLen()
			applyHighlight(para, types.Span{Start: 0, End: end}, p.opts.FullHighlight)
			p.state.Mark(idx, StateFull)
			p.addBookmark(para, end)
			p.addLabel(para, page, line)
			return
		}

		span := rec.SourceSpan
		if p.role == RoleTarget {
			span = rec.TargetSpan
		}
		orig, ok := unit.OriginalSpan(span)
		if !ok {
			p.skip(idx, 1, fmt.Sprintf("span %s outside the unit text", span))
			continue
		}
		applyHighlight(para, orig, p.opts.PartialHighlight)
		p.state.Mark(idx, StatePartial)
		p.addBookmark(para, orig.End)
		p.addLabel(para, page, line)
	}
}

func (p *pass) counterpart(rec types.MatchRecord) (page, line int) {
	if p.role == RoleSource {
		return rec.TargetPage, rec.TargetLine
	}
	return rec.SourcePage, rec.SourceLine
}

func (p *pass) addBookmark(para *types.Paragraph, offset int) {
	p.seq++
	para.Bookmarks = append(para.Bookmarks, types.Bookmark{
		ID:     p.nextID,
		Name:   fmt.Sprintf("%s_%s_%04d", p.opts.BookmarkPrefix, p.role, p.seq),
		Offset: offset,
	})
	p.nextID++
	p.result.Bookmarks++
}

func (p *pass) addLabel(para *types.Paragraph, page, line int) {
	para.Runs = append(para.Runs, types.Run{
		Text:  fmt.Sprintf(p.opts.LabelFormat, page, line),
		Color: p.opts.LabelColor,
		XRef:  true,
	})
	p.result.Labels++
}

func (p *pass) skip(idx, n int, reason string) {
	p.result.Skipped += n
	err := types.NewError(types.ErrCodeIndexOutOfRange, reason).
		WithContext("unit", idx).
		WithContext("document", p.doc.Name).
		WithContext("role", string(p.role))
	p.warning.Add(types.WarningFromError(types.WarningLevelWarning, err))
}
