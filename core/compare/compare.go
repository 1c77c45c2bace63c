// Package compare runs a complete comparison of two documents and renders
// the result as text, JSON and HTML reports.
package compare

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/benedoc-inc/overlap/core/assets"
	"github.com/benedoc-inc/overlap/core/extract"
	"github.com/benedoc-inc/overlap/core/match"
	"github.com/benedoc-inc/overlap/types"
)

// ComparisonResult represents the shared content found between two documents
type ComparisonResult struct {
	ID         string               `json:"id"`
	SourceName string               `json:"source"`
	TargetName string               `json:"target"`
	Format     types.DocumentFormat `json:"format"`
	MinLength  int                  `json:"min_length"`
	Shared     bool                 `json:"shared"`
	Matches    []types.MatchRecord  `json:"matches"`
	Summary    ComparisonSummary    `json:"summary"`

	SourceUnits []types.ComparableUnit `json:"source_units,omitempty"`
	TargetUnits []types.ComparableUnit `json:"target_units,omitempty"`
}

// ComparisonSummary provides a high-level summary of the matches
type ComparisonSummary struct {
	TotalMatches   int `json:"total_matches"`
	FullMatches    int `json:"full_matches"`
	PartialMatches int `json:"partial_matches"`
	SourceUnits    int `json:"source_units"`
	TargetUnits    int `json:"target_units"`
	SourceMatched  int `json:"source_units_matched"` // Distinct source units in at least one match
	TargetMatched  int `json:"target_units_matched"`
	SharedRunes    int `json:"shared_runes"` // Sum of source span lengths
}

// CompareOptions configures a document comparison
type CompareOptions struct {
	MinLength  int
	Extract    extract.Options
	Workers    int  // Parallel matching workers (default: GOMAXPROCS)
	Exhaustive bool // Disable the q-gram candidate filter

	// MinUnitRunes drops units shorter than the minimum match length before
	// matching. They can never match anyway; dropping them keeps the unit
	// lists in reports short, as for PDF lines.
	MinUnitRunes bool

	Logger *zap.Logger
}

// DefaultCompareOptions returns default comparison options
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{
		MinLength: match.DefaultMinLength,
		Extract:   extract.DefaultOptions(),
		Workers:   runtime.GOMAXPROCS(0),
		Logger:    zap.NewNop(),
	}
}

// CompareDocuments compares two documents with default options
func CompareDocuments(a, b *types.Document) (*ComparisonResult, error) {
	return CompareDocumentsWithOptions(context.Background(), a, b, DefaultCompareOptions())
}

// CompareDocumentsWithOptions extracts units from both documents, matches them
// and summarizes the result. Documents of different formats are rejected.
func CompareDocumentsWithOptions(ctx context.Context, a, b *types.Document, opts CompareOptions) (*ComparisonResult, error) {
	if a == nil || b == nil {
		return nil, types.NewError(types.ErrCodeUnreadableDocument, "both documents are required")
	}
	if a.Format != b.Format {
		return nil, types.NewErrorf(types.ErrCodeInvalidConfiguration,
			"cannot compare a %s document with a %s document", a.Format, b.Format).
			WithContext("source", a.Name).
			WithContext("target", b.Name)
	}
	if opts.MinLength < 1 {
		return nil, types.NewErrorf(types.ErrCodeInvalidConfiguration, "minimum match length must be at least 1, got %d", opts.MinLength).
			WithContext("min_length", opts.MinLength)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	extractOpts := opts.Extract
	if opts.MinUnitRunes {
		extractOpts.MinRunes = opts.MinLength
	}
	unitsA := extract.ExtractUnitsWithOptions(a, extractOpts)
	unitsB := extract.ExtractUnitsWithOptions(b, extractOpts)

	records, err := match.FindMatchesWithOptions(ctx, unitsA, unitsB, match.Options{
		MinLength:  opts.MinLength,
		Workers:    opts.Workers,
		Exhaustive: opts.Exhaustive,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	result := &ComparisonResult{
		ID:          ComparisonID(a, b, opts),
		SourceName:  a.Name,
		TargetName:  b.Name,
		Format:      a.Format,
		MinLength:   opts.MinLength,
		Shared:      len(records) > 0,
		Matches:     records,
		Summary:     summarize(records, len(unitsA), len(unitsB)),
		SourceUnits: unitsA,
		TargetUnits: unitsB,
	}

	logger.Info("comparison finished",
		zap.String("id", result.ID),
		zap.String("source", a.Name),
		zap.String("target", b.Name),
		zap.Int("matches", result.Summary.TotalMatches),
		zap.Int("full", result.Summary.FullMatches),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func summarize(records []types.MatchRecord, unitsA, unitsB int) ComparisonSummary {
	s := ComparisonSummary{
		TotalMatches: len(records),
		SourceUnits:  unitsA,
		TargetUnits:  unitsB,
	}
	seenA := make(map[int]bool)
	seenB := make(map[int]bool)
	for _, r := range records {
		if r.Kind == types.FullUnitMatch {
			s.FullMatches++
		} else {
			s.PartialMatches++
		}
		seenA[r.SourceUnit] = true
		seenB[r.TargetUnit] = true
		s.SharedRunes += r.SourceSpan.Len()
	}
	s.SourceMatched = len(seenA)
	s.TargetMatched = len(seenB)
	return s
}

// AssetComparisonResult represents the byte-identical assets of two documents
type AssetComparisonResult struct {
	ID         string                 `json:"id"`
	SourceName string                 `json:"source"`
	TargetName string                 `json:"target"`
	Matches    []types.AssetPairMatch `json:"matches"`
	Summary    AssetSummary           `json:"summary"`
	Warnings   []*types.Warning       `json:"warnings,omitempty"`
}

// AssetSummary counts assets on both sides
type AssetSummary struct {
	SourceAssets int `json:"source_assets"`
	TargetAssets int `json:"target_assets"`
	Matched      int `json:"matched"`
}

// CompareAssets matches two asset sets
func CompareAssets(sourceName string, a []types.Asset, targetName string, b []types.Asset) *AssetComparisonResult {
	matches := assets.MatchAssets(a, b)
	return &AssetComparisonResult{
		ID:         AssetComparisonID(a, b),
		SourceName: sourceName,
		TargetName: targetName,
		Matches:    matches,
		Summary: AssetSummary{
			SourceAssets: len(a),
			TargetAssets: len(b),
			Matched:      len(matches),
		},
	}
}
