// Package overlap finds text and images shared between two documents and
// marks the shared text in copies of both.
//
// Paragraphs are normalized and compared pairwise. Every common substring of
// at least a minimum length becomes a match; a paragraph that equals its
// counterpart entirely is a full match. Each annotated copy highlights its
// matches (turquoise for full, yellow for partial), places a bookmark after
// each one and appends a label with the counterpart's page and line.
//
// # Quick Start
//
//	import "github.com/benedoc-inc/overlap/core/compare"
//	import "github.com/benedoc-inc/overlap/core/annotate"
//
//	result, _ := compare.CompareDocuments(docA, docB)
//	annotated, _, _ := annotate.Annotate(docA, annotate.RoleSource, result.Matches, annotate.DefaultOptions())
//
// # Packages
//
//   - core/extract: comparable units and normalization
//   - core/match: common substrings and match records
//   - core/annotate: highlights, bookmarks and labels
//   - core/assets: byte-identical image matching
//   - core/compare: comparison results and reports
//   - formats: docx, JSON and PDF codecs
//   - storage, cache: output persistence and result caching
package overlap

import (
	"github.com/benedoc-inc/overlap/types"
)

const version = "0.3.0"

// Version returns the library version
func Version() string { return version }

// Re-export common types for convenience.

// Document is the structured document model.
type Document = types.Document

// ComparableUnit is one normalized paragraph or line.
type ComparableUnit = types.ComparableUnit

// MatchRecord is one shared span between two units.
type MatchRecord = types.MatchRecord

// Asset is one extracted image.
type Asset = types.Asset

// AssetPairMatch pairs two identical images.
type AssetPairMatch = types.AssetPairMatch

// Error is the structured error returned by every package.
type Error = types.Error
