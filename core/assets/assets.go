// Package assets matches byte-identical binary assets (usually images) between
// two documents.
//
// Matching is exact: assets are compared by a BLAKE2b-256 digest of
// their raw bytes, so re-encoded or resized copies never match while identical
// bytes always do, whatever their labels.
package assets

import (
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/benedoc-inc/overlap/types"
)

// Fingerprint returns the hex BLAKE2b-256 digest of data
func Fingerprint(data []byte) types.AssetFingerprint {
	sum := blake2b.Sum256(data)
	return types.AssetFingerprint(hex.EncodeToString(sum[:]))
}

// Index maps fingerprints to assets of one document. When a document holds the
// same bytes more than once, the first asset in label order is kept.
func Index(set []types.Asset) map[types.AssetFingerprint]types.Asset {
	sorted := append([]types.Asset(nil), set...)
	SortAssets(sorted)

	idx := make(map[types.AssetFingerprint]types.Asset, len(sorted))
	for _, a := range sorted {
		fp := Fingerprint(a.Data)
		if _, dup := idx[fp]; dup {
			continue
		}
		idx[fp] = a
	}
	return idx
}

// MatchAssets returns every pair of byte-identical assets between a and b,
// ordered by the page of the asset in a, then its label.
func MatchAssets(a, b []types.Asset) []types.AssetPairMatch {
	ia := Index(a)
	ib := Index(b)

	out := make([]types.AssetPairMatch, 0)
	for fp, x := range ia {
		y, ok := ib[fp]
		if !ok {
			continue
		}
		out = append(out, types.AssetPairMatch{Fingerprint: fp, A: x, B: y})
	}
	sort.Slice(out, func(i, j int) bool {
		return assetLess(out[i].A, out[j].A)
	})
	return out
}

// SortAssets orders assets by page, index within the page, then label
func SortAssets(set []types.Asset) {
	sort.SliceStable(set, func(i, j int) bool {
		return assetLess(set[i], set[j])
	})
}

func assetLess(a, b types.Asset) bool {
	if a.Page != b.Page {
		return a.Page < b.Page
	}
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return a.Label < b.Label
}
