package compare

import (
	"fmt"
	"hash"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/benedoc-inc/overlap/core/assets"
	"github.com/benedoc-inc/overlap/types"
)

// idNamespace scopes comparison ids so they never collide with other v5 ids
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/benedoc-inc/overlap/comparison"))

// ComparisonID derives a stable id from the content of both documents and every
// option that affects the result. Names are not part of the id: renaming a
// file yields the same comparison.
func ComparisonID(a, b *types.Document, opts CompareOptions) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "min=%d norm=%s fold=%t lpp=%d drop=%t\n",
		opts.MinLength, opts.Extract.Normalizer, opts.Extract.FoldWidth, opts.Extract.LinesPerPage, opts.MinUnitRunes)
	writeDocument(h, a)
	writeDocument(h, b)
	return uuid.NewSHA1(idNamespace, h.Sum(nil)).String()
}

func writeDocument(h hash.Hash, d *types.Document) {
	fmt.Fprintf(h, "doc %s %d\n", d.Format, len(d.Paragraphs))
	for _, p := range d.Paragraphs {
		text := p.Text()
		fmt.Fprintf(h, "%d:%d:%d:%s\n", p.Page, p.Line, len(text), text)
	}
}

// AssetComparisonID derives a stable id from the fingerprints and labels of two
// asset sets.
func AssetComparisonID(a, b []types.Asset) string {
	h, _ := blake2b.New256(nil)
	writeAssets(h, a)
	writeAssets(h, b)
	return uuid.NewSHA1(idNamespace, h.Sum(nil)).String()
}

func writeAssets(h hash.Hash, set []types.Asset) {
	lines := make([]string, 0, len(set))
	for _, a := range set {
		lines = append(lines, a.Label+"="+string(assets.Fingerprint(a.Data)))
	}
	sort.Strings(lines)
	fmt.Fprintf(h, "assets %d\n", len(lines))
	for _, l := range lines {
		fmt.Fprintln(h, l)
	}
}
