package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/benedoc-inc/overlap/storage"
	"github.com/benedoc-inc/overlap/types"
)

var labelPattern = regexp.MustCompile(`page_(\d+)_img_(\d+)\.\w+`)

// Label builds the canonical asset label, e.g. page_3_img_1.png
func Label(page, index int, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("page_%d_img_%d.%s", page, index, ext)
}

// ParseLabel extracts the 1-based page and image index from a label
func ParseLabel(label string) (page, index int, ok bool) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, false
	}
	page, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	index, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return page, index, true
}

// NewAsset builds an asset from a label and its bytes. Labels that do not
// follow the page_N_img_M pattern get page 0.
func NewAsset(label string, data []byte) types.Asset {
	a := types.Asset{Label: label, Data: data}
	if page, index, ok := ParseLabel(label); ok {
		a.Page, a.Index = page, index
	}
	return a
}

// LoadDir reads every regular file of dir as an asset, sorted by label order
func LoadDir(dir string) ([]types.Asset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeUnreadableDocument, "failed to list asset directory", err).
			WithContext("document", dir)
	}
	var out []types.Asset
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, types.WrapError(types.ErrCodeUnreadableDocument, "failed to read asset", err).
				WithContext("document", dir).
				WithContext("asset", e.Name())
		}
		out = append(out, NewAsset(e.Name(), data))
	}
	SortAssets(out)
	return out, nil
}

// SaveMatched writes the matched assets of both documents below one directory
// per document, named after the document base name (see DocumentDirs). Each side stores its own
// asset under its own label. Failures are collected per document.
func SaveMatched(ctx context.Context, store storage.Writer, matches []types.AssetPairMatch, docA, docB string) error {
	dirA, dirB := DocumentDirs(docA, docB)

	var errs []error
	for _, m := range matches {
		if err := store.WriteFile(ctx, path.Join(dirA, m.A.Label), m.A.Data); err != nil {
			errs = append(errs, withDocument(err, docA))
		}
		if err := store.WriteFile(ctx, path.Join(dirB, m.B.Label), m.B.Data); err != nil {
			errs = append(errs, withDocument(err, docB))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// DocumentDir returns the output directory name used for a document
func DocumentDir(doc string) string {
	base := filepath.Base(doc)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentDirs returns the output directories of two documents. When both
// share a base name the second gets a _2 suffix.
func DocumentDirs(docA, docB string) (string, string) {
	a, b := DocumentDir(docA), DocumentDir(docB)
	if strings.EqualFold(a, b) {
		b += "_2"
	}
	return a, b
}

func withDocument(err error, doc string) error {
	if e, ok := types.AsError(err); ok {
		return e.WithContext("document", doc)
	}
	return types.WrapError(types.ErrCodeWriteError, "failed to save asset", err).WithContext("document", doc)
}
