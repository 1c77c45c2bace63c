package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/benedoc-inc/overlap/core/assets"
	"github.com/benedoc-inc/overlap/core/compare"
	"github.com/benedoc-inc/overlap/formats"
	"github.com/benedoc-inc/overlap/formats/pdfdoc"
	"github.com/benedoc-inc/overlap/internal/logging"
	"github.com/benedoc-inc/overlap/storage"
	"github.com/benedoc-inc/overlap/types"
)

// AssetSet is the images of one document
type AssetSet struct {
	Name     string
	Assets   []types.Asset
	Warnings []*types.Warning
}

// ReadAssets extracts the images of a PDF document
func ReadAssets(in Input) (AssetSet, error) {
	f, err := formats.Detect(in.Name)
	if err != nil {
		return AssetSet{}, err
	}
	if f != types.FormatPDF {
		return AssetSet{}, types.NewErrorf(types.ErrCodeUnsupportedFormat, "cannot extract images from %s documents", f).
			WithContext("document", in.Name)
	}
	set, warnings, err := pdfdoc.ReadImages(in.Data, in.Name)
	if err != nil {
		return AssetSet{}, err
	}
	return AssetSet{Name: in.Name, Assets: set, Warnings: warnings}, nil
}

// LoadAssetDir reads an extracted image directory
func LoadAssetDir(dir string) (AssetSet, error) {
	set, err := assets.LoadDir(dir)
	if err != nil {
		return AssetSet{}, err
	}
	return AssetSet{Name: dir, Assets: set}, nil
}

// ImageOutcome is the result of an image comparison run
type ImageOutcome struct {
	Result  *compare.AssetComparisonResult `json:"result"`
	Outputs []string                       `json:"outputs"`
}

// CompareImages matches two image sets, saves the matched images of each
// document in its own directory and writes the HTML report, all below dir.
func (p *Pipeline) CompareImages(ctx context.Context, a, b AssetSet, dir string) (*ImageOutcome, error) {
	result := compare.CompareAssets(a.Name, a.Assets, b.Name, b.Assets)
	result.Warnings = append(append(result.Warnings, a.Warnings...), b.Warnings...)
	logging.Warnings(p.logger, result.Warnings)
	p.logger.Info("image comparison finished",
		zap.String("id", result.ID),
		zap.Int("source_images", len(a.Assets)),
		zap.Int("target_images", len(b.Assets)),
		zap.Int("matched", len(result.Matches)))

	store := storage.Sub(p.store, dir)
	out := &ImageOutcome{Result: result}
	var errs []error

	if err := assets.SaveMatched(ctx, store, result.Matches, a.Name, b.Name); err != nil {
		errs = append(errs, err)
	}

	html, err := compare.GenerateAssetHTMLReport(result)
	if err == nil {
		err = store.WriteFile(ctx, ImageReportFile, html)
	}
	if err != nil {
		errs = append(errs, err)
	} else {
		out.Outputs = append(out.Outputs, store.Location(ImageReportFile))
	}
	return out, errors.Join(errs...)
}
