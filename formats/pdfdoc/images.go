package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"

	"rsc.io/pdf"

	"github.com/benedoc-inc/overlap/core/assets"
	"github.com/benedoc-inc/overlap/types"
)

// ReadImages extracts the image XObjects of every page as assets labelled
// page_N_img_M. 8-bit RGB and gray images are re-encoded as PNG; other
// decodable images keep their decoded bytes (.bin). Images whose filter cannot
// be decoded are skipped with a warning, but still consume their index so
// labels stay stable.
func ReadImages(data []byte, name string) (out []types.Asset, warnings []*types.Warning, err error) {
	r, err := open(data, name)
	if err != nil {
		return nil, nil, err
	}
	defer recoverUnreadable(name, &err)

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		xobjs := page.Resources().Key("XObject")
		keys := xobjs.Keys()
		sort.Strings(keys)

		index := 0
		for _, k := range keys {
			x := xobjs.Key(k)
			if x.Key("Subtype").Name() != "Image" {
				continue
			}
			index++
			asset, werr := readImage(x, i, index)
			if werr != nil {
				warnings = append(warnings, types.NewWarningWithCode(types.WarningLevelWarning,
					string(types.ErrCodeUnsupportedFormat), werr.Error()).
					WithContext("document", name).
					WithContext("page", i).
					WithContext("image", index))
				continue
			}
			out = append(out, asset)
		}
	}
	return out, warnings, nil
}

func readImage(x pdf.Value, page, index int) (asset types.Asset, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("image %d on page %d: %v", index, page, rec)
		}
	}()
	if f := filterName(x); f != "" && f != "FlateDecode" && f != "ASCII85Decode" {
		return asset, fmt.Errorf("image %d on page %d: unsupported filter %s", index, page, f)
	}

	rc := x.Reader()
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return asset, fmt.Errorf("image %d on page %d: %w", index, page, err)
	}

	body, ext := encodeImage(x, raw)
	return types.Asset{
		Label: assets.Label(page, index, ext),
		Page:  page,
		Index: index,
		Data:  body,
	}, nil
}

func filterName(x pdf.Value) string {
	f := x.Key("Filter")
	switch f.Kind() {
	case pdf.Name:
		return f.Name()
	case pdf.Array:
		if f.Len() == 1 {
			return f.Index(0).Name()
		}
		if f.Len() > 1 {
			return "chained filters"
		}
	}
	return ""
}

func encodeImage(x pdf.Value, raw []byte) ([]byte, string) {
	w, h := int(x.Key("Width").Int64()), int(x.Key("Height").Int64())
	if w <= 0 || h <= 0 || x.Key("BitsPerComponent").Int64() != 8 {
		return raw, "bin"
	}

	var img image.Image
	switch x.Key("ColorSpace").Name() {
	case "DeviceRGB":
		if len(raw) < w*h*3 {
			return raw, "bin"
		}
		rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
		for p := 0; p < w*h; p++ {
			copy(rgba.Pix[p*4:p*4+3], raw[p*3:p*3+3])
			rgba.Pix[p*4+3] = 0xff
		}
		img = rgba
	case "DeviceGray":
		if len(raw) < w*h {
			return raw, "bin"
		}
		gray := image.NewGray(image.Rect(0, 0, w, h))
		copy(gray.Pix, raw[:w*h])
		img = gray
	default:
		return raw, "bin"
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return raw, "bin"
	}
	return buf.Bytes(), "png"
}
