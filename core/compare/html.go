package compare

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"path"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/benedoc-inc/overlap/core/extract"
	"github.com/benedoc-inc/overlap/types"
)

var textReportTemplate = template.Must(template.New("text").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Shared Content</title>
<style>
body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse;width:100%}
td,th{border:1px solid #ccc;padding:.4em;vertical-align:top}
del{background:#fdd;text-decoration:none}
ins{background:#dfd;text-decoration:none}
.shared{background:#ff0}
</style></head><body>
<h1>Shared content between {{.Source}} and {{.Target}}</h1>
<p>{{.Summary.TotalMatches}} matches ({{.Summary.FullMatches}} full, {{.Summary.PartialMatches}} partial), minimum length {{.MinLength}}.</p>
{{if not .Rows}}<p>No shared content found.</p>{{else}}
<table>
<tr><th>Source</th><th>Target</th><th>Shared</th><th>Difference</th></tr>
{{range .Rows}}<tr>
<td>page {{.SourcePage}}, line {{.SourceLine}}</td>
<td>page {{.TargetPage}}, line {{.TargetLine}}</td>
<td class="shared">{{.Text}}</td>
<td>{{.Diff}}</td>
</tr>
{{end}}</table>{{end}}
</body></html>
`))

var assetReportTemplate = template.Must(template.New("assets").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Image Comparison Result</title></head><body>
<h1>Common images between {{.Source}} and {{.Target}}</h1>
{{if not .Rows}}<p>No common images found between the two documents.</p>{{else}}
<table>
{{range .Rows}}<tr>
<td><img src="{{.SourceURI}}" alt="{{.SourceLabel}}"> (Page: {{.SourcePage}})</td>
<td><img src="{{.TargetURI}}" alt="{{.TargetLabel}}"> (Page: {{.TargetPage}})</td>
</tr>
{{end}}</table>{{end}}
</body></html>
`))

type textRow struct {
	SourcePage, SourceLine int
	TargetPage, TargetLine int
	Text                   string
	Diff                   template.HTML
}

// GenerateHTMLReport renders every match with an inline diff of the two units
// it joins. A unit pair is diffed once even when it has several matches.
func GenerateHTMLReport(result *ComparisonResult) ([]byte, error) {
	byA := extract.ByIndex(result.SourceUnits)
	byB := extract.ByIndex(result.TargetUnits)
	dmp := diffmatchpatch.New()
	diffs := make(map[[2]int]template.HTML)

	rows := make([]textRow, 0, len(result.Matches))
	for _, m := range result.Matches {
		key := [2]int{m.SourceUnit, m.TargetUnit}
		d, ok := diffs[key]
		if !ok {
			pair := dmp.DiffMain(byA[m.SourceUnit].Original, byB[m.TargetUnit].Original, false)
			pair = dmp.DiffCleanupSemantic(pair)
			// DiffPrettyHtml escapes the text it renders
			d = template.HTML(dmp.DiffPrettyHtml(pair))
			diffs[key] = d
		}
		rows = append(rows, textRow{
			SourcePage: m.SourcePage, SourceLine: m.SourceLine,
			TargetPage: m.TargetPage, TargetLine: m.TargetLine,
			Text: m.Text,
			Diff: d,
		})
	}

	var buf bytes.Buffer
	err := textReportTemplate.Execute(&buf, map[string]interface{}{
		"Source":    result.SourceName,
		"Target":    result.TargetName,
		"MinLength": result.MinLength,
		"Summary":   result.Summary,
		"Rows":      rows,
	})
	if err != nil {
		return nil, types.WrapError(types.ErrCodeWriteError, "failed to render HTML report", err)
	}
	return buf.Bytes(), nil
}

type assetRow struct {
	SourceURI, TargetURI     template.URL
	SourceLabel, TargetLabel string
	SourcePage, TargetPage   int
}

// GenerateAssetHTMLReport renders matched images side by side, embedded as
// data URIs so the page is self-contained.
func GenerateAssetHTMLReport(result *AssetComparisonResult) ([]byte, error) {
	rows := make([]assetRow, 0, len(result.Matches))
	for _, m := range result.Matches {
		rows = append(rows, assetRow{
			SourceURI:   dataURI(m.A),
			TargetURI:   dataURI(m.B),
			SourceLabel: m.A.Label,
			TargetLabel: m.B.Label,
			SourcePage:  m.A.Page,
			TargetPage:  m.B.Page,
		})
	}

	var buf bytes.Buffer
	err := assetReportTemplate.Execute(&buf, map[string]interface{}{
		"Source": result.SourceName,
		"Target": result.TargetName,
		"Rows":   rows,
	})
	if err != nil {
		return nil, types.WrapError(types.ErrCodeWriteError, "failed to render image report", err)
	}
	return buf.Bytes(), nil
}

func dataURI(a types.Asset) template.URL {
	mime := "application/octet-stream"
	switch path.Ext(a.Label) {
	case ".png":
		mime = "image/png"
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".gif":
		mime = "image/gif"
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(a.Data))
}
