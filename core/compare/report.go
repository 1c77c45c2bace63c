package compare

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/benedoc-inc/overlap/core/extract"
	"github.com/benedoc-inc/overlap/types"
)

// GenerateReport generates a human-readable report from a comparison result
func GenerateReport(result *ComparisonResult) string {
	var report strings.Builder

	report.WriteString("Shared Content Report\n")
	report.WriteString(strings.Repeat("=", 50) + "\n\n")
	report.WriteString(fmt.Sprintf("Source: %s\n", result.SourceName))
	report.WriteString(fmt.Sprintf("Target: %s\n", result.TargetName))
	report.WriteString(fmt.Sprintf("Minimum match length: %d\n\n", result.MinLength))

	if !result.Shared {
		report.WriteString("No shared content found\n")
		return report.String()
	}

	s := result.Summary
	report.WriteString(fmt.Sprintf("Total Matches: %d (%d full, %d partial)\n", s.TotalMatches, s.FullMatches, s.PartialMatches))
	report.WriteString(fmt.Sprintf("Source units matched: %d of %d\n", s.SourceMatched, s.SourceUnits))
	report.WriteString(fmt.Sprintf("Target units matched: %d of %d\n", s.TargetMatched, s.TargetUnits))
	report.WriteString(fmt.Sprintf("Shared characters: %d\n\n", s.SharedRunes))

	report.WriteString("Matches:\n")
	report.WriteString(strings.Repeat("-", 30) + "\n")
	for _, m := range result.Matches {
		kind := "partial"
		if m.Kind == types.FullUnitMatch {
			kind = "full"
		}
		report.WriteString(fmt.Sprintf("  [%s] page %d, line %d %s <-> page %d, line %d %s\n",
			kind, m.SourcePage, m.SourceLine, m.SourceSpan, m.TargetPage, m.TargetLine, m.TargetSpan))
		report.WriteString(fmt.Sprintf("    %q\n", m.Text))
	}
	return report.String()
}

// GenerateJSONReport generates a JSON report from a comparison result
func GenerateJSONReport(result *ComparisonResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// ReportLine is one unit as listed in the common-paragraphs report
type ReportLine struct {
	Page int    `json:"page"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// CommonParagraph is one matched unit pair with its shared substring
type CommonParagraph struct {
	File1            string   `json:"file1"`
	Page1            int      `json:"page1"`
	Line1            int      `json:"line1"`
	Text1            string   `json:"text1"`
	File2            string   `json:"file2"`
	Page2            int      `json:"page2"`
	Line2            int      `json:"line2"`
	Text2            string   `json:"text2"`
	CommonSubstrings []string `json:"common_substrings"`
}

// CommonParagraphsReport lists the units of both documents and every match
// between them
type CommonParagraphsReport struct {
	Paragraphs1      []ReportLine      `json:"paragraphs1"`
	Paragraphs2      []ReportLine      `json:"paragraphs2"`
	CommonParagraphs []CommonParagraph `json:"common_paragraphs"`
}

// BuildCommonParagraphs builds the common-paragraphs report of a result
func BuildCommonParagraphs(result *ComparisonResult) *CommonParagraphsReport {
	out := &CommonParagraphsReport{
		Paragraphs1:      reportLines(result.SourceUnits),
		Paragraphs2:      reportLines(result.TargetUnits),
		CommonParagraphs: make([]CommonParagraph, 0, len(result.Matches)),
	}
	byA := extract.ByIndex(result.SourceUnits)
	byB := extract.ByIndex(result.TargetUnits)
	for _, m := range result.Matches {
		out.CommonParagraphs = append(out.CommonParagraphs, CommonParagraph{
			File1:            result.SourceName,
			Page1:            m.SourcePage,
			Line1:            m.SourceLine,
			Text1:            byA[m.SourceUnit].Original,
			File2:            result.TargetName,
			Page2:            m.TargetPage,
			Line2:            m.TargetLine,
			Text2:            byB[m.TargetUnit].Original,
			CommonSubstrings: []string{m.Text},
		})
	}
	return out
}

// GenerateCommonParagraphsJSON renders BuildCommonParagraphs as indented JSON.
// Non-ASCII text is written as-is.
func GenerateCommonParagraphsJSON(result *ComparisonResult) ([]byte, error) {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(BuildCommonParagraphs(result)); err != nil {
		return nil, types.WrapError(types.ErrCodeWriteError, "failed to encode common paragraphs report", err)
	}
	return []byte(buf.String()), nil
}

func reportLines(units []types.ComparableUnit) []ReportLine {
	lines := make([]ReportLine, 0, len(units))
	for _, u := range units {
		lines = append(lines, ReportLine{Page: u.Page, Line: u.Line, Text: u.Original})
	}
	return lines
}

// GenerateAssetReport generates a human-readable report from an asset comparison
func GenerateAssetReport(result *AssetComparisonResult) string {
	var report strings.Builder

	report.WriteString("Shared Image Report\n")
	report.WriteString(strings.Repeat("=", 50) + "\n\n")
	report.WriteString(fmt.Sprintf("Source: %s (%d images)\n", result.SourceName, result.Summary.SourceAssets))
	report.WriteString(fmt.Sprintf("Target: %s (%d images)\n\n", result.TargetName, result.Summary.TargetAssets))

	if len(result.Matches) == 0 {
		report.WriteString("No common images found\n")
	} else {
		report.WriteString(fmt.Sprintf("Common Images: %d\n", len(result.Matches)))
		report.WriteString(strings.Repeat("-", 30) + "\n")
		for _, m := range result.Matches {
			report.WriteString(fmt.Sprintf("  %s (page %d) = %s (page %d)\n", m.A.Label, m.A.Page, m.B.Label, m.B.Page))
		}
	}

	if len(result.Warnings) > 0 {
		report.WriteString("\nWarnings:\n")
		for _, w := range result.Warnings {
			report.WriteString(fmt.Sprintf("  %s\n", w.Message))
		}
	}
	return report.String()
}
