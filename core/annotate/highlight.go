package annotate

import (
	"github.com/benedoc-inc/overlap/types"
)

// applyHighlight highlights the content text range s of p (rune offsets).
// Content runs crossing a boundary of s are split; the pieces outside s keep
// every attribute of the original run, the piece inside s gets the highlight on
// top of them. Label and raw runs are passed through untouched.
func applyHighlight(p *types.Paragraph, s types.Span, color types.HighlightColor) {
	if s.Start >= s.End {
		return
	}
	out := make([]types.Run, 0, len(p.Runs)+2)
	pos := 0
	for _, r := range p.Runs {
		if !r.IsContent() {
			out = append(out, r)
			continue
		}
		text := []rune(r.Text)
		rs, re := pos, pos+len(text)
		pos = re

		if re <= s.Start || rs >= s.End {
			out = append(out, r)
			continue
		}

		lo := max(s.Start, rs) - rs
		hi := min(s.End, re) - rs
		if lo > 0 {
			out = append(out, withText(r, string(text[:lo])))
		}
		mid := withText(r, string(text[lo:hi]))
		mid.Highlight = color
		out = append(out, mid)
		if hi < len(text) {
			out = append(out, withText(r, string(text[hi:])))
		}
	}
	p.Runs = out
}

func withText(r types.Run, text string) types.Run {
	out := r
	out.Text = text
	if r.Extra != nil {
		out.Extra = append([]types.RawProperty(nil), r.Extra...)
	}
	return out
}
