package match

import (
	"sort"

	"github.com/benedoc-inc/overlap/core/extract"
	"github.com/benedoc-inc/overlap/types"
)

// PairBlocks is the raw matcher output for one (source unit, target unit) pair
type PairBlocks struct {
	SourceUnit int // Unit index in the source document
	TargetUnit int // Unit index in the target document
	Result     PairResult
}

// Aggregate turns raw pair results into the canonical record list: page/line are
// copied from the owning units, kinds are assigned, identical records are dropped
// and the list is ordered by source unit, then source span start. Target unit and
// target span start break remaining ties so the order is fully deterministic.
// Pairs referencing unknown units are ignored.
func Aggregate(unitsA, unitsB []types.ComparableUnit, pairs []PairBlocks) []types.MatchRecord {
	byA := extract.ByIndex(unitsA)
	byB := extract.ByIndex(unitsB)

	seen := make(map[types.MatchKey]struct{})
	records := make([]types.MatchRecord, 0, len(pairs))
	add := func(rec types.MatchRecord) {
		k := rec.Key()
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		records = append(records, rec)
	}

	for _, p := range pairs {
		ua, okA := byA[p.SourceUnit]
		ub, okB := byB[p.TargetUnit]
		if !okA || !okB {
			continue
		}
		base := types.MatchRecord{
			SourceUnit: ua.Index,
			SourcePage: ua.Page,
			SourceLine: ua.Line,
			TargetUnit: ub.Index,
			TargetPage: ub.Page,
			TargetLine: ub.Line,
		}

		if p.Result.Full {
			rec := base
			rec.Kind = types.FullUnitMatch
			rec.SourceSpan = types.Span{Start: 0, End: ua.RuneLen()}
			rec.TargetSpan = types.Span{Start: 0, End: ub.RuneLen()}
			rec.Text = ua.Text
			add(rec)
			continue
		}

		textA := []rune(ua.Text)
		for _, b := range p.Result.Blocks {
			if b.A+b.Size > len(textA) {
				continue
			}
			rec := base
			rec.Kind = types.PartialSpanMatch
			rec.SourceSpan = b.SpanA()
			rec.TargetSpan = b.SpanB()
			rec.Text = string(textA[b.A : b.A+b.Size])
			add(rec)
		}
	}

	SortRecords(records)
	return records
}

// SortRecords orders records the way the annotator consumes them
func SortRecords(records []types.MatchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.SourceUnit != b.SourceUnit {
			return a.SourceUnit < b.SourceUnit
		}
		if a.SourceSpan.Start != b.SourceSpan.Start {
			return a.SourceSpan.Start < b.SourceSpan.Start
		}
		if a.TargetUnit != b.TargetUnit {
			return a.TargetUnit < b.TargetUnit
		}
		return a.TargetSpan.Start < b.TargetSpan.Start
	})
}
