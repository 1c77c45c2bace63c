package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/core/extract"
	"github.com/benedoc-inc/overlap/types"
)

func units(paragraphs ...string) []types.ComparableUnit {
	return extract.ExtractUnits(types.NewTextDocument("t", paragraphs...))
}

func TestFindMatches_FullUnitScenario(t *testing.T) {
	a := units("The quick brown fox", "jumps over")
	b := units("Something", "The quick brown fox")

	records, err := FindMatches(a, b, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, types.FullUnitMatch, rec.Kind)
	assert.Equal(t, 0, rec.SourceUnit)
	assert.Equal(t, 1, rec.TargetUnit)
	assert.Equal(t, types.Span{Start: 0, End: 16}, rec.SourceSpan)
	assert.Equal(t, types.Span{Start: 0, End: 16}, rec.TargetSpan)
	assert.Equal(t, 1, rec.SourcePage)
	assert.Equal(t, 1, rec.SourceLine)
	assert.Equal(t, 1, rec.TargetPage)
	assert.Equal(t, 2, rec.TargetLine)
	assert.Equal(t, "Thequickbrownfox", rec.Text)
}

func TestFindMatches_InvalidMinLengthBeforeMatching(t *testing.T) {
	for _, n := range []int{0, -3} {
		records, err := FindMatches(units("abc"), units("abc"), n)
		assert.Nil(t, records)
		require.Error(t, err)
		assert.True(t, types.IsInvalidConfiguration(err))
	}
}

func TestFindMatches_PartialSpans(t *testing.T) {
	a := units("Preamble. All rights reserved by the author. Epilogue.")
	b := units("Copyright notice: all rights reserved by the author!")

	records, err := FindMatches(a, b, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, types.PartialSpanMatch, rec.Kind)
	assert.Equal(t, rec.SourceSpan.Len(), rec.TargetSpan.Len())
	assert.Equal(t, "llrightsreservedbytheauthor", rec.Text)
}

func TestFindMatches_SortedAndDeterministic(t *testing.T) {
	shared := []string{
		"shared paragraph number one",
		"another shared paragraph here",
		"a third piece of common text",
	}
	a := units("unique intro text for a", shared[2], "filler", shared[0], shared[1])
	b := units(shared[1], shared[0], "different intro text", shared[2])

	first, err := FindMatches(a, b, 8)
	require.NoError(t, err)
	second, err := FindMatches(a, b, 8)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		ordered := prev.SourceUnit < cur.SourceUnit ||
			(prev.SourceUnit == cur.SourceUnit && prev.SourceSpan.Start <= cur.SourceSpan.Start)
		assert.True(t, ordered, "records %d and %d out of order", i-1, i)
	}

	var full int
	for _, r := range first {
		if r.Kind == types.FullUnitMatch {
			full++
		}
	}
	assert.Equal(t, 3, full)
}

func TestFindMatches_IndexedEqualsExhaustive(t *testing.T) {
	var pa, pb []string
	for i := 0; i < 40; i++ {
		pa = append(pa, fmt.Sprintf("clause %d: the parties agree to terms %d", i, i%7))
		pb = append(pb, fmt.Sprintf("section %d says the parties agree to terms %d", i*3, i%5))
	}
	a, b := units(pa...), units(pb...)

	for _, minLen := range []int{1, 2, 5, 12} {
		opts := DefaultOptions()
		opts.MinLength = minLen
		opts.Workers = 4
		indexed, err := FindMatchesWithOptions(context.Background(), a, b, opts)
		require.NoError(t, err)

		opts.Exhaustive = true
		exhaustive, err := FindMatchesWithOptions(context.Background(), a, b, opts)
		require.NoError(t, err)

		assert.Equal(t, exhaustive, indexed, "min length %d", minLen)
	}
}

func TestFindMatches_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.MinLength = 3
	_, err := FindMatchesWithOptions(ctx, units("abcdef"), units("abcdef"), opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate_Dedup(t *testing.T) {
	a := units("xxHelloWorldxx")
	b := units("HelloWorld!!")
	pair := PairBlocks{SourceUnit: 0, TargetUnit: 0, Result: PairResult{Blocks: []Block{{A: 2, B: 0, Size: 10}}}}

	records := Aggregate(a, b, []PairBlocks{pair, pair})
	require.Len(t, records, 1)
	assert.Equal(t, "HelloWorld", records[0].Text)
	assert.Equal(t, types.Span{Start: 2, End: 12}, records[0].SourceSpan)
	assert.Equal(t, types.Span{Start: 0, End: 10}, records[0].TargetSpan)
}

func TestAggregate_IgnoresUnknownUnits(t *testing.T) {
	a := units("HelloWorld")
	b := units("HelloWorld")
	pair := PairBlocks{SourceUnit: 5, TargetUnit: 0, Result: PairResult{Full: true}}

	assert.Empty(t, Aggregate(a, b, []PairBlocks{pair}))
}
