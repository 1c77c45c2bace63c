// Package match finds content shared between the units of two documents.
//
// Every source unit is compared with every target unit that can possibly share a
// block of the minimum length; identical units produce one full match, other pairs
// are decomposed into maximal common blocks. The per-pair work runs in parallel and
// is merged by Aggregate into a deterministic, sorted record list.
package match

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benedoc-inc/overlap/types"
)

// DefaultMinLength is the minimum match length in runes used when none is configured
const DefaultMinLength = 13

// Options configures a matching run
type Options struct {
	MinLength  int
	Workers    int  // Parallel source units; <= 0 uses GOMAXPROCS
	Exhaustive bool // Compare every pair instead of consulting the q-gram index
	Logger     *zap.Logger
}

// DefaultOptions returns options with DefaultMinLength and one worker per CPU
func DefaultOptions() Options {
	return Options{
		MinLength: DefaultMinLength,
		Logger:    zap.NewNop(),
	}
}

// FindMatches matches two unit sequences with the given minimum length
func FindMatches(unitsA, unitsB []types.ComparableUnit, minLength int) ([]types.MatchRecord, error) {
	opts := DefaultOptions()
	opts.MinLength = minLength
	return FindMatchesWithOptions(context.Background(), unitsA, unitsB, opts)
}

// FindMatchesWithOptions matches two unit sequences. It performs no I/O; ctx only
// lets a caller abandon a long run.
func FindMatchesWithOptions(ctx context.Context, unitsA, unitsB []types.ComparableUnit, opts Options) ([]types.MatchRecord, error) {
	if opts.MinLength < 1 {
		return nil, invalidMinLength(opts.MinLength)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	start := time.Now()

	textsA := unitRunes(unitsA)
	textsB := unitRunes(unitsB)

	var ix *gramIndex
	if !opts.Exhaustive {
		ix = newGramIndex(textsB, opts.MinLength)
	}

	perSource := make([][]PairBlocks, len(unitsA))
	compared := make([]int, len(unitsA))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range unitsA {
		if len(textsA[i]) < opts.MinLength {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var cands []int
			if ix != nil {
				cands = ix.candidates(textsA[i])
			} else {
				cands = allCandidates(textsB, opts.MinLength)
			}
			compared[i] = len(cands)

			var out []PairBlocks
			for _, j := range cands {
				res, err := Compare(textsA[i], textsB[j], opts.MinLength)
				if err != nil {
					return err
				}
				if res.Empty() {
					continue
				}
				out = append(out, PairBlocks{
					SourceUnit: unitsA[i].Index,
					TargetUnit: unitsB[j].Index,
					Result:     res,
				})
			}
			perSource[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pairs []PairBlocks
	var pairCount int
	for i, ps := range perSource {
		pairs = append(pairs, ps...)
		pairCount += compared[i]
	}
	records := Aggregate(unitsA, unitsB, pairs)

	logger.Debug("matching finished",
		zap.Int("source_units", len(unitsA)),
		zap.Int("target_units", len(unitsB)),
		zap.Int("pairs_compared", pairCount),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return records, nil
}

func unitRunes(units []types.ComparableUnit) [][]rune {
	out := make([][]rune, len(units))
	for i, u := range units {
		out[i] = []rune(u.Text)
	}
	return out
}
