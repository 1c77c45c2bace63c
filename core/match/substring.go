package match

import (
	"sort"

	"github.com/benedoc-inc/overlap/types"
)

// Block is one maximal common substring: a[A:A+Size] == b[B:B+Size]
type Block struct {
	A    int `json:"a"`
	B    int `json:"b"`
	Size int `json:"size"`
}

// SpanA returns the block's range in the first text
func (b Block) SpanA() types.Span {
	return types.Span{Start: b.A, End: b.A + b.Size}
}

// SpanB returns the block's range in the second text
func (b Block) SpanB() types.Span {
	return types.Span{Start: b.B, End: b.B + b.Size}
}

// PairResult is the outcome of comparing two unit texts
type PairResult struct {
	Full   bool    // Texts are identical and long enough; Blocks holds the single covering block
	Blocks []Block // Ordered by A
}

// Empty reports whether the comparison found nothing
func (r PairResult) Empty() bool {
	return !r.Full && len(r.Blocks) == 0
}

// Compare matches two normalized unit texts. Identical texts of at least
// minLength runes yield a single full match instead of a decomposition.
func Compare(a, b []rune, minLength int) (PairResult, error) {
	if minLength < 1 {
		return PairResult{}, invalidMinLength(minLength)
	}
	if len(a) >= minLength && equalRunes(a, b) {
		return PairResult{Full: true, Blocks: []Block{{A: 0, B: 0, Size: len(a)}}}, nil
	}
	blocks, err := Blocks(a, b, minLength)
	if err != nil {
		return PairResult{}, err
	}
	return PairResult{Blocks: blocks}, nil
}

// Blocks decomposes the common content of a and b into non-overlapping blocks of
// at least minLength runes. The longest common substring is taken first, then the
// regions to its left and right are searched the same way until no block of
// minLength remains. Equal-length candidates resolve to the earliest start in a,
// then the earliest start in b. The result is ordered by position in a.
func Blocks(a, b []rune, minLength int) ([]Block, error) {
	if minLength < 1 {
		return nil, invalidMinLength(minLength)
	}
	if len(a) < minLength || len(b) < minLength {
		return nil, nil
	}

	type region struct{ alo, ahi, blo, bhi int }

	var blocks []Block
	scratch := newRows(len(b))
	queue := []region{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		r := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		blk := longestMatch(a, b, r.alo, r.ahi, r.blo, r.bhi, scratch)
		if blk.Size < minLength {
			continue
		}
		blocks = append(blocks, blk)

		if blk.A-r.alo >= minLength && blk.B-r.blo >= minLength {
			queue = append(queue, region{r.alo, blk.A, r.blo, blk.B})
		}
		aEnd, bEnd := blk.A+blk.Size, blk.B+blk.Size
		if r.ahi-aEnd >= minLength && r.bhi-bEnd >= minLength {
			queue = append(queue, region{aEnd, r.ahi, bEnd, r.bhi})
		}
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].A != blocks[j].A {
			return blocks[i].A < blocks[j].A
		}
		return blocks[i].B < blocks[j].B
	})
	return blocks, nil
}

type rows struct {
	prev, cur []int
}

func newRows(n int) *rows {
	return &rows{prev: make([]int, n+1), cur: make([]int, n+1)}
}

// longestMatch finds the longest common substring of a[alo:ahi] and b[blo:bhi].
// Rows are scanned with i then j ascending and only a strictly longer run replaces
// the best one, which yields the earliest-start tie-break.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int, s *rows) Block {
	best := Block{A: alo, B: blo}
	n := bhi - blo
	prev, cur := s.prev[:n+1], s.cur[:n+1]
	for k := range prev {
		prev[k] = 0
		cur[k] = 0
	}

	for i := alo; i < ahi; i++ {
		ai := a[i]
		for j := blo; j < bhi; j++ {
			k := j - blo + 1
			if ai != b[j] {
				cur[k] = 0
				continue
			}
			cur[k] = prev[k-1] + 1
			if cur[k] > best.Size {
				best = Block{A: i - cur[k] + 1, B: j - cur[k] + 1, Size: cur[k]}
			}
		}
		prev, cur = cur, prev
	}
	return best
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func invalidMinLength(n int) *types.Error {
	return types.NewErrorf(types.ErrCodeInvalidConfiguration, "minimum match length must be at least 1, got %d", n).
		WithContext("min_length", n)
}
