package match

import "sort"

// maxGramSize bounds the q-gram length of the candidate index
const maxGramSize = 3

// gramIndex is an inverted index from q-grams to the target texts containing them.
// Two texts sharing a common substring of length >= q share at least one q-gram,
// so a pair absent from the index cannot contain a block of minLength >= q.
type gramIndex struct {
	q        int
	postings map[string][]int
}

func gramSize(minLength int) int {
	if minLength < maxGramSize {
		return minLength
	}
	return maxGramSize
}

// newGramIndex indexes every text of at least minLength runes by position
func newGramIndex(texts [][]rune, minLength int) *gramIndex {
	ix := &gramIndex{q: gramSize(minLength), postings: make(map[string][]int)}
	for pos, t := range texts {
		if len(t) < minLength {
			continue
		}
		for i := 0; i+ix.q <= len(t); i++ {
			g := string(t[i : i+ix.q])
			list := ix.postings[g]
			if n := len(list); n > 0 && list[n-1] == pos {
				continue
			}
			ix.postings[g] = append(list, pos)
		}
	}
	return ix
}

// candidates returns the ascending positions of indexed texts sharing a q-gram with t
func (ix *gramIndex) candidates(t []rune) []int {
	seen := make(map[int]struct{})
	for i := 0; i+ix.q <= len(t); i++ {
		for _, pos := range ix.postings[string(t[i:i+ix.q])] {
			seen[pos] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for pos := range seen {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// allCandidates returns every position whose text is long enough to match
func allCandidates(texts [][]rune, minLength int) []int {
	out := make([]int, 0, len(texts))
	for pos, t := range texts {
		if len(t) >= minLength {
			out = append(out, pos)
		}
	}
	return out
}
