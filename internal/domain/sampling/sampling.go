package sampling

import (
	"sort"
	"strings"

	"github.com/forPelevin/scriptcut/internal/types"
)

type Options struct {
	Budget   int
	Critical []string
	LowValue []string
}

// Sample picks at most opts.Budget candidates spread over the whole pool.
//
// Picks are taken at a uniform stride of len(pool)/Budget, the last pick is
// pinned to the final candidate when Budget > 1, and then up to Budget/4 low-value picks are
// swapped for the nearest unpicked critical candidate. A pool that already
// fits the budget is returned as is.
func Sample(pool []types.Candidate, opts Options) []types.Candidate {
	k := opts.Budget
	if k <= 0 || len(pool) <= k {
		return append([]types.Candidate(nil), pool...)
	}

	n := len(pool)
	stride := float64(n) / float64(k)
	picked := make([]int, 0, k)
	for i := 0; i < k; i++ {
		picked = append(picked, int(float64(i)*stride))
	}
	if k > 1 {
		picked[k-1] = n - 1
	}

	picked = rescueCritical(pool, picked, opts)

	out := make([]types.Candidate, 0, len(picked))
	for _, idx := range picked {
		out = append(out, pool[idx])
	}
	return out
}

func rescueCritical(pool []types.Candidate, picked []int, opts Options) []int {
	maxSwaps := opts.Budget / 4
	if maxSwaps == 0 || len(opts.Critical) == 0 || len(opts.LowValue) == 0 {
		return picked
	}
	critical := toSet(opts.Critical)
	low := toSet(opts.LowValue)

	inSample := make(map[int]bool, len(picked))
	for _, idx := range picked {
		inSample[idx] = true
	}
	var spare []int
	for i, c := range pool {
		if !inSample[i] && critical[c.ContentType] {
			spare = append(spare, i)
		}
	}
	if len(spare) == 0 {
		return picked
	}

	out := append([]int(nil), picked...)
	swaps := 0
	// first and last picks anchor the coverage and are never swapped out
	for pos := 1; pos < len(out)-1 && swaps < maxSwaps && len(spare) > 0; pos++ {
		if !low[pool[out[pos]].ContentType] {
			continue
		}
		j := nearest(spare, out[pos])
		out[pos] = spare[j]
		spare = append(spare[:j], spare[j+1:]...)
		swaps++
	}
	sort.Ints(out)
	return out
}

func nearest(idxs []int, target int) int {
	best := 0
	bestDist := abs(idxs[0] - target)
	for i := 1; i < len(idxs); i++ {
		if d := abs(idxs[i] - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[strings.ToLower(strings.TrimSpace(x))] = true
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
