package store

import (
	"cmp"
	"math"
	"slices"
)

// Best reduces duplicate rows to one per configuration key, keeping the row
// with the highest final accuracy (ties keep the later row). The result is
// sorted by key.
func Best(rows []Row) []Row {
	best := make(map[Key]Row, len(rows))
	for _, r := range rows {
		cur, ok := best[r.Key()]
		if !ok || better(r, cur) {
			best[r.Key()] = r
		}
	}

	out := make([]Row, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Row) int {
		return cmp.Or(
			cmp.Compare(a.Dataset, b.Dataset),
			cmp.Compare(a.ActHidden, b.ActHidden),
			cmp.Compare(a.ActInit, b.ActInit),
			cmp.Compare(a.Seed, b.Seed),
		)
	})
	return out
}

func better(candidate, current Row) bool {
	if math.IsNaN(current.FinalAcc) {
		return true
	}
	return candidate.FinalAcc >= current.FinalAcc
}
