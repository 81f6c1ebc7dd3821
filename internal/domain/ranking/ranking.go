// Package ranking orders scored participants and detects tie groups.
package ranking

import (
	"sort"

	"github.com/okian/charades/internal/domain/model"
)

// Rank returns the results sorted by score, highest first. The sort is
// stable so participants with exactly equal scores keep their input
// order; the payout calculator relies on that when grouping ties.
func Rank(results []model.ScoreResult) []model.ScoreResult {
	ranked := append([]model.ScoreResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// GroupTies partitions an already ranked sequence into maximal runs of
// identical score values, preserving rank order.
func GroupTies(ranked []model.ScoreResult) [][]model.ScoreResult {
	if len(ranked) == 0 {
		return nil
	}
	var groups [][]model.ScoreResult
	start := 0
	for i := 1; i <= len(ranked); i++ {
		if i == len(ranked) || ranked[i].Score != ranked[start].Score {
			groups = append(groups, ranked[start:i])
			start = i
		}
	}
	return groups
}
