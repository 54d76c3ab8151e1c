// Package compare computes watchlist overlap between a user and their
// friends.
package compare

import "sort"

// Result holds the common titles shared with one friend, sorted
// alphabetically.
type Result struct {
	Friend string
	Titles []string
}

// Watchlists intersects the user's title set with each friend's. Friends are
// processed in the given order; friends with no overlap are omitted from the
// result. Titles match by exact string only.
func Watchlists(user map[string]struct{}, friends []string, friendLists map[string]map[string]struct{}) []Result {
	var results []Result
	for _, friend := range friends {
		list, ok := friendLists[friend]
		if !ok {
			continue
		}
		var common []string
		for title := range list {
			if _, shared := user[title]; shared {
				common = append(common, title)
			}
		}
		if len(common) == 0 {
			continue
		}
		sort.Strings(common)
		results = append(results, Result{Friend: friend, Titles: common})
	}
	return results
}

// TotalTitles sums the overlap sizes across all results.
func TotalTitles(results []Result) int {
	total := 0
	for _, result := range results {
		total += len(result.Titles)
	}
	return total
}
