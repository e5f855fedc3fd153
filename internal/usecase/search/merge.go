package search

import (
	"sort"

	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
)

// accumulator gathers cascade results with dedup by id, keeping the first
// occurrence so the highest-priority strategy's version wins, bounded by
// the result cap.
type accumulator struct {
	cap     int
	seen    map[string]struct{}
	results []result.Result
}

func newAccumulator(cap int) *accumulator {
	return &accumulator{
		cap:  cap,
		seen: make(map[string]struct{}),
	}
}

// Add appends unseen results until the cap is reached and returns how many
// were kept.
func (a *accumulator) Add(rs ...result.Result) int {
	added := 0
	for _, r := range rs {
		if len(a.results) >= a.cap {
			break
		}
		if _, dup := a.seen[r.ID]; dup {
			continue
		}
		a.seen[r.ID] = struct{}{}
		a.results = append(a.results, r)
		added++
	}
	return added
}

func (a *accumulator) Len() int { return len(a.results) }

// Results returns the accumulated list, never nil.
func (a *accumulator) Results() []result.Result {
	if a.results == nil {
		return []result.Result{}
	}
	return a.results
}

// mergeByDateDesc concatenates the groups in order, deduplicates by id
// keeping the first occurrence, sorts by date descending (stable, so
// arrival order breaks ties), and caps the list.
func mergeByDateDesc(cap int, groups ...[]result.Result) []result.Result {
	seen := make(map[string]struct{})
	merged := make([]result.Result, 0, cap)
	for _, group := range groups {
		for _, r := range group {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date > merged[j].Date
	})

	if len(merged) > cap {
		merged = merged[:cap]
	}
	return merged
}
