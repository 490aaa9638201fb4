package ranking

import (
	"sort"

	"github.com/temcen/reelrank/pkg/models"
)

// Affinity derives a viewer's favourite genres from recent history.
type Affinity struct {
	catalog  Catalog
	window   int
	minCount int
}

// minGenreCount is the fewest occurrences a genre needs to count as a
// favourite. A configured minCount may raise it but never lower it.
const minGenreCount = 2

// NewAffinity looks at the window most recent events and keeps genres seen
// at least minCount times.
func NewAffinity(catalog Catalog, window, minCount int) *Affinity {
	if window <= 0 {
		window = 15
	}
	if minCount < minGenreCount {
		minCount = minGenreCount
	}
	return &Affinity{catalog: catalog, window: window, minCount: minCount}
}

// TopGenres returns up to limit genres ordered by how often they occur in
// the most recent events. Equal counts keep the order in which the genres
// were first met walking from the newest event. Events for items missing
// from the catalog are ignored.
func (a *Affinity) TopGenres(history []models.WatchEvent, limit int) []string {
	if limit <= 0 || len(history) == 0 {
		return nil
	}

	recent := make([]models.WatchEvent, len(history))
	copy(recent, history)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].WatchedAt.After(recent[j].WatchedAt)
	})
	if len(recent) > a.window {
		recent = recent[:a.window]
	}

	counts := make(map[string]int)
	var firstSeen []string
	for _, event := range recent {
		item, ok := a.catalog.Get(event.ItemID)
		if !ok {
			continue
		}
		for _, genre := range item.Genres {
			if _, ok := counts[genre]; !ok {
				firstSeen = append(firstSeen, genre)
			}
			counts[genre]++
		}
	}

	qualifying := make([]string, 0, len(firstSeen))
	for _, genre := range firstSeen {
		if counts[genre] >= a.minCount {
			qualifying = append(qualifying, genre)
		}
	}
	sort.SliceStable(qualifying, func(i, j int) bool {
		return counts[qualifying[i]] > counts[qualifying[j]]
	})

	if len(qualifying) > limit {
		qualifying = qualifying[:limit]
	}
	return qualifying
}

// FillGenres tops up top with defaults not already present until it holds
// limit genres or the defaults run out.
func FillGenres(top, defaults []string, limit int) []string {
	out := make([]string, 0, limit)
	present := make(map[string]struct{}, limit)
	for _, genre := range top {
		if len(out) == limit {
			return out
		}
		out = append(out, genre)
		present[genre] = struct{}{}
	}
	for _, genre := range defaults {
		if len(out) == limit {
			break
		}
		if _, ok := present[genre]; ok {
			continue
		}
		out = append(out, genre)
		present[genre] = struct{}{}
	}
	return out
}
