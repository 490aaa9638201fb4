package ranking

import "github.com/temcen/reelrank/pkg/models"

// Exclusion is the set of item ids a viewer has already watched.
type Exclusion map[int]struct{}

// BuildExclusion collects the item ids of a watch history.
func BuildExclusion(history []models.WatchEvent) Exclusion {
	ex := make(Exclusion, len(history))
	for _, event := range history {
		ex[event.ItemID] = struct{}{}
	}
	return ex
}

// Contains reports whether id is excluded. A nil Exclusion excludes nothing.
func (e Exclusion) Contains(id int) bool {
	_, ok := e[id]
	return ok
}
