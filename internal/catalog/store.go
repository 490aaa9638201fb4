package catalog

import (
	"sort"

	"github.com/temcen/reelrank/pkg/models"
)

// Store is the immutable in-memory catalog. It is built once at startup and
// shared by every request without locking.
type Store struct {
	items []models.Item
	index map[int]int // item id -> position in items
	slugs *SlugIndex
}

// NewStore builds a store from a set of items. Duplicate ids keep the last
// record. Items are held in ascending id order so that All is stable across
// calls and across processes loading the same snapshot.
func NewStore(items []models.Item) *Store {
	byID := make(map[int]models.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	ordered := make([]models.Item, 0, len(byID))
	for _, item := range byID {
		ordered = append(ordered, item)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	index := make(map[int]int, len(ordered))
	for i, item := range ordered {
		index[item.ID] = i
	}

	s := &Store{
		items: ordered,
		index: index,
	}
	s.slugs = newSlugIndex(ordered)
	return s
}

// Empty returns the degraded store used when the snapshot could not be loaded.
func Empty() *Store {
	return NewStore(nil)
}

// Get returns the item with the given id. The boolean is false when the id
// is not in the catalog.
func (s *Store) Get(id int) (models.Item, bool) {
	pos, ok := s.index[id]
	if !ok {
		return models.Item{}, false
	}
	return s.items[pos], true
}

// All returns every item in ascending id order. The returned slice is shared
// and must not be modified.
func (s *Store) All() []models.Item {
	return s.items
}

func (s *Store) Len() int {
	return len(s.items)
}

// Slugs returns the slug index derived from this store.
func (s *Store) Slugs() *SlugIndex {
	return s.slugs
}
