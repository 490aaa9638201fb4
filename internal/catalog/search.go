package catalog

import (
	"strings"

	"github.com/temcen/reelrank/pkg/models"
)

// Search returns every item whose title slug contains the lower-cased query,
// in ascending id order. A blank query matches nothing.
func (s *Store) Search(query string) []models.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []models.Item
	for _, item := range s.items {
		slug, ok := s.slugs.SlugOf(item.ID)
		if !ok {
			continue
		}
		if strings.Contains(slug, q) {
			out = append(out, item)
		}
	}
	return out
}
