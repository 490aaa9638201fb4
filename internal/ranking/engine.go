package ranking

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/temcen/reelrank/internal/config"
	"github.com/temcen/reelrank/pkg/models"
)

// Catalog is the read side of the catalog store the engine ranks over.
// All must return items in ascending id order.
type Catalog interface {
	Get(id int) (models.Item, bool)
	All() []models.Item
	Search(query string) []models.Item
}

// Similarity is the read side of the precomputed neighbour tables.
type Similarity interface {
	Neighbors(id int) ([]int, bool)
	ScoredNeighbors(id int) ([]models.ScoredNeighbor, bool)
}

// Limits holds the result caps and candidate thresholds of each ranking.
type Limits struct {
	Popular          int
	PopularMinVotes  int
	Latest           int
	LatestMinVotes   int
	Similar          int
	Genre            int
	Category         int
	CategoryMinVotes int
}

func DefaultLimits() Limits {
	return Limits{
		Popular:          20,
		PopularMinVotes:  10000,
		Latest:           12,
		LatestMinVotes:   5000,
		Similar:          12,
		Genre:            20,
		Category:         20,
		CategoryMinVotes: 10000,
	}
}

// LimitsFromConfig reads the ranking section, falling back to the default
// for any cap that is not positive.
func LimitsFromConfig(cfg config.RankingConfig) Limits {
	l := DefaultLimits()
	pick := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	pick(&l.Popular, cfg.PopularLimit)
	pick(&l.PopularMinVotes, cfg.PopularMinVotes)
	pick(&l.Latest, cfg.LatestLimit)
	pick(&l.LatestMinVotes, cfg.LatestMinVotes)
	pick(&l.Similar, cfg.SimilarLimit)
	pick(&l.Genre, cfg.GenreLimit)
	pick(&l.Category, cfg.CategoryLimit)
	pick(&l.CategoryMinVotes, cfg.CategoryMinVotes)
	return l
}

// Engine produces ranked item lists. It holds only immutable inputs, so a
// single Engine serves every request concurrently. No method blocks or
// returns an error; a ranking with nothing to show is an empty slice.
type Engine struct {
	catalog Catalog
	tables  Similarity
	limits  Limits
}

func NewEngine(catalog Catalog, tables Similarity, limits Limits) *Engine {
	return &Engine{
		catalog: catalog,
		tables:  tables,
		limits:  limits,
	}
}

// Popular ranks well-voted items by rating, breaking ties on popularity and
// then on id.
func (e *Engine) Popular(excluded Exclusion) []models.Item {
	candidates := e.filter(func(item *models.Item) bool {
		return item.VoteCount > e.limits.PopularMinVotes && !excluded.Contains(item.ID)
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.VoteAverage != b.VoteAverage {
			return a.VoteAverage > b.VoteAverage
		}
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		return a.ID < b.ID
	})

	return capItems(candidates, e.limits.Popular)
}

// Latest ranks released items newest first. ISO dates compare correctly as
// strings. Every returned item carries its release year.
func (e *Engine) Latest(excluded Exclusion) []models.Item {
	candidates := e.filter(func(item *models.Item) bool {
		return item.ReleaseDate != "" &&
			item.VoteCount > e.limits.LatestMinVotes &&
			!excluded.Contains(item.ID)
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ReleaseDate != b.ReleaseDate {
			return a.ReleaseDate > b.ReleaseDate
		}
		return a.ID < b.ID
	})

	out := capItems(candidates, e.limits.Latest)
	for i := range out {
		out[i].ReleaseYear = models.ReleaseYear(out[i].ReleaseDate)
	}
	return out
}

// SimilarTo returns the content neighbours of seed in model order. The cap
// is applied to neighbour ids before they are resolved, so ids missing from
// the catalog shorten the list rather than pulling in further neighbours.
func (e *Engine) SimilarTo(seed int, excluded Exclusion) []models.Item {
	neighbours, _ := e.tables.Neighbors(seed)

	kept := make([]int, 0, e.limits.Similar)
	for _, id := range neighbours {
		if len(kept) == e.limits.Similar {
			break
		}
		if excluded.Contains(id) {
			continue
		}
		kept = append(kept, id)
	}

	out := make([]models.Item, 0, len(kept))
	for _, id := range kept {
		if item, ok := e.catalog.Get(id); ok {
			out = append(out, item)
		}
	}
	return out
}

// ByGenre recommends items of genre from the scored neighbours of the
// viewer's watched items of that genre. Neighbour scores are averaged over
// every seed they appear under. Scores are genre-agnostic, so results are
// re-filtered on genre.
func (e *Engine) ByGenre(genre string, history []models.WatchEvent) []models.Item {
	excluded := BuildExclusion(history)

	seen := make(map[int]struct{}, len(history))
	collected := make(map[int][]float64)
	for _, event := range history {
		if _, dup := seen[event.ItemID]; dup {
			continue
		}
		seen[event.ItemID] = struct{}{}

		item, ok := e.catalog.Get(event.ItemID)
		if !ok || !item.HasGenre(genre) {
			continue
		}

		neighbours, _ := e.tables.ScoredNeighbors(event.ItemID)
		for _, n := range neighbours {
			collected[n.ID] = append(collected[n.ID], n.Score)
		}
	}

	type averaged struct {
		id    int
		score float64
	}
	order := make([]averaged, 0, len(collected))
	for id, scores := range collected {
		order = append(order, averaged{id: id, score: stat.Mean(scores, nil)})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].id < order[j].id
	})

	out := make([]models.Item, 0, e.limits.Genre)
	for _, candidate := range order {
		if len(out) == e.limits.Genre {
			break
		}
		if excluded.Contains(candidate.id) {
			continue
		}
		item, ok := e.catalog.Get(candidate.id)
		if !ok || !item.HasGenre(genre) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Category lists the best-rated well-voted items of a genre. It is not
// personalized.
func (e *Engine) Category(genre string) []models.Item {
	candidates := e.filter(func(item *models.Item) bool {
		return item.VoteCount > e.limits.CategoryMinVotes && item.HasGenre(genre)
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].VoteAverage != candidates[j].VoteAverage {
			return candidates[i].VoteAverage > candidates[j].VoteAverage
		}
		return candidates[i].ID < candidates[j].ID
	})

	return capItems(candidates, e.limits.Category)
}

// Search returns catalog items whose title slug contains query.
func (e *Engine) Search(query string) []models.Item {
	return e.catalog.Search(query)
}

// filter copies matching catalog items into a fresh slice that callers may
// sort and modify.
func (e *Engine) filter(keep func(item *models.Item) bool) []models.Item {
	all := e.catalog.All()
	out := make([]models.Item, 0, len(all)/4)
	for i := range all {
		if keep(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

func capItems(items []models.Item, limit int) []models.Item {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
