package similarity

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/pkg/models"
)

// Tables holds the two precomputed neighbour tables. They are built once and
// read concurrently without locking; returned slices are shared and must not
// be modified.
type Tables struct {
	features map[int][]int
	scores   map[int][]models.ScoredNeighbor
}

// NewTables wraps already-built tables. Nil maps are treated as empty.
func NewTables(features map[int][]int, scores map[int][]models.ScoredNeighbor) *Tables {
	if features == nil {
		features = map[int][]int{}
	}
	if scores == nil {
		scores = map[int][]models.ScoredNeighbor{}
	}
	return &Tables{features: features, scores: scores}
}

func Empty() *Tables {
	return NewTables(nil, nil)
}

// Neighbors returns the content-feature neighbours of id, nearest first.
func (t *Tables) Neighbors(id int) ([]int, bool) {
	n, ok := t.features[id]
	return n, ok
}

// ScoredNeighbors returns the (neighbour, score) entries used for genre
// affinity.
func (t *Tables) ScoredNeighbors(id int) ([]models.ScoredNeighbor, bool) {
	n, ok := t.scores[id]
	return n, ok
}

// Sizes reports how many seed items each table covers.
func (t *Tables) Sizes() (features, scores int) {
	return len(t.features), len(t.scores)
}

// Source loads the raw tables from wherever the offline pipeline left them.
type Source interface {
	Name() string
	LoadFeatures(ctx context.Context) (map[int][]int, error)
	LoadScores(ctx context.Context) (map[int][]models.ScoredNeighbor, error)
}

// LoadOrEmpty reads both tables from source. A table that fails to load is
// logged and left empty; the other table is still used.
func LoadOrEmpty(ctx context.Context, source Source, logger *logrus.Logger) *Tables {
	log := logger.WithField("source", source.Name())

	features, err := source.LoadFeatures(ctx)
	if err != nil {
		log.WithError(err).Warn("Feature similarity table unavailable, serving empty table")
		features = nil
	}

	scores, err := source.LoadScores(ctx)
	if err != nil {
		log.WithError(err).Warn("Similarity score table unavailable, serving empty table")
		scores = nil
	}

	tables := NewTables(features, scores)
	nf, ns := tables.Sizes()
	log.WithFields(logrus.Fields{
		"feature_seeds": nf,
		"score_seeds":   ns,
	}).Info("Similarity tables loaded")

	return tables
}
