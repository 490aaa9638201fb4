package similarity

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/temcen/reelrank/pkg/models"
)

const (
	featureEdgesQuery = `
		MATCH (a:Movie)-[r:SIMILAR_FEATURES]->(b:Movie)
		RETURN a.id AS source, b.id AS target, r.rank AS rank`

	scoreEdgesQuery = `
		MATCH (a:Movie)-[r:SIMILAR_SCORE]->(b:Movie)
		RETURN a.id AS source, b.id AS target, r.score AS score`
)

// GraphSource reads the similarity tables from Neo4j, where the offline
// pipeline stores them as SIMILAR_FEATURES {rank} and SIMILAR_SCORE {score}
// relationships between :Movie nodes.
type GraphSource struct {
	driver neo4j.DriverWithContext
}

func NewGraphSource(driver neo4j.DriverWithContext) *GraphSource {
	return &GraphSource{driver: driver}
}

func (g *GraphSource) Name() string { return "neo4j" }

type featureEdge struct {
	source, target int
	rank           int64
}

type scoreEdge struct {
	source, target int
	score          float64
}

func (g *GraphSource) LoadFeatures(ctx context.Context) (map[int][]int, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, featureEdgesQuery, nil)
		if err != nil {
			return nil, err
		}

		var edges []featureEdge
		for result.Next(ctx) {
			record := result.Record()
			source, _ := record.Get("source")
			target, _ := record.Get("target")
			rank, _ := record.Get("rank")

			s, okS := source.(int64)
			t, okT := target.(int64)
			r, okR := rank.(int64)
			if !okS || !okT || !okR {
				continue
			}
			edges = append(edges, featureEdge{source: int(s), target: int(t), rank: r})
		}

		return edges, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read feature similarity graph: %w", err)
	}

	return foldFeatureEdges(result.([]featureEdge)), nil
}

func (g *GraphSource) LoadScores(ctx context.Context) (map[int][]models.ScoredNeighbor, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, scoreEdgesQuery, nil)
		if err != nil {
			return nil, err
		}

		var edges []scoreEdge
		for result.Next(ctx) {
			record := result.Record()
			source, _ := record.Get("source")
			target, _ := record.Get("target")
			score, _ := record.Get("score")

			s, okS := source.(int64)
			t, okT := target.(int64)
			sc, okSc := score.(float64)
			if !okS || !okT || !okSc {
				continue
			}
			edges = append(edges, scoreEdge{source: int(s), target: int(t), score: sc})
		}

		return edges, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read similarity score graph: %w", err)
	}

	return foldScoreEdges(result.([]scoreEdge)), nil
}

// foldFeatureEdges groups edges by source, ordering each neighbour list by
// rank and then by target id.
func foldFeatureEdges(edges []featureEdge) map[int][]int {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].source != edges[j].source {
			return edges[i].source < edges[j].source
		}
		if edges[i].rank != edges[j].rank {
			return edges[i].rank < edges[j].rank
		}
		return edges[i].target < edges[j].target
	})

	out := make(map[int][]int)
	for _, e := range edges {
		out[e.source] = append(out[e.source], e.target)
	}
	return out
}

// foldScoreEdges groups edges by source, highest score first.
func foldScoreEdges(edges []scoreEdge) map[int][]models.ScoredNeighbor {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].source != edges[j].source {
			return edges[i].source < edges[j].source
		}
		if edges[i].score != edges[j].score {
			return edges[i].score > edges[j].score
		}
		return edges[i].target < edges[j].target
	})

	out := make(map[int][]models.ScoredNeighbor)
	for _, e := range edges {
		out[e.source] = append(out[e.source], models.ScoredNeighbor{ID: e.target, Score: e.score})
	}
	return out
}
