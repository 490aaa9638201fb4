package similarity

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/temcen/reelrank/internal/validation"
	"github.com/temcen/reelrank/pkg/models"
)

// FileSource reads the JSON exports of the offline similarity models.
//
// Features: {"<id>": [<id>, ...]}. Scores: {"<id>": [[<id>, <score>], ...]}.
// The exporter writes ids as floats, so both keys and values are truncated.
type FileSource struct {
	FeaturesPath string
	ScoresPath   string
	Validator    *validation.SchemaValidator
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) LoadFeatures(_ context.Context) (map[int][]int, error) {
	data, err := f.read(f.FeaturesPath, validation.SchemaFeatures)
	if err != nil {
		return nil, err
	}
	return DecodeFeatures(data)
}

func (f *FileSource) LoadScores(_ context.Context) (map[int][]models.ScoredNeighbor, error) {
	data, err := f.read(f.ScoresPath, validation.SchemaScores)
	if err != nil {
		return nil, err
	}
	return DecodeScores(data)
}

func (f *FileSource) read(path, schema string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if f.Validator != nil {
		if err := f.Validator.ValidateDocument(schema, data).Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return data, nil
}

// DecodeFeatures parses a feature-neighbour document.
func DecodeFeatures(data []byte) (map[int][]int, error) {
	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feature table: %w", err)
	}

	out := make(map[int][]int, len(raw))
	for key, neighbours := range raw {
		id, err := parseID(key)
		if err != nil {
			return nil, err
		}
		ids := make([]int, len(neighbours))
		for i, n := range neighbours {
			ids[i] = int(n)
		}
		out[id] = ids
	}
	return out, nil
}

// DecodeScores parses a scored-neighbour document. Pairs with fewer than two
// elements are skipped.
func DecodeScores(data []byte) (map[int][]models.ScoredNeighbor, error) {
	var raw map[string][][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode score table: %w", err)
	}

	out := make(map[int][]models.ScoredNeighbor, len(raw))
	for key, pairs := range raw {
		id, err := parseID(key)
		if err != nil {
			return nil, err
		}
		entries := make([]models.ScoredNeighbor, 0, len(pairs))
		for _, pair := range pairs {
			if len(pair) < 2 {
				continue
			}
			entries = append(entries, models.ScoredNeighbor{ID: int(pair[0]), Score: pair[1]})
		}
		out[id] = entries
	}
	return out, nil
}

func parseID(key string) (int, error) {
	f, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item key %q: %w", key, err)
	}
	return int(f), nil
}
