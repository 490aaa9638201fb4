package catalog

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/validation"
	"github.com/temcen/reelrank/pkg/models"
)

// record mirrors one entry of the TMDB-derived catalog snapshot.
type record struct {
	ID            *float64    `json:"id"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"original_title"`
	ReleaseDate   string      `json:"release_date"`
	VoteCount     float64     `json:"vote_count"`
	VoteAverage   float64     `json:"vote_average"`
	Popularity    float64     `json:"popularity"`
	Genres        []genreName `json:"genres"`
	Overview      string      `json:"overview"`
	PosterPath    string      `json:"poster_path"`
	BackdropPath  string      `json:"backdrop_path"`
}

// genreName accepts both {"id": 28, "name": "Action"} and plain "Action".
type genreName string

func (g *genreName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = genreName(s)
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*g = genreName(obj.Name)
	return nil
}

func (r record) item(key int) models.Item {
	id := key
	if r.ID != nil {
		id = int(*r.ID)
	}

	genres := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		if g != "" {
			genres = append(genres, string(g))
		}
	}

	return models.Item{
		ID:            id,
		Title:         r.Title,
		OriginalTitle: r.OriginalTitle,
		ReleaseDate:   r.ReleaseDate,
		VoteCount:     int(r.VoteCount),
		VoteAverage:   r.VoteAverage,
		Popularity:    r.Popularity,
		Genres:        genres,
		Overview:      r.Overview,
		PosterPath:    r.PosterPath,
		BackdropPath:  r.BackdropPath,
	}
}

// Decode parses a catalog snapshot document. When validator is non-nil the
// document is checked against the catalog schema first.
func Decode(data []byte, validator *validation.SchemaValidator) (*Store, error) {
	if validator != nil {
		if err := validator.ValidateDocument(validation.SchemaCatalog, data).Err(); err != nil {
			return nil, fmt.Errorf("catalog snapshot: %w", err)
		}
	}

	var raw map[string]record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog snapshot: %w", err)
	}

	keys := make([]int, 0, len(raw))
	byKey := make(map[int]record, len(raw))
	for key, rec := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("catalog snapshot: invalid item key %q: %w", key, err)
		}
		keys = append(keys, id)
		byKey[id] = rec
	}
	// Records are fed to NewStore in key order so that a duplicated id field
	// always resolves to the record under the highest key.
	sort.Ints(keys)

	items := make([]models.Item, 0, len(keys))
	for _, key := range keys {
		items = append(items, byKey[key].item(key))
	}

	return NewStore(items), nil
}

// Load reads and decodes the snapshot at path.
func Load(path string, validator *validation.SchemaValidator) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog snapshot: %w", err)
	}
	return Decode(data, validator)
}

// LoadOrEmpty is Load for startup: any failure is logged and an empty store
// is returned so the service runs degraded instead of refusing to start.
func LoadOrEmpty(path string, validator *validation.SchemaValidator, logger *logrus.Logger) *Store {
	store, err := Load(path, validator)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Catalog snapshot unavailable, serving empty catalog")
		return Empty()
	}

	fields := logrus.Fields{
		"path":  path,
		"items": store.Len(),
	}
	if n := store.Slugs().Collisions(); n > 0 {
		fields["slug_collisions"] = n
	}
	logger.WithFields(fields).Info("Catalog snapshot loaded")
	return store
}
