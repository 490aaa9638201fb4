package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/catalog"
	"github.com/temcen/reelrank/internal/config"
	"github.com/temcen/reelrank/internal/history"
	"github.com/temcen/reelrank/internal/ranking"
	"github.com/temcen/reelrank/internal/trailer"
	"github.com/temcen/reelrank/pkg/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAuthRequired  = errors.New("authentication required")
	ErrInvalidRating = history.ErrInvalidRating
)

// RatingStore is the rating persistence used by the service.
type RatingStore interface {
	Get(ctx context.Context, userID uuid.UUID, itemID int) (models.Rating, bool, error)
	Upsert(ctx context.Context, rating models.Rating) error
}

// EventPublisher forwards viewer activity to the offline pipeline.
type EventPublisher interface {
	PublishWatched(ctx context.Context, viewerID uuid.UUID, anonymous bool, itemID int, at time.Time) error
	PublishRated(ctx context.Context, viewerID uuid.UUID, itemID, stars int, at time.Time) error
}

type TrailerResolver interface {
	Resolve(ctx context.Context, query string) (string, string)
}

type TrailerCache interface {
	Get(ctx context.Context, itemID int) (string, bool, error)
	Set(ctx context.Context, itemID int, url string) error
}

// RecommendationDeps groups the collaborators of RecommendationService.
// TrailerCache and Events may be nil.
type RecommendationDeps struct {
	Catalog      *catalog.Store
	Engine       *ranking.Engine
	Affinity     *ranking.Affinity
	UserHistory  history.Store
	SessionStore history.Store
	Ratings      RatingStore
	Trailers     TrailerResolver
	TrailerCache TrailerCache
	Events       EventPublisher
	Metrics      *RankingMetrics
}

// RecommendationService assembles the browsing views out of the ranking
// engine and the viewer's history.
type RecommendationService struct {
	deps   RecommendationDeps
	cfg    config.RankingConfig
	logger *logrus.Logger
	now    func() time.Time
}

func NewRecommendationService(deps RecommendationDeps, cfg config.RankingConfig, logger *logrus.Logger) *RecommendationService {
	return &RecommendationService{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// timed runs a ranking and records its latency and result size.
func (s *RecommendationService) timed(strategy string, rank func() []models.Item) []models.Item {
	start := time.Now()
	items := rank()
	if s.deps.Metrics != nil {
		s.deps.Metrics.observeRanking(strategy, time.Since(start).Seconds(), len(items))
	}
	return items
}

func (s *RecommendationService) historyStore(viewer models.Viewer) (history.Store, string) {
	if viewer.Anonymous {
		return s.deps.SessionStore, "session"
	}
	return s.deps.UserHistory, "postgres"
}

// loadHistory returns a point-in-time copy of the viewer's history. Failures
// degrade to an empty history.
func (s *RecommendationService) loadHistory(ctx context.Context, viewer models.Viewer) []models.WatchEvent {
	store, name := s.historyStore(viewer)
	if store == nil {
		return nil
	}

	events, err := store.Load(ctx, viewer.ID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"viewer_id": viewer.ID,
			"store":     name,
		}).Warn("Failed to load watch history, ranking without it")
		if s.deps.Metrics != nil {
			s.deps.Metrics.historyFailures.WithLabelValues(name).Inc()
		}
		return nil
	}
	return events
}

func (s *RecommendationService) Home(ctx context.Context, viewer models.Viewer) (*models.HomeResponse, error) {
	events := s.loadHistory(ctx, viewer)
	excluded := ranking.BuildExclusion(events)

	resp := &models.HomeResponse{GeneratedAt: s.now()}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		resp.Popular = s.timed("popular", func() []models.Item {
			return s.deps.Engine.Popular(excluded)
		})
	}()

	go func() {
		defer wg.Done()
		resp.Latest = s.timed("latest", func() []models.Item {
			return s.deps.Engine.Latest(excluded)
		})
	}()

	go func() {
		defer wg.Done()
		limit := s.cfg.TopGenreLimit
		if limit <= 0 {
			limit = 2
		}
		top := s.deps.Affinity.TopGenres(events, limit)
		resp.TopGenres = ranking.FillGenres(top, s.cfg.DefaultGenres, limit)

		rows := make([]models.GenreRow, len(resp.TopGenres))
		var rowsWG sync.WaitGroup
		for i, genre := range resp.TopGenres {
			rowsWG.Add(1)
			go func(i int, genre string) {
				defer rowsWG.Done()
				rows[i] = models.GenreRow{
					Genre: genre,
					Items: s.timed("genre", func() []models.Item {
						return s.deps.Engine.ByGenre(genre, events)
					}),
				}
			}(i, genre)
		}
		rowsWG.Wait()
		resp.GenreRows = rows
	}()

	wg.Wait()
	return resp, nil
}

func (s *RecommendationService) Movie(ctx context.Context, viewer models.Viewer, slug string) (*models.MovieResponse, error) {
	id, ok := s.deps.Catalog.Slugs().Resolve(slug)
	if !ok {
		return nil, fmt.Errorf("movie %q: %w", slug, ErrNotFound)
	}
	item, ok := s.deps.Catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}

	events := s.loadHistory(ctx, viewer)
	excluded := ranking.BuildExclusion(events)

	resp := &models.MovieResponse{
		Item:        item,
		PosterURL:   item.PosterURL(),
		BackdropURL: item.BackdropURL(),
		GeneratedAt: s.now(),
	}
	resp.Item.ReleaseYear = models.ReleaseYear(item.ReleaseDate)
	resp.Similar = s.timed("similar", func() []models.Item {
		return s.deps.Engine.SimilarTo(id, excluded)
	})
	resp.TrailerURL = s.trailerURL(ctx, item)

	if !viewer.Anonymous && s.deps.Ratings != nil {
		rating, found, err := s.deps.Ratings.Get(ctx, viewer.ID, id)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"viewer_id": viewer.ID,
				"item_id":   id,
			}).Warn("Failed to load rating")
		} else if found {
			resp.Rating = &rating
		}
	}

	return resp, nil
}

func (s *RecommendationService) trailerURL(ctx context.Context, item models.Item) string {
	cache := s.deps.TrailerCache
	if cache != nil {
		url, hit, err := cache.Get(ctx, item.ID)
		if err != nil {
			s.logger.WithError(err).WithField("item_id", item.ID).Warn("Trailer cache read failed")
		} else if hit {
			s.countTrailer("cache")
			return url
		}
	}

	url, source := s.deps.Trailers.Resolve(ctx, trailer.Query(item))
	s.countTrailer(source)

	if cache != nil && source != trailer.SourceDefault {
		if err := cache.Set(ctx, item.ID, url); err != nil {
			s.logger.WithError(err).WithField("item_id", item.ID).Warn("Trailer cache write failed")
		}
	}
	return url
}

func (s *RecommendationService) countTrailer(source string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.trailerResolutions.WithLabelValues(source).Inc()
	}
}

// Genre is the "because you watched" shelf for a single genre, addressed by
// its path form ("science-fiction").
func (s *RecommendationService) Genre(ctx context.Context, viewer models.Viewer, genreSlug string) (*models.ListResponse, error) {
	genre := catalog.GenreFromSlug(genreSlug)
	events := s.loadHistory(ctx, viewer)

	return &models.ListResponse{
		Title: genre,
		Items: s.timed("genre", func() []models.Item {
			return s.deps.Engine.ByGenre(genre, events)
		}),
		GeneratedAt: s.now(),
	}, nil
}

func (s *RecommendationService) Category(_ context.Context, genreSlug string) (*models.ListResponse, error) {
	genre := catalog.GenreFromSlug(genreSlug)

	return &models.ListResponse{
		Title: genre,
		Items: s.timed("category", func() []models.Item {
			return s.deps.Engine.Category(genre)
		}),
		GeneratedAt: s.now(),
	}, nil
}

func (s *RecommendationService) Search(_ context.Context, query string) (*models.ListResponse, error) {
	return &models.ListResponse{
		Title: query,
		Items: s.timed("search", func() []models.Item {
			return s.deps.Engine.Search(query)
		}),
		GeneratedAt: s.now(),
	}, nil
}

// MarkWatched records that the viewer watched an item. Publishing the event
// is best-effort.
func (s *RecommendationService) MarkWatched(ctx context.Context, viewer models.Viewer, itemID int) error {
	if _, ok := s.deps.Catalog.Get(itemID); !ok {
		return fmt.Errorf("movie %d: %w", itemID, ErrNotFound)
	}

	store, name := s.historyStore(viewer)
	if store == nil {
		return fmt.Errorf("no %s history store configured", name)
	}

	at := s.now()
	if err := store.Upsert(ctx, viewer.ID, itemID, at); err != nil {
		return err
	}

	if s.deps.Events != nil {
		if err := s.deps.Events.PublishWatched(ctx, viewer.ID, viewer.Anonymous, itemID, at); err != nil {
			s.logger.WithError(err).WithField("item_id", itemID).Warn("Watch event not published")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"viewer_id": viewer.ID,
		"anonymous": viewer.Anonymous,
		"item_id":   itemID,
	}).Debug("Watch recorded")

	return nil
}

// Rate stores a 1-5 star rating. Only signed-in viewers can rate.
func (s *RecommendationService) Rate(ctx context.Context, viewer models.Viewer, itemID, stars int) (*models.Rating, error) {
	if viewer.Anonymous {
		return nil, ErrAuthRequired
	}
	if _, ok := s.deps.Catalog.Get(itemID); !ok {
		return nil, fmt.Errorf("movie %d: %w", itemID, ErrNotFound)
	}
	if stars < 1 || stars > 5 {
		return nil, ErrInvalidRating
	}

	rating := models.Rating{
		UserID:  viewer.ID,
		ItemID:  itemID,
		Stars:   stars,
		RatedAt: s.now(),
	}
	if err := s.deps.Ratings.Upsert(ctx, rating); err != nil {
		return nil, err
	}

	if s.deps.Events != nil {
		if err := s.deps.Events.PublishRated(ctx, viewer.ID, itemID, stars, rating.RatedAt); err != nil {
			s.logger.WithError(err).WithField("item_id", itemID).Warn("Rating event not published")
		}
	}

	return &rating, nil
}

func (s *RecommendationService) History(ctx context.Context, viewer models.Viewer) (*models.HistoryResponse, error) {
	store, _ := s.historyStore(viewer)
	if store == nil {
		return &models.HistoryResponse{Viewer: viewer, Events: []models.WatchEvent{}}, nil
	}

	events, err := store.Load(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.WatchEvent{}
	}
	return &models.HistoryResponse{Viewer: viewer, Events: events}, nil
}
