package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/temcen/reelrank/pkg/models"
)

// PostgresStore keeps the watch history of signed-in users.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, viewerID uuid.UUID) ([]models.WatchEvent, error) {
	query := `
		SELECT item_id, watched_at
		FROM watch_history
		WHERE user_id = $1
		ORDER BY watched_at DESC, item_id`

	rows, err := s.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watch history: %w", err)
	}
	defer rows.Close()

	var events []models.WatchEvent
	for rows.Next() {
		event := models.WatchEvent{UserID: viewerID}
		if err := rows.Scan(&event.ItemID, &event.WatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watch event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read watch history: %w", err)
	}

	return events, nil
}

// Upsert records a viewing. Watching the same item again moves its
// timestamp forward instead of adding a row.
func (s *PostgresStore) Upsert(ctx context.Context, viewerID uuid.UUID, itemID int, at time.Time) error {
	query := `
		INSERT INTO watch_history (user_id, item_id, watched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id) DO UPDATE SET watched_at = EXCLUDED.watched_at`

	if _, err := s.db.Exec(ctx, query, viewerID, itemID, at); err != nil {
		return fmt.Errorf("failed to record watch event: %w", err)
	}
	return nil
}

// RatingStore keeps one star rating per (user, item).
type RatingStore struct {
	db DB
}

func NewRatingStore(db DB) *RatingStore {
	return &RatingStore{db: db}
}

// Get returns the user's rating of an item. The boolean is false when the
// user has not rated it.
func (s *RatingStore) Get(ctx context.Context, userID uuid.UUID, itemID int) (models.Rating, bool, error) {
	query := `SELECT stars, rated_at FROM ratings WHERE user_id = $1 AND item_id = $2`

	rating := models.Rating{UserID: userID, ItemID: itemID}
	err := s.db.QueryRow(ctx, query, userID, itemID).Scan(&rating.Stars, &rating.RatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Rating{}, false, nil
	}
	if err != nil {
		return models.Rating{}, false, fmt.Errorf("failed to load rating: %w", err)
	}
	return rating, true, nil
}

func (s *RatingStore) Upsert(ctx context.Context, rating models.Rating) error {
	if rating.Stars < 1 || rating.Stars > 5 {
		return ErrInvalidRating
	}

	query := `
		INSERT INTO ratings (user_id, item_id, stars, rated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, item_id) DO UPDATE SET stars = EXCLUDED.stars, rated_at = EXCLUDED.rated_at`

	if _, err := s.db.Exec(ctx, query, rating.UserID, rating.ItemID, rating.Stars, rating.RatedAt); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}
