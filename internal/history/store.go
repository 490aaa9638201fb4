package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/reelrank/pkg/models"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5 stars")

// Store persists watch events, one per (viewer, item). Load returns the most
// recent event first.
type Store interface {
	Load(ctx context.Context, viewerID uuid.UUID) ([]models.WatchEvent, error)
	Upsert(ctx context.Context, viewerID uuid.UUID, itemID int, at time.Time) error
}

// DB is the subset of pgxpool.Pool the Postgres stores use.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS watch_history (
	user_id    UUID        NOT NULL,
	item_id    INTEGER     NOT NULL,
	watched_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_watch_history_recent ON watch_history (user_id, watched_at DESC);

CREATE TABLE IF NOT EXISTS ratings (
	user_id  UUID        NOT NULL,
	item_id  INTEGER     NOT NULL,
	stars    SMALLINT    NOT NULL CHECK (stars BETWEEN 1 AND 5),
	rated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, item_id)
);`

// Migrate creates the history and rating tables when they are missing.
func Migrate(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, schema)
	return err
}
