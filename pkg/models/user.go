package models

import (
	"time"

	"github.com/google/uuid"
)

// Viewer identifies who a page is rendered for. Authenticated viewers carry
// their account id; anonymous viewers carry their session id.
type Viewer struct {
	ID        uuid.UUID `json:"id"`
	Anonymous bool      `json:"anonymous"`
}

// WatchEvent records that a user watched an item. There is one event per
// (user, item); watching again moves WatchedAt forward.
type WatchEvent struct {
	UserID    uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	ItemID    int       `json:"item_id" db:"item_id"`
	WatchedAt time.Time `json:"watched_at" db:"watched_at"`
}

// Rating is a 1-5 star rating, at most one per (user, item).
type Rating struct {
	UserID  uuid.UUID `json:"user_id" db:"user_id"`
	ItemID  int       `json:"item_id" db:"item_id"`
	Stars   int       `json:"stars" db:"stars" validate:"min=1,max=5"`
	RatedAt time.Time `json:"rated_at" db:"rated_at"`
}

type RatingRequest struct {
	Stars int `json:"stars" validate:"required,min=1,max=5"`
}
