package models

import (
	"time"
)

// GenreRow is a "because you watched <genre>" shelf.
type GenreRow struct {
	Genre string `json:"genre"`
	Items []Item `json:"items"`
}

type HomeResponse struct {
	Popular     []Item     `json:"popular"`
	Latest      []Item     `json:"latest"`
	TopGenres   []string   `json:"top_genres"`
	GenreRows   []GenreRow `json:"genre_rows"`
	GeneratedAt time.Time  `json:"generated_at"`
}

type MovieResponse struct {
	Item        Item      `json:"item"`
	PosterURL   string    `json:"poster_url"`
	BackdropURL string    `json:"backdrop_url"`
	TrailerURL  string    `json:"trailer_url"`
	Similar     []Item    `json:"similar"`
	Rating      *Rating   `json:"rating,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ListResponse struct {
	Title       string    `json:"title"`
	Items       []Item    `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}

type HistoryResponse struct {
	Viewer Viewer       `json:"viewer"`
	Events []WatchEvent `json:"events"`
}
