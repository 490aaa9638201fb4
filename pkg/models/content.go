package models

import "strings"

const (
	ImageBaseURL       = "http://image.tmdb.org/t/p/w780"
	DefaultPosterURL   = "https://m.media-amazon.com/images/I/61CHaKs2i1L._AC_UF1000,1000_QL80_.jpg"
	DefaultBackdropURL = "https://upload.wikimedia.org/wikipedia/commons/d/d1/Image_not_available.png"
)

// Item is a catalog entry. Items are loaded once from the catalog snapshot
// and never mutated; rankings hand out copies.
type Item struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	ReleaseDate   string   `json:"release_date,omitempty"`
	VoteCount     int      `json:"vote_count"`
	VoteAverage   float64  `json:"vote_average"`
	Popularity    float64  `json:"popularity"`
	Genres        []string `json:"genres"`
	Overview      string   `json:"overview,omitempty"`
	PosterPath    string   `json:"poster_path,omitempty"`
	BackdropPath  string   `json:"backdrop_path,omitempty"`

	// ReleaseYear is only filled in by rankings that display it.
	ReleaseYear string `json:"release_year,omitempty"`
}

// HasGenre reports whether the item is tagged with the genre. Matching is
// exact; an item without genres matches nothing.
func (i *Item) HasGenre(genre string) bool {
	for _, g := range i.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

func (i *Item) PosterURL() string {
	if i.PosterPath == "" {
		return DefaultPosterURL
	}
	return ImageBaseURL + i.PosterPath
}

func (i *Item) BackdropURL() string {
	if i.BackdropPath == "" {
		return DefaultBackdropURL
	}
	return ImageBaseURL + i.BackdropPath
}

// ReleaseYear returns the first "-" delimited component of an ISO date, or
// "" when the date is empty.
func ReleaseYear(releaseDate string) string {
	if releaseDate == "" {
		return ""
	}
	year, _, _ := strings.Cut(releaseDate, "-")
	return year
}

// ScoredNeighbor is one entry of the genre-affinity similarity table.
type ScoredNeighbor struct {
	ID    int     `json:"id"`
	Score float64 `json:"score"`
}
