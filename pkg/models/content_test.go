package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItem_HasGenre(t *testing.T) {
	item := Item{Genres: []string{"Action", "Science Fiction"}}

	assert.True(t, item.HasGenre("Science Fiction"))
	assert.False(t, item.HasGenre("science fiction"))
	assert.False(t, (&Item{}).HasGenre("Action"))
}

func TestItem_ImageURLs(t *testing.T) {
	item := Item{PosterPath: "/p.jpg", BackdropPath: "/b.jpg"}
	assert.Equal(t, ImageBaseURL+"/p.jpg", item.PosterURL())
	assert.Equal(t, ImageBaseURL+"/b.jpg", item.BackdropURL())

	empty := Item{}
	assert.Equal(t, DefaultPosterURL, empty.PosterURL())
	assert.Equal(t, DefaultBackdropURL, empty.BackdropURL())
}

func TestReleaseYear(t *testing.T) {
	assert.Equal(t, "1999", ReleaseYear("1999-03-30"))
	assert.Equal(t, "2021", ReleaseYear("2021"))
	assert.Equal(t, "", ReleaseYear(""))
}
