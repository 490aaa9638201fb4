package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/temcen/reelrank/pkg/models"
)

// Slugify turns a title into the URL form used in movie links. Anything that
// is not a letter, digit, whitespace or hyphen is dropped,
// whitespace runs and repeated hyphens become a single hyphen, and the
// result is lower-cased. Shared links depend on this output, so it must not
// change between releases.
func Slugify(title string) string {
	var kept strings.Builder
	kept.Grow(len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || unicode.IsSpace(r) {
			kept.WriteRune(r)
		}
	}

	trimmed := strings.TrimSpace(kept.String())

	var slug strings.Builder
	slug.Grow(len(trimmed))
	lastHyphen := false
	for _, r := range trimmed {
		if r == '-' || unicode.IsSpace(r) {
			if !lastHyphen {
				slug.WriteByte('-')
				lastHyphen = true
			}
			continue
		}
		slug.WriteRune(r)
		lastHyphen = false
	}

	// cases.Caser is stateful, so one is built per call.
	return cases.Lower(language.Und).String(slug.String())
}

// GenreFromSlug converts a category path segment such as "science-fiction"
// back to the catalog's genre name ("Science Fiction").
func GenreFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	caser := cases.Title(language.English)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// SlugIndex maps title slugs to item ids.
//
// When two titles produce the same slug the lower id keeps it; every later
// id is published under "<slug>-<id>" instead.
type SlugIndex struct {
	byslug     map[string]int
	byID       map[int]string
	collisions int
}

func newSlugIndex(ordered []models.Item) *SlugIndex {
	idx := &SlugIndex{
		byslug: make(map[string]int, len(ordered)),
		byID:   make(map[int]string, len(ordered)),
	}

	for _, item := range ordered {
		slug := Slugify(item.Title)
		if _, taken := idx.byslug[slug]; taken {
			idx.collisions++
			suffix := "-" + strconv.Itoa(item.ID)
			for taken {
				slug += suffix
				_, taken = idx.byslug[slug]
			}
		}
		idx.byslug[slug] = item.ID
		idx.byID[item.ID] = slug
	}

	return idx
}

// Resolve returns the item id published under slug.
func (x *SlugIndex) Resolve(slug string) (int, bool) {
	id, ok := x.byslug[slug]
	return id, ok
}

// SlugOf returns the slug under which the item is published.
func (x *SlugIndex) SlugOf(id int) (string, bool) {
	slug, ok := x.byID[id]
	return slug, ok
}

// Collisions reports how many titles had to fall back to an id-suffixed slug.
func (x *SlugIndex) Collisions() int {
	return x.collisions
}
