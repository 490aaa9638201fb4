package trailer

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/pkg/models"
)

const SourceDefault = "default"

// ErrNoResult is returned by a strategy that ran fine but found no video.
var ErrNoResult = errors.New("no trailer found")

// Strategy is one way of finding a trailer for a search query.
type Strategy interface {
	Name() string
	Find(ctx context.Context, query string) (string, error)
}

// Resolver tries each strategy in order and falls back to a fixed URL when
// none of them produces one.
type Resolver struct {
	strategies []Strategy
	defaultURL string
	logger     *logrus.Logger
}

func NewResolver(defaultURL string, logger *logrus.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		defaultURL: defaultURL,
		logger:     logger,
	}
}

// Resolve returns a trailer URL and the name of the strategy that produced
// it. It never fails; the source is SourceDefault when every strategy did.
func (r *Resolver) Resolve(ctx context.Context, query string) (string, string) {
	for _, s := range r.strategies {
		url, err := s.Find(ctx, query)
		if err == nil && url != "" {
			r.logger.WithFields(logrus.Fields{
				"strategy": s.Name(),
				"query":    query,
				"url":      url,
			}).Debug("Trailer resolved")
			return url, s.Name()
		}

		r.logger.WithError(err).WithFields(logrus.Fields{
			"strategy": s.Name(),
			"query":    query,
		}).Warn("Trailer strategy failed")

		if ctx.Err() != nil {
			break
		}
	}

	return r.defaultURL, SourceDefault
}

// Query builds the search query for an item: its original title (or title),
// release year and "official trailer".
func Query(item models.Item) string {
	title := item.OriginalTitle
	if title == "" {
		title = item.Title
	}
	if title == "" {
		title = "Avatar 2009"
	}

	year := item.ReleaseDate
	if len(year) > 4 {
		year = year[:4]
	}

	return strings.Join([]string{title, year, "official trailer"}, " ")
}

// WatchURL is the canonical page for a YouTube video id.
func WatchURL(baseURL, videoID string) string {
	return strings.TrimRight(baseURL, "/") + "/watch?v=" + videoID
}
