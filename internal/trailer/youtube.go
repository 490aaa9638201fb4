package trailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/temcen/reelrank/internal/config"
)

// YouTubeAPI finds trailers through the YouTube Data API search endpoint.
// Calls are paced by a token bucket and guarded by a circuit breaker.
type YouTubeAPI struct {
	client    *http.Client
	apiBase   string
	watchBase string
	apiKey    string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[string]
	logger    *logrus.Logger
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

func NewYouTubeAPI(cfg config.TrailerConfig, logger *logrus.Logger) *YouTubeAPI {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	yt := &YouTubeAPI{
		client:    &http.Client{Timeout: timeout},
		apiBase:   strings.TrimRight(cfg.APIBaseURL, "/"),
		watchBase: cfg.SearchBaseURL,
		apiKey:    cfg.APIKey,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger,
	}

	yt.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "youtube-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// An empty result is a valid answer, not an outage.
			return err == nil || errors.Is(err, ErrNoResult)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return yt
}

func (y *YouTubeAPI) Name() string { return "youtube_api" }

func (y *YouTubeAPI) Find(ctx context.Context, query string) (string, error) {
	if y.apiKey == "" {
		return "", errors.New("youtube api key not configured")
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return "", err
	}

	return y.breaker.Execute(func() (string, error) {
		return y.search(ctx, query)
	})
}

func (y *YouTubeAPI) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("videoCategoryId", "1")
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.apiBase+"/search?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("youtube search returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode youtube search response: %w", err)
	}

	if len(body.Items) == 0 || body.Items[0].ID.VideoID == "" {
		return "", ErrNoResult
	}

	return WatchURL(y.watchBase, body.Items[0].ID.VideoID), nil
}
