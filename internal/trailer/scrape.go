package trailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var watchIDPattern = regexp.MustCompile(`watch\?v=([A-Za-z0-9_-]{11})`)

// maxResultsPage bounds how much of the search page is read.
const maxResultsPage = 4 << 20

// PageScrape finds a trailer by fetching the public search results page and
// taking the first linked video. It needs no API key.
type PageScrape struct {
	client  *http.Client
	baseURL string
}

func NewPageScrape(baseURL string, timeout time.Duration) *PageScrape {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PageScrape{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *PageScrape) Name() string { return "page_scrape" }

func (p *PageScrape) Find(ctx context.Context, query string) (string, error) {
	params := url.Values{"search_query": {strings.Join(strings.Fields(query), " ")}}
	searchURL := p.baseURL + "/results?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search page returned status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxResultsPage))
	if err != nil {
		return "", fmt.Errorf("failed to read search page: %w", err)
	}

	match := watchIDPattern.FindSubmatch(page)
	if match == nil {
		return "", ErrNoResult
	}

	return WatchURL(p.baseURL, string(match[1])), nil
}
